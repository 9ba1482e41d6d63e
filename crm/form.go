// ABOUTME: Form definitions and conversion between form strings and records
// ABOUTME: Parses dates, money and references into column values for the backend
package crm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/crmgrid/models"
)

var (
	ErrRequired     = errors.New("required")
	ErrInvalidValue = errors.New("invalid value")
)

// Input layouts accepted by date and datetime fields.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

// FieldKind selects how a form string is parsed.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldLongText
	FieldEnum
	FieldDate
	FieldDateTime
	FieldMoney
	FieldInt
	FieldRef
)

// FormField is one input of a create/edit form. Key is the column name.
type FormField struct {
	Key      string
	Label    string
	Kind     FieldKind
	Options  []string
	Required bool
	Default  string
	Ref      string // module a FieldRef points at
}

// Form is the ordered input list for one module.
type Form struct {
	Module string
	Fields []FormField
}

// Field returns the form field with key.
func (f Form) Field(key string) (FormField, bool) {
	for _, ff := range f.Fields {
		if ff.Key == key {
			return ff, true
		}
	}
	return FormField{}, false
}

// Patch converts form strings to column values. A partial patch only
// carries the keys present in values; a full one fills absent keys from
// their defaults. Keys the form does not declare are rejected.
func (f Form) Patch(values map[string]string, partial bool) (map[string]any, error) {
	for k := range values {
		if _, ok := f.Field(k); !ok {
			return nil, fmt.Errorf("%s: %w", k, ErrInvalidValue)
		}
	}

	patch := make(map[string]any, len(f.Fields))
	for _, ff := range f.Fields {
		raw, present := values[ff.Key]
		if !present {
			if partial {
				continue
			}
			raw = ff.Default
		}
		raw = strings.TrimSpace(raw)
		if raw == "" && ff.Required {
			return nil, fmt.Errorf("%s is %w", ff.Label, ErrRequired)
		}
		v, err := ff.parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ff.Label, err)
		}
		patch[ff.Key] = v
	}
	return patch, nil
}

func (ff FormField) parse(raw string) (any, error) {
	switch ff.Kind {
	case FieldEnum:
		if raw != "" && !models.Valid(raw, ff.Options) {
			return nil, fmt.Errorf("%q: %w", raw, ErrInvalidValue)
		}
		return raw, nil
	case FieldDate, FieldDateTime:
		if raw == "" {
			return nil, nil
		}
		return parseTime(raw)
	case FieldMoney:
		if raw == "" {
			return int64(0), nil
		}
		amount, err := strconv.ParseFloat(strings.NewReplacer(",", "", "$", "").Replace(raw), 64)
		if err != nil || amount < 0 {
			return nil, fmt.Errorf("%q: %w", raw, ErrInvalidValue)
		}
		return int64(math.Round(amount * 100)), nil
	case FieldInt:
		if raw == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", raw, ErrInvalidValue)
		}
		return n, nil
	case FieldRef:
		if raw == "" {
			return nil, nil
		}
		return raw, nil
	}
	return raw, nil
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range []string{DateTimeLayout, DateLayout, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q: %w", raw, ErrInvalidValue)
}

// Values renders a record into form strings, for pre-filling an edit form.
func (f Form) Values(rec any) (map[string]string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(f.Fields))
	for _, ff := range f.Fields {
		out[ff.Key] = ff.format(raw[ff.Key])
	}
	return out, nil
}

func (ff FormField) format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		if ff.Kind == FieldMoney {
			return strconv.FormatFloat(x/100, 'f', 2, 64)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		if ff.Kind == FieldDate || ff.Kind == FieldDateTime {
			t, err := time.Parse(time.RFC3339Nano, x)
			if err != nil {
				return x
			}
			if ff.Kind == FieldDate {
				return t.Local().Format(DateLayout)
			}
			return t.Local().Format(DateTimeLayout)
		}
		return x
	}
	return fmt.Sprint(v)
}

// decode builds a record from a column patch. Column names match the
// records' JSON tags.
func decode[T any](patch map[string]any) (T, error) {
	var rec T
	data, err := json.Marshal(patch)
	if err != nil {
		return rec, err
	}
	err = json.Unmarshal(data, &rec)
	return rec, err
}
