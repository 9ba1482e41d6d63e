// ABOUTME: Configuration types for the generic table controller
// ABOUTME: Columns, filters, secondary actions and the backend Source contract
package grid

import (
	"context"
	"errors"

	"golang.org/x/text/language"
)

// Record is anything with a stable string identifier.
type Record interface {
	RecordID() string
}

// Source is the backend contract a controller drives: select, insert,
// update and delete against one collection.
type Source[T Record] interface {
	Select(ctx context.Context) ([]T, error)
	Insert(ctx context.Context, rec *T) error
	Update(ctx context.Context, id string, patch map[string]any) error
	Delete(ctx context.Context, ids ...string) error
}

// Kind selects the comparator used when sorting a column.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindDate
)

// Column is one readable attribute of a record. Columns double as the
// default column set, in declaration order.
type Column[T any] struct {
	Key    string
	Label  string
	Kind   Kind
	Value  func(T) any
	Hidden bool // not shown unless the user enables it
	Width  int
	Badge  bool // render as a colour-coded status badge
	Format func(T) string
}

// Display renders the column for one record.
func (c Column[T]) Display(rec T) string {
	if c.Format != nil {
		return c.Format(rec)
	}
	return FormatValue(c.Value(rec))
}

// Filter is an independent dropdown filter. Options nil means the options
// are the distinct values found in the loaded rows.
type Filter[T any] struct {
	Key     string
	Label   string
	Options []string
	Match   func(rec T, value string) bool
}

// Action is a secondary row action that hands off to another modal.
type Action[T any] struct {
	Key         string
	Label       string
	Icon        string
	Target      string // module whose form receives the hand-off
	Destructive bool
	Enabled     func(T) bool
	Prefill     func(T) map[string]string
}

// DeleteOptions travels from the caller to the BeforeDelete hook.
type DeleteOptions struct {
	Bulk                bool
	DeleteLinkedRecords bool
}

// BeforeDeleteFunc runs before the batched delete call. It returns the IDs
// that may be deleted; the rest are reported as skipped. Returning an error
// wrapping ErrRefused aborts without a delete call and is reported as a
// warning rather than a failure.
type BeforeDeleteFunc func(ctx context.Context, ids []string, opts DeleteOptions) ([]string, error)

// ErrRefused marks an expected, user-facing rejection of an operation.
var ErrRefused = errors.New("refused")

type refusal struct{ reason string }

func (r *refusal) Error() string        { return r.reason }
func (r *refusal) Is(target error) bool { return target == ErrRefused }

// Refuse returns an error whose message is reason and which matches ErrRefused.
func Refuse(reason string) error {
	return &refusal{reason: reason}
}

// Config parameterises a controller for one entity.
type Config[T Record] struct {
	Module       string // preferences key and display name, e.g. "leads"
	Singular     string // "lead"
	Source       Source[T]
	Columns      []Column[T]
	SearchFields []string
	Filters      []Filter[T]
	DateField    string // key used by the date range filter
	Actions      []Action[T]
	BeforeDelete BeforeDeleteFunc
	PageSize     int
	Locale       language.Tag
}

// Column returns the column with key.
func (c *Config[T]) Column(key string) (Column[T], bool) {
	for _, f := range c.Columns {
		if f.Key == key {
			return f, true
		}
	}
	return Column[T]{}, false
}

// Filter returns the filter with key.
func (c *Config[T]) Filter(key string) (Filter[T], bool) {
	for _, f := range c.Filters {
		if f.Key == key {
			return f, true
		}
	}
	return Filter[T]{}, false
}
