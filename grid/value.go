// ABOUTME: Value formatting and comparison for grid columns
// ABOUTME: Normalises strings, numbers and dates so nil sorts as empty or zero
package grid

import (
	"strconv"
	"time"

	"golang.org/x/text/collate"
)

// DateLayout is the display format for date fields.
const DateLayout = "2006-01-02 15:04"

// FormatValue renders a field value for display and search.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Local().Format(DateLayout)
	case *time.Time:
		if x == nil || x.IsZero() {
			return ""
		}
		return x.Local().Format(DateLayout)
	case interface{ String() string }:
		return x.String()
	}
	return ""
}

func numberOf(v any) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	case *int64:
		if x != nil {
			return float64(*x)
		}
	}
	return 0
}

// millisOf returns epoch milliseconds; nil and zero times are 0.
func millisOf(v any) int64 {
	switch x := v.(type) {
	case time.Time:
		if !x.IsZero() {
			return x.UnixMilli()
		}
	case *time.Time:
		if x != nil && !x.IsZero() {
			return x.UnixMilli()
		}
	}
	return 0
}

func timeOf(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x != nil && !x.IsZero() {
			return *x, true
		}
	}
	return time.Time{}, false
}

func compareValues(kind Kind, a, b any, col *collate.Collator) int {
	switch kind {
	case KindNumber:
		x, y := numberOf(a), numberOf(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case KindDate:
		x, y := millisOf(a), millisOf(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return col.CompareString(FormatValue(a), FormatValue(b))
}
