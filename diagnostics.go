package wisefetch

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// report accumulates diagnostics during one validation pass. The order of
// add calls is the order diagnostics appear in the aggregated error message.
type report struct {
	diags []Diagnostic
}

func (r *report) add(kind DiagnosticKind, format string, args ...any) {
	r.diags = append(r.diags, Diagnostic{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	})
}

// err folds the collected diagnostics into the error the caller observes:
// nil when the pass found nothing, the sole diagnostic as an OptionError
// tagged ERR_INVALID_OPT_VALUE, or an AggregateOptionError for two or more.
func (r *report) err() error {
	switch len(r.diags) {
	case 0:
		return nil
	case 1:
		d := r.diags[0]
		return &OptionError{
			Kind:    d.Kind,
			Message: d.Message,
			code:    CodeInvalidOptValue,
		}
	default:
		return &AggregateOptionError{Diagnostics: r.diags}
	}
}

// inspect renders an offending value for an error message. The format is
// kind-aware so that an empty string, a whitespace-only string, a wrong
// primitive and a wrong object shape all read differently and diagnostics
// stay directly assertable in tests.
func inspect(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		if x == "" {
			return "'' (empty string)"
		}
		if strings.TrimSpace(x) == "" {
			return fmt.Sprintf("%q (whitespace-only string)", x)
		}
		return fmt.Sprintf("%q", x)
	case float64:
		return inspectFloat(x)
	case float32:
		return inspectFloat(float64(x))
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%v", x)
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Func:
		return fmt.Sprintf("a function of type %T", v)
	case reflect.Map, reflect.Slice, reflect.Array:
		return fmt.Sprintf("%v (%T)", v, v)
	default:
		return fmt.Sprintf("%+v (%T)", v, v)
	}
}

func inspectFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return fmt.Sprintf("%v", f)
	}
}

// joinWithAnd renders a short list in prose: "a", "a and b", "a, b and c".
func joinWithAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
