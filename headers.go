package wisefetch

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Headers is the canonical case-insensitive header mapping: every key is
// lower-cased at construction time.
type Headers map[string]string

type headerField struct {
	name  string
	value string
}

// normalizeHeaders converts any accepted headers representation into the
// canonical lower-cased mapping, pushing a diagnostic for every shape
// problem it finds. Map-backed inputs are visited in sorted key order so
// diagnostics stay deterministic.
//
// Accepted shapes: Headers, map[string]string, map[string]any, http.Header,
// map[string][]string, [][2]string, [][]string and []any of 2-element pairs.
func normalizeHeaders(rep *report, v any) Headers {
	var fields []headerField

	switch h := v.(type) {
	case nil:
		return nil
	case Headers:
		fields = fieldsFromStringMap(map[string]string(h))
	case map[string]string:
		fields = fieldsFromStringMap(h)
	case http.Header:
		fields = fieldsFromMultiMap(map[string][]string(h))
	case map[string][]string:
		fields = fieldsFromMultiMap(h)
	case map[string]any:
		names := make([]string, 0, len(h))
		for name := range h {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			value, ok := headerValueString(h[name])
			if !ok {
				rep.add(KindType, "Expected the value of the `%s` header field to be a string, but got %s.", name, inspect(h[name]))
				continue
			}
			fields = append(fields, headerField{name, value})
		}
	case [][2]string:
		for _, pair := range h {
			fields = append(fields, headerField{pair[0], pair[1]})
		}
	case [][]string:
		for _, pair := range h {
			if len(pair) != 2 {
				rep.add(KindRange, "Expected every header field of `headers` option to be a name-value pair with 2 elements, but got a pair with %d elements %s.", len(pair), inspect(pair))
				continue
			}
			fields = append(fields, headerField{pair[0], pair[1]})
		}
	case []any:
		for _, item := range h {
			pair, ok := headerPair(item)
			if !ok {
				rep.add(KindType, "Expected every item of `headers` option to be a name-value pair, but got %s.", inspect(item))
				continue
			}
			fields = append(fields, pair)
		}
	default:
		rep.add(KindType, "Expected `headers` option to be an object, a map or a list of name-value pairs, but got %s.", inspect(v))
		return nil
	}

	detectDuplicateFields(rep, fields)

	if len(fields) == 0 {
		return nil
	}
	out := make(Headers, len(fields))
	for _, f := range fields {
		out[strings.ToLower(f.name)] = f.value
	}
	return out
}

func fieldsFromStringMap(h map[string]string) []headerField {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]headerField, 0, len(names))
	for _, name := range names {
		fields = append(fields, headerField{name, h[name]})
	}
	return fields
}

func fieldsFromMultiMap(h map[string][]string) []headerField {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]headerField, 0, len(names))
	for _, name := range names {
		fields = append(fields, headerField{name, strings.Join(h[name], ", ")})
	}
	return fields
}

func headerPair(item any) (headerField, bool) {
	switch pair := item.(type) {
	case [2]string:
		return headerField{pair[0], pair[1]}, true
	case []string:
		if len(pair) == 2 {
			return headerField{pair[0], pair[1]}, true
		}
	case []any:
		if len(pair) == 2 {
			name, nameOK := pair[0].(string)
			value, valueOK := headerValueString(pair[1])
			if nameOK && valueOK {
				return headerField{name, value}, true
			}
		}
	}
	return headerField{}, false
}

func headerValueString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprintf("%v", x), true
	}
	return "", false
}

// detectDuplicateFields clusters field names case-insensitively and reports
// every cluster holding more than one entry. Header names are practically
// case-insensitive, so such clusters always collapse on the wire; the
// diagnostic names the first-encountered spelling as the merge target.
func detectDuplicateFields(rep *report, fields []headerField) {
	clusters := make(map[string][]string)
	var order []string
	for _, f := range fields {
		lower := strings.ToLower(f.name)
		if _, seen := clusters[lower]; !seen {
			order = append(order, lower)
		}
		clusters[lower] = append(clusters[lower], f.name)
	}
	for _, lower := range order {
		names := clusters[lower]
		if len(names) < 2 {
			continue
		}
		quoted := make([]string, len(names))
		for i, n := range names {
			quoted[i] = "`" + n + "`"
		}
		rep.add(KindRange, "Header fields %s are practically duplicates because header names are case-insensitive; merge them into a single `%s` field.", joinWithAnd(quoted), names[0])
	}
}

// mergeHeaders merges call headers over base headers field-by-field. Both
// inputs are already canonical, so matching names simply collide on their
// lower-cased form with the call side winning.
func mergeHeaders(base, call Headers) Headers {
	if base == nil && call == nil {
		return nil
	}
	out := make(Headers, len(base)+len(call))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range call {
		out[k] = v
	}
	return out
}
