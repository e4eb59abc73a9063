package wisefetch

import (
	"math"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var wordOnly = regexp.MustCompile(`^\w+$`)

// validateOptions inspects opts and pushes diagnostics onto rep in the fixed
// validation order. It returns a non-nil error only for the short-circuit
// cases that must never be aggregated: frozen-option violations. The caller
// folds rep into the final error once the pass (and any additional
// validators) completes.
//
// frozen is the parent instance's frozen-option set; it is checked against
// the keys present on opts before any field-level validation runs.
func validateOptions(rep *report, opts Options, isBase bool, frozen []string) error {
	if opts == nil {
		return nil
	}

	if isBase {
		validateFrozenOptionsOption(rep, opts)
		validateAdditionalValidatorsOption(rep, opts)
	} else {
		for _, name := range factoryOnlyOptions {
			if _, ok := opts[name]; ok {
				rep.add(KindType, "`%s` option is only available for `Create` and cannot be used on a per-request basis.", name)
			}
		}
	}

	if len(frozen) > 0 {
		var violated []string
		for _, name := range frozen {
			if _, ok := opts[name]; ok {
				violated = append(violated, name)
			}
		}
		if len(violated) > 0 {
			return unconfigurableError(violated)
		}
	}

	scanTypos(rep, opts)

	if v, ok := opts["cacheManager"]; ok {
		rep.add(KindPlain, "`cacheManager` option is used by wise-fetch internally and cannot be overridden, but %s was provided.", inspect(v))
	}
	if v, ok := opts["counter"]; ok {
		rep.add(KindPlain, "`counter` option is used by wise-fetch internally and cannot be overridden, but %s was provided.", inspect(v))
	}
	if v, ok := opts["baseUrl"]; ok {
		validateBaseURLOption(rep, v)
	}
	if isBase {
		if v, ok := opts["urlModifier"]; ok {
			if _, err := coerceURLModifier(v); err != nil {
				rep.add(KindType, "Expected `urlModifier` option to be a function that takes and returns a URL string, but got %s.", inspect(v))
			}
		}
	}
	if v, ok := opts["resolveUnsuccessfulResponse"]; ok {
		if _, isBool := v.(bool); !isBool {
			rep.add(KindType, "Expected `resolveUnsuccessfulResponse` option to be a boolean, but got %s.", inspect(v))
		}
	}
	if v, ok := opts["headers"]; ok {
		normalizeHeaders(rep, v)
	}
	if v, ok := opts["userAgent"]; ok {
		validateUserAgentOption(rep, v)
	}
	if v, ok := opts["method"]; ok {
		validateMethodOption(rep, v)
	}
	if v, ok := opts["redirect"]; ok {
		validateEnumOption(rep, "redirect", v, []string{"error", "follow", "manual"})
	}
	if v, ok := opts["cache"]; ok {
		validateEnumOption(rep, "cache", v, []string{"default", "force-cache", "no-cache", "no-store", "only-if-cached"})
	}
	validateNonNegativeInteger(rep, opts, "follow")
	validateNonNegativeInteger(rep, opts, "timeout")
	validateNonNegativeInteger(rep, opts, "size")
	validateMaxSocketsOption(rep, opts)

	return nil
}

func unconfigurableError(names []string) *OptionError {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "`" + n + "`"
	}
	noun, verb := "option", "is"
	if len(names) > 1 {
		noun, verb = "options", "are"
	}
	return newOptionError(KindPlain, CodeOptionUnconfigurable,
		"%s %s %s not configurable for this instance.", joinWithAnd(quoted), noun, verb)
}

// scanTypos flags unknown keys that case-insensitively match a known
// misspelling. Keys are visited in sorted order so the numbering of the
// aggregated report stays deterministic.
func scanTypos(rep *report, opts Options) {
	for _, key := range sortedKeys(opts) {
		if knownOptions[key] {
			continue
		}
		if correct, ok := optionTypos[strings.ToLower(key)]; ok {
			rep.add(KindPlain, "`%s` option is likely a typo of the `%s` option.", key, correct)
		}
	}
}

func validateBaseURLOption(rep *report, v any) {
	var raw string
	switch u := v.(type) {
	case string:
		raw = u
	case *url.URL:
		if u == nil {
			rep.add(KindType, "Expected `baseUrl` option to be an HTTP(S) URL string or a *url.URL, but got a nil *url.URL.")
			return
		}
		raw = u.String()
	case url.URL:
		raw = u.String()
	default:
		rep.add(KindType, "Expected `baseUrl` option to be an HTTP(S) URL string or a *url.URL, but got %s.", inspect(v))
		return
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		rep.add(KindRange, "Expected `baseUrl` option to be a valid URL, but %s cannot be parsed: %v.", inspect(raw), err)
		return
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		rep.add(KindRange, "Expected the protocol of `baseUrl` option to be either `http:` or `https:`, but got %s.", schemeDisplay(parsed.Scheme))
	}
	if p := parsed.Path; p != "" && !strings.HasSuffix(p, "/") {
		rep.add(KindRange, "Expected the path of `baseUrl` option to be empty or end with a slash, but got %q.", p)
	}
	if parsed.Fragment != "" {
		rep.add(KindRange, "Expected `baseUrl` option to have no URL hash, but got %q.", "#"+parsed.Fragment)
	}
	if parsed.RawQuery != "" {
		rep.add(KindRange, "Expected `baseUrl` option to have no search params, but got %q.", "?"+parsed.RawQuery)
	}
}

func schemeDisplay(scheme string) string {
	if scheme == "" {
		return "no protocol"
	}
	return "`" + scheme + ":`"
}

func validateUserAgentOption(rep *report, v any) {
	s, isStr := v.(string)
	switch {
	case !isStr:
		rep.add(KindType, "Expected `userAgent` option to be a string, but got %s.", inspect(v))
	case s == "":
		rep.add(KindRange, "Expected `userAgent` option to be a non-empty string, but got %s.", inspect(s))
	case strings.TrimSpace(s) == "":
		rep.add(KindRange, "Expected `userAgent` option to include non-whitespace characters, but got %s.", inspect(s))
	}
}

func validateMethodOption(rep *report, v any) {
	s, isStr := v.(string)
	switch {
	case !isStr:
		rep.add(KindType, "Expected `method` option to be a string, but got %s.", inspect(v))
	case s == "":
		rep.add(KindRange, "Expected `method` option to be an HTTP method name, but got %s.", inspect(s))
	case !isKnownMethod(s):
		rep.add(KindRange, "Expected `method` option to be an HTTP method name, for example GET and POST, but got %s.", inspect(s))
	}
}

func validateEnumOption(rep *report, name string, v any, allowed []string) {
	s, isStr := v.(string)
	if !isStr {
		rep.add(KindType, "Expected `%s` option to be a string, but got %s.", name, inspect(v))
		return
	}
	for _, a := range allowed {
		if s == a {
			return
		}
	}
	quoted := make([]string, len(allowed))
	for i, a := range allowed {
		quoted[i] = "'" + a + "'"
	}
	rep.add(KindRange, "Expected `%s` option to be one of %s, but got %s.", name, joinWithAnd(quoted), inspect(s))
}

// validateNonNegativeInteger runs the fixed check sequence for the generic
// numeric options: wrong type, NaN, Infinity, negative, too large,
// non-integer. The first failing check is terminal for that option.
func validateNonNegativeInteger(rep *report, opts Options, name string) {
	v, ok := opts[name]
	if !ok {
		return
	}
	f, isNum := toFloat(v)
	switch {
	case !isNum:
		rep.add(KindType, "Expected `%s` option to be a non-negative integer, but got %s.", name, inspect(v))
	case math.IsNaN(f):
		rep.add(KindRange, "Expected `%s` option to be a non-negative integer, but got NaN.", name)
	case math.IsInf(f, 0):
		rep.add(KindRange, "Expected `%s` option to be a finite number, but got %s.", name, inspect(v))
	case f < 0:
		rep.add(KindRange, "Expected `%s` option to be a non-negative integer, but got a negative value %s.", name, inspect(v))
	case f > maxNumericOptionValue:
		rep.add(KindRange, "Expected `%s` option to be no larger than 2147483646, but got %s.", name, inspect(v))
	case f != math.Trunc(f):
		rep.add(KindRange, "Expected `%s` option to be an integer, but got a non-integer number %s.", name, inspect(v))
	}
}

// validateMaxSocketsOption special-cases zero (always invalid) and positive
// Infinity (always valid) before the generic numeric checks.
func validateMaxSocketsOption(rep *report, opts Options) {
	v, ok := opts["maxSockets"]
	if !ok {
		return
	}
	if f, isNum := toFloat(v); isNum {
		if f == 0 {
			rep.add(KindRange, "Expected `maxSockets` option to be a positive integer or Infinity, but got 0.")
			return
		}
		if math.IsInf(f, 1) {
			return
		}
	}
	validateNonNegativeInteger(rep, opts, "maxSockets")
}

func validateFrozenOptionsOption(rep *report, opts Options) {
	v, ok := opts["frozenOptions"]
	if !ok {
		return
	}
	names, ok := frozenNameList(v)
	if !ok {
		rep.add(KindType, "Expected `frozenOptions` option to be a set of option names, for example a []string, but got %s.", inspect(v))
		return
	}
	if len(names) == 0 {
		rep.add(KindRange, "Expected `frozenOptions` option to contain at least one option name, but got an empty set.")
		return
	}
	for _, n := range names {
		switch {
		case n == "":
			rep.add(KindRange, "Expected every item of `frozenOptions` option to be an option name, but the set includes %s.", inspect(n))
		case strings.TrimSpace(n) == "":
			rep.add(KindRange, "Expected every item of `frozenOptions` option to be an option name, but the set includes %s.", inspect(n))
		case !wordOnly.MatchString(n):
			rep.add(KindRange, "Expected every item of `frozenOptions` option to include only word characters, but the set includes %s.", inspect(n))
		case !knownOptions[n]:
			rep.add(KindRange, "Expected every item of `frozenOptions` option to be a name of a supported option, but the set includes an unsupported one %s.", inspect(n))
		}
	}
}

// frozenNameList accepts the set-like shapes for frozenOptions. Map-backed
// sets are sorted so diagnostics and enforcement order stay deterministic.
func frozenNameList(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		out := make([]string, len(s))
		copy(out, s)
		return out, true
	case map[string]struct{}:
		out := make([]string, 0, len(s))
		for n := range s {
			out = append(out, n)
		}
		sort.Strings(out)
		return out, true
	case map[string]bool:
		out := make([]string, 0, len(s))
		for n, include := range s {
			if include {
				out = append(out, n)
			}
		}
		sort.Strings(out)
		return out, true
	}
	return nil, false
}

func validateAdditionalValidatorsOption(rep *report, opts Options) {
	v, ok := opts["additionalOptionValidators"]
	if !ok {
		return
	}
	validators, ok := coerceValidators(v)
	if !ok {
		rep.add(KindType, "Expected `additionalOptionValidators` option to be a slice of validator functions, but got %s.", inspect(v))
		return
	}
	for i, fn := range validators {
		if fn == nil {
			rep.add(KindType, "Expected every item of `additionalOptionValidators` option to be a function, but the slice includes nil at index %d.", i)
		}
	}
}

func coerceValidators(v any) ([]OptionValidator, bool) {
	switch fns := v.(type) {
	case []OptionValidator:
		return fns, true
	case []func(Options) error:
		out := make([]OptionValidator, len(fns))
		for i, fn := range fns {
			if fn != nil {
				out[i] = OptionValidator(fn)
			}
		}
		return out, true
	}
	return nil, false
}

func coerceURLModifier(v any) (URLModifier, error) {
	switch fn := v.(type) {
	case URLModifier:
		return fn, nil
	case func(string) string:
		return URLModifier(fn), nil
	}
	return nil, newOptionError(KindType, CodeInvalidOptValue,
		"Expected `urlModifier` option to be a function that takes and returns a URL string, but got %s.", inspect(v))
}
