package wisefetch

import (
	"math"
	"sort"
	"strings"
)

// Options is the loosely-typed request descriptor. Recognized keys are
// validated against the option grammar; unknown keys are forwarded to the
// fetch engine unvalidated.
type Options map[string]any

// URLModifier transforms the raw URL string before it is resolved against
// the base URL. Only meaningful as a base option.
type URLModifier func(string) string

// OptionValidator is a user-supplied validation callback. It receives the
// fully merged options of each request; a returned error is collected as a
// diagnostic instead of aborting validation.
type OptionValidator func(Options) error

// optionNames enumerates every option this library recognizes; it seeds
// knownOptions for the typo scanner and the frozenOptions checks. The
// field-level validation order itself is hardcoded in validateOptions.
var optionNames = []string{
	"cacheManager",
	"counter",
	"baseUrl",
	"urlModifier",
	"resolveUnsuccessfulResponse",
	"signal",
	"headers",
	"userAgent",
	"method",
	"redirect",
	"cache",
	"follow",
	"timeout",
	"size",
	"maxSockets",
	"proxy",
	"noProxy",
	"frozenOptions",
	"additionalOptionValidators",
}

var knownOptions = func() map[string]bool {
	m := make(map[string]bool, len(optionNames))
	for _, name := range optionNames {
		m[name] = true
	}
	return m
}()

// factoryOnlyOptions may only appear in base options passed to Create.
var factoryOnlyOptions = []string{
	"frozenOptions",
	"additionalOptionValidators",
	"urlModifier",
}

// optionTypos maps common misspellings (lower-cased) to the correct option
// name. A hit produces a diagnostic in addition to any other validation and
// does not suppress unknown-key pass-through.
var optionTypos = map[string]string{
	"baseurl":                      "baseUrl",
	"base-url":                     "baseUrl",
	"baseuri":                      "baseUrl",
	"header":                       "headers",
	"useragent":                    "userAgent",
	"user-agent":                   "userAgent",
	"methods":                      "method",
	"httpmethod":                   "method",
	"redirects":                    "redirect",
	"caches":                       "cache",
	"cachemode":                    "cache",
	"timeouts":                     "timeout",
	"follows":                      "follow",
	"maxredirects":                 "follow",
	"max-redirects":                "follow",
	"maxsize":                      "size",
	"sizes":                        "size",
	"maxsocket":                    "maxSockets",
	"maxsockets":                   "maxSockets",
	"max-sockets":                  "maxSockets",
	"noproxy":                      "noProxy",
	"no-proxy":                     "noProxy",
	"proxies":                      "proxy",
	"signals":                      "signal",
	"cachemanager":                 "cacheManager",
	"counters":                     "counter",
	"frozenoption":                 "frozenOptions",
	"frozenoptions":                "frozenOptions",
	"frozen-options":               "frozenOptions",
	"additionaloptionvalidator":    "additionalOptionValidators",
	"additionaloptionvalidators":   "additionalOptionValidators",
	"additional-option-validators": "additionalOptionValidators",
	"urlmodifier":                  "urlModifier",
	"url-modifier":                 "urlModifier",
	"modifyurl":                    "urlModifier",
	"resolveunsuccessfulresponse":  "resolveUnsuccessfulResponse",
	"resolveunsuccessfulresponses": "resolveUnsuccessfulResponse",
}

// knownMethods are the HTTP method tokens accepted for the method option,
// compared case-insensitively while the original casing is preserved.
var knownMethods = map[string]bool{
	"GET":     true,
	"HEAD":    true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"CONNECT": true,
	"OPTIONS": true,
	"TRACE":   true,
	"PATCH":   true,
}

// maxNumericOptionValue caps follow, timeout, size and maxSockets.
const maxNumericOptionValue = 2147483646

func sortedKeys(opts Options) []string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// toFloat widens any integer-like option value to float64 so the numeric
// checks can share one code path. The bool result reports whether the value
// was numeric at all.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func stringOpt(opts Options, name, fallback string) string {
	if s, ok := opts[name].(string); ok && s != "" {
		return s
	}
	return fallback
}

// intOpt reads a validated numeric option. Infinity and absent values both
// come back as (0, false) so callers treat them as "no limit".
func intOpt(opts Options, name string) (int, bool) {
	v, ok := opts[name]
	if !ok {
		return 0, false
	}
	f, ok := toFloat(v)
	if !ok || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return int(f), true
}

func isKnownMethod(s string) bool {
	return knownMethods[strings.ToUpper(s)]
}
