// Package wisefetch is a validating, option-merging front end over a
// pluggable HTTP fetch/cache engine:
//
//   - Exhaustive validation of a loosely-typed options descriptor, with
//     aggregated multi-error diagnostics that keep their discovery order
//   - Reusable fetch instances built from base defaults, chainable via
//     Create and protected by frozen options
//   - Case-insensitive header normalization with practical-duplicate
//     detection
//   - Base-URL resolution, URL-modifier hooks and http(s)-only scheme
//     enforcement
//   - Proxy derivation from the process environment with npm-configuration
//     fallbacks
//   - Response classification into a success value or a structured
//     rejection carrying the full response
//
// Design goals:
//   - Small surface area: a callable Request plus Create for instances
//   - Deterministic, directly assertable error messages
//   - Safe concurrent use of a single Client and its instances
//   - Network I/O and RFC-compliant caching delegated to an Engine that is
//     initialized lazily, exactly once
//
// Typical usage:
//
//	fetcher, err := wisefetch.Create(wisefetch.Options{
//	    "baseUrl":   "https://api.example.com/",
//	    "userAgent": "my-app/1.0.0",
//	    "frozenOptions": []string{"baseUrl"},
//	})
//	if err != nil {
//	    // invalid base options
//	}
//	resp, err := fetcher.Do(ctx, "users/123")
//
// Unknown option keys are forwarded to the engine unvalidated; keys that
// look like misspellings of known options are reported as diagnostics.
package wisefetch
