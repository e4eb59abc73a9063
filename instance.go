package wisefetch

import (
	"net/url"
	"sort"
)

// baseConfig is the fully resolved, already-flattened snapshot a Fetcher
// closes over. Chained Create calls flatten parent defaults into the child
// snapshot up front, so no instance ever reaches back into an ancestor.
type baseConfig struct {
	options     Options
	frozen      []string
	validators  []OptionValidator
	urlModifier URLModifier
}

// Fetcher is a configured fetch instance returned by Create. It is
// immutable after construction and safe for concurrent use.
type Fetcher struct {
	client *Client
	base   baseConfig
}

// newFetcher validates raw as base options, flattens it over the parent
// snapshot and extracts the factory-only fields. The caller-supplied map is
// never mutated.
func newFetcher(c *Client, parent baseConfig, raw Options) (*Fetcher, error) {
	rep := &report{}
	if err := validateOptions(rep, raw, true, parent.frozen); err != nil {
		c.recordValidationError(err)
		return nil, err
	}
	if err := rep.err(); err != nil {
		c.recordValidationError(err)
		return nil, err
	}

	merged := mergeOptions(parent.options, raw)
	cfg := baseConfig{
		validators:  parent.validators,
		urlModifier: parent.urlModifier,
		frozen:      parent.frozen,
	}

	if v, ok := merged["frozenOptions"]; ok {
		names, _ := frozenNameList(v)
		sort.Strings(names)
		cfg.frozen = names
		delete(merged, "frozenOptions")
	}
	if v, ok := merged["additionalOptionValidators"]; ok {
		validators, _ := coerceValidators(v)
		cfg.validators = validators
		delete(merged, "additionalOptionValidators")
	}
	if v, ok := merged["urlModifier"]; ok {
		modifier, _ := coerceURLModifier(v)
		cfg.urlModifier = modifier
		delete(merged, "urlModifier")
	}

	cfg.options = merged
	return &Fetcher{client: c, base: cfg}, nil
}

// Create returns a new instance chained off this one. The child inherits
// every default of this instance and its ancestors; fields in base override
// inherited values. Neither this instance nor any ancestor is mutated.
func (f *Fetcher) Create(base Options) (*Fetcher, error) {
	return newFetcher(f.client, f.base, base)
}

// mergeOptions shallow-merges call options over base options into a fresh
// map; neither input is mutated. Headers are the one field merged
// field-by-field instead of wholesale.
func mergeOptions(base, call Options) Options {
	merged := make(Options, len(base)+len(call))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range call {
		if k == "headers" {
			continue
		}
		merged[k] = v
	}

	// Both sides were already validated; normalizing again here cannot
	// produce diagnostics, it only converges the accepted shapes.
	baseHeaders := normalizeHeaders(&report{}, base["headers"])
	callHeaders := normalizeHeaders(&report{}, call["headers"])
	if h := mergeHeaders(baseHeaders, callHeaders); h != nil {
		merged["headers"] = h
	}
	return merged
}

// projectUserAgent folds the userAgent shorthand into the merged header set
// as a `user-agent` field. It runs after the header merge, so the shorthand
// beats a user-agent header inherited from base options.
func projectUserAgent(merged Options) {
	ua, ok := merged["userAgent"].(string)
	if !ok || ua == "" {
		return
	}
	headers, _ := merged["headers"].(Headers)
	if headers == nil {
		headers = Headers{}
	}
	headers["user-agent"] = ua
	merged["headers"] = headers
	delete(merged, "userAgent")
}

// baseURLOf parses the baseUrl option out of validated merged options.
func baseURLOf(merged Options) *url.URL {
	switch u := merged["baseUrl"].(type) {
	case string:
		parsed, err := url.Parse(u)
		if err != nil {
			return nil
		}
		return parsed
	case *url.URL:
		return u
	case url.URL:
		return &u
	}
	return nil
}
