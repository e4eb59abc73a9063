package wisefetch

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// resolveRequestURL validates the raw URL argument, applies the optional
// URL modifier, resolves the result against the optional base URL and
// enforces the http(s) scheme restriction. Every failure here is immediate
// and never aggregated with option diagnostics.
//
// Emptiness and whitespace are only rejected when no base URL is supplied;
// a relative URL against a base may legally be empty.
func resolveRequestURL(rawURL any, base *url.URL, modifier URLModifier) (*url.URL, error) {
	var raw string
	switch u := rawURL.(type) {
	case string:
		raw = u
	case *url.URL:
		if u == nil {
			return nil, newOptionError(KindType, CodeInvalidArgType,
				"Expected a request URL to be a string or a *url.URL, but got a nil *url.URL.")
		}
		raw = u.String()
	case url.URL:
		raw = u.String()
	default:
		return nil, newOptionError(KindType, CodeInvalidArgType,
			"Expected a request URL to be a string or a *url.URL, but got %s.", inspect(rawURL))
	}

	if modifier != nil {
		raw = modifier(raw)
	}

	if base == nil {
		if raw == "" {
			return nil, newOptionError(KindRange, "",
				"Expected a request URL to be a non-empty string, but got %s.", inspect(raw))
		}
		if strings.TrimSpace(raw) == "" {
			return nil, newOptionError(KindURI, CodeInvalidURI,
				"Expected a request URL to include non-whitespace characters, but got %s.", inspect(raw))
		}
	}

	if err := checkURIEncoding(raw); err != nil {
		return nil, err
	}

	var resolved *url.URL
	var err error
	if base != nil {
		resolved, err = base.Parse(raw)
	} else {
		resolved, err = url.Parse(raw)
	}
	if err != nil {
		return nil, newOptionError(KindRange, "",
			"Failed to construct a URL from %s: %v.", inspect(raw), err)
	}

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil, newOptionError(KindRange, CodeInvalidURLScheme,
			"Expected the protocol of the request URL to be either `http:` or `https:`, but got %s.", schemeDisplay(resolved.Scheme))
	}
	return resolved, nil
}

// checkURIEncoding verifies that the raw string survives an RFC 3986
// percent-decode producing valid UTF-8. Failure throws immediately with
// ERR_INVALID_URI, naming the offending string.
func checkURIEncoding(raw string) error {
	decoded, ok := percentDecode(raw)
	if !ok || !utf8.Valid(decoded) {
		return newOptionError(KindURI, CodeInvalidURI,
			"Failed to decode %q as a URI; it contains malformed percent-encoding or invalid UTF-8.", raw)
	}
	return nil
}

func percentDecode(s string) ([]byte, bool) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' {
			out = append(out, c)
			continue
		}
		if i+2 >= len(s) {
			return nil, false
		}
		hi, ok1 := unhex(s[i+1])
		lo, ok2 := unhex(s[i+2])
		if !ok1 || !ok2 {
			return nil, false
		}
		out = append(out, hi<<4|lo)
		i += 2
	}
	return out, true
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
