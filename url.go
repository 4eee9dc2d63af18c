package pagecheck

import (
	"net/url"
	"strings"
)

// BaseURL returns the origin and path of rawURL with the query string and
// fragment removed. The host is lowercased and an empty path becomes "/",
// the way browsers normalize them. It is the key used for same-site
// membership and for deduplicating discovered links.
func BaseURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", Errorf(EINVALID, "invalid URL %q: %v", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", Errorf(EINVALID, "invalid URL %q: missing scheme or host", rawURL)
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return u.Scheme + "://" + strings.ToLower(u.Host) + path, nil
}

// IsURLValid reports whether rawURL is an absolute http or https URL.
func IsURLValid(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// ToSlice normalizes a value that may hold either a single T or a list of T.
// Elements of a []any that are not of type T are skipped. Values of any other
// type yield nil.
func ToSlice[T any](v any) []T {
	switch val := v.(type) {
	case []T:
		return val
	case T:
		return []T{val}
	case []any:
		out := make([]T, 0, len(val))
		for _, item := range val {
			if t, ok := item.(T); ok {
				out = append(out, t)
			}
		}
		return out
	default:
		return nil
	}
}
