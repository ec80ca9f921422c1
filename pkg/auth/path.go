package auth

import (
	"net/url"
	"strings"
)

// ExtractPath derives the path component used for rule matching from a
// path or absolute URL.
//
// A parseable URL yields its encoded path with the query string excluded.
// If parsing fails the string up to the first '?' is used; a string with
// no query separator is returned verbatim.
func ExtractPath(pathOrURL string) string {
	u, err := url.Parse(pathOrURL)
	if err == nil {
		if u.Host != "" || u.Scheme != "" {
			return u.EscapedPath()
		}
		if p := u.EscapedPath(); p != "" {
			return p
		}
	}

	if idx := strings.Index(pathOrURL, "?"); idx >= 0 {
		return pathOrURL[:idx]
	}

	return pathOrURL
}
