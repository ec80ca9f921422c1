package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached response by request URL. The storage namespace
// prefix is owned by the Manager, not the key.
type Key struct {
	// URL is the absolute request URL, query string included.
	URL string
}

// String generates a deterministic key string.
// Format: host/path:query1=val1:query2=val2
//
// Query parameters are sorted so that equivalent URLs share one entry.
// An unparseable URL falls back to the raw string.
func (k Key) String() string {
	u, err := url.Parse(k.URL)
	if err != nil {
		return k.URL
	}

	var parts []string

	location := u.Host + strings.TrimSuffix(u.EscapedPath(), "/")
	if location != "" {
		parts = append(parts, location)
	}

	query := u.Query()
	if len(query) > 0 {
		queryKeys := make([]string, 0, len(query))
		for key := range query {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, query.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
