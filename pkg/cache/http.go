package cache

import (
	"fmt"
	"net/http"
	"time"

	"github.com/appleniks969/kmmNetworkClient/pkg/transport"
)

const (
	// DefaultTTL is the fallback TTL when no Expires header is present.
	DefaultTTL = 5 * time.Minute
)

// ResponseToEntry converts a transport response to a cache entry, parsing
// its Expires and Last-Modified headers.
func ResponseToEntry(resp *transport.Response) (*Entry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	entry := &Entry{
		Data:       resp.Body,
		ETag:       resp.Header.Get("ETag"),
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		CachedAt:   time.Now(),
	}

	entry.Expires = parseExpires(resp.Header)

	if lastModStr := resp.Header.Get("Last-Modified"); lastModStr != "" {
		if lastMod, err := http.ParseTime(lastModStr); err == nil {
			entry.LastModified = lastMod
		}
	}

	return entry, nil
}

// EntryToResponse converts a cache entry back to a transport response, as
// served on a 304 Not Modified revalidation.
func EntryToResponse(entry *Entry) *transport.Response {
	return &transport.Response{
		StatusCode: entry.StatusCode,
		Status:     http.StatusText(entry.StatusCode),
		Header:     entry.Header.Clone(),
		Body:       entry.Data,
	}
}

// parseExpires parses the Expires header. Returns current time + DefaultTTL
// when the header is missing or unreadable.
func parseExpires(header http.Header) time.Time {
	expiresStr := header.Get("Expires")
	if expiresStr == "" {
		return time.Now().Add(DefaultTTL)
	}

	expires, err := http.ParseTime(expiresStr)
	if err != nil {
		return time.Now().Add(DefaultTTL)
	}

	if expires.Before(time.Now()) {
		return time.Now()
	}

	return expires
}

// ShouldRevalidate determines if the entry carries enough metadata for a
// conditional request.
func ShouldRevalidate(entry *Entry) bool {
	if entry == nil {
		return false
	}
	return entry.ETag != "" || !entry.LastModified.IsZero()
}

// AddConditionalHeaders adds If-None-Match (ETag) or If-Modified-Since to
// the outgoing header set. ETag is preferred when both are available.
func AddConditionalHeaders(h http.Header, entry *Entry) {
	if entry == nil || h == nil {
		return
	}

	if entry.ETag != "" {
		h.Set("If-None-Match", entry.ETag)
	} else if !entry.LastModified.IsZero() {
		h.Set("If-Modified-Since", entry.LastModified.Format(http.TimeFormat))
	}
}
