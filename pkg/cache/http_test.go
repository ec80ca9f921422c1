package cache

import (
	"net/http"
	"testing"
	"time"

	"github.com/appleniks969/kmmNetworkClient/pkg/transport"
)

func TestResponseToEntry(t *testing.T) {
	expires := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Second)
	lastMod := time.Now().Add(-1 * time.Hour).UTC().Truncate(time.Second)

	header := http.Header{}
	header.Set("ETag", `"abc123"`)
	header.Set("Expires", expires.Format(http.TimeFormat))
	header.Set("Last-Modified", lastMod.Format(http.TimeFormat))
	header.Set("Content-Type", "application/json")

	resp := &transport.Response{
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       []byte(`{"data":"value"}`),
	}

	entry, err := ResponseToEntry(resp)
	if err != nil {
		t.Fatalf("ResponseToEntry() error = %v", err)
	}

	if string(entry.Data) != `{"data":"value"}` {
		t.Errorf("Data = %q, want response body", entry.Data)
	}
	if entry.ETag != `"abc123"` {
		t.Errorf("ETag = %q, want %q", entry.ETag, `"abc123"`)
	}
	if !entry.Expires.Equal(expires) {
		t.Errorf("Expires = %v, want %v", entry.Expires, expires)
	}
	if !entry.LastModified.Equal(lastMod) {
		t.Errorf("LastModified = %v, want %v", entry.LastModified, lastMod)
	}
	if entry.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", entry.StatusCode)
	}
	if entry.CachedAt.IsZero() {
		t.Error("CachedAt not set")
	}
}

func TestResponseToEntryNilResponse(t *testing.T) {
	if _, err := ResponseToEntry(nil); err == nil {
		t.Fatal("ResponseToEntry(nil) error = nil, want error")
	}
}

func TestResponseToEntryMissingExpires(t *testing.T) {
	resp := &transport.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       []byte("data"),
	}

	entry, err := ResponseToEntry(resp)
	if err != nil {
		t.Fatalf("ResponseToEntry() error = %v", err)
	}

	ttl := entry.TTL()
	if ttl <= DefaultTTL-time.Minute || ttl > DefaultTTL {
		t.Errorf("TTL = %v, want about %v from default", ttl, DefaultTTL)
	}
}

func TestResponseToEntryPastExpires(t *testing.T) {
	header := http.Header{}
	header.Set("Expires", time.Now().Add(-1*time.Hour).UTC().Format(http.TimeFormat))

	resp := &transport.Response{
		StatusCode: http.StatusOK,
		Header:     header,
	}

	entry, err := ResponseToEntry(resp)
	if err != nil {
		t.Fatalf("ResponseToEntry() error = %v", err)
	}
	if entry.TTL() > 0 {
		t.Errorf("TTL = %v, want 0 for already-stale response", entry.TTL())
	}
}

func TestEntryToResponse(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")

	entry := &Entry{
		Data:       []byte(`{"cached":true}`),
		StatusCode: http.StatusOK,
		Header:     header,
	}

	resp := EntryToResponse(entry)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if string(resp.Body) != `{"cached":true}` {
		t.Errorf("Body = %q, want cached data", resp.Body)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q, want cached header", resp.Header.Get("Content-Type"))
	}
}

func TestShouldRevalidate(t *testing.T) {
	tests := []struct {
		name  string
		entry *Entry
		want  bool
	}{
		{"nil entry", nil, false},
		{"etag present", &Entry{ETag: `"v1"`}, true},
		{"last modified present", &Entry{LastModified: time.Now()}, true},
		{"no validators", &Entry{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRevalidate(tt.entry); got != tt.want {
				t.Errorf("ShouldRevalidate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddConditionalHeaders(t *testing.T) {
	t.Run("etag preferred", func(t *testing.T) {
		h := http.Header{}
		entry := &Entry{ETag: `"v1"`, LastModified: time.Now()}

		AddConditionalHeaders(h, entry)

		if got := h.Get("If-None-Match"); got != `"v1"` {
			t.Errorf("If-None-Match = %q, want %q", got, `"v1"`)
		}
		if h.Get("If-Modified-Since") != "" {
			t.Error("If-Modified-Since set despite ETag being available")
		}
	})

	t.Run("last modified fallback", func(t *testing.T) {
		h := http.Header{}
		lastMod := time.Now().UTC().Truncate(time.Second)
		entry := &Entry{LastModified: lastMod}

		AddConditionalHeaders(h, entry)

		if got := h.Get("If-Modified-Since"); got != lastMod.Format(http.TimeFormat) {
			t.Errorf("If-Modified-Since = %q, want %q", got, lastMod.Format(http.TimeFormat))
		}
	})

	t.Run("nil entry is a no-op", func(t *testing.T) {
		h := http.Header{}
		AddConditionalHeaders(h, nil)
		if len(h) != 0 {
			t.Errorf("headers = %v, want none", h)
		}
	})
}
