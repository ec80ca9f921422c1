package cache

import (
	"testing"
	"time"
)

func TestEntryIsExpired(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{"future expiry", time.Now().Add(5 * time.Minute), false},
		{"past expiry", time.Now().Add(-5 * time.Minute), true},
		{"zero time", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{Expires: tt.expires}
			if got := entry.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntryTTL(t *testing.T) {
	t.Run("positive for future expiry", func(t *testing.T) {
		entry := &Entry{Expires: time.Now().Add(10 * time.Minute)}
		ttl := entry.TTL()
		if ttl <= 9*time.Minute || ttl > 10*time.Minute {
			t.Errorf("TTL() = %v, want within (9m, 10m]", ttl)
		}
	})

	t.Run("zero for expired entry", func(t *testing.T) {
		entry := &Entry{Expires: time.Now().Add(-1 * time.Minute)}
		if ttl := entry.TTL(); ttl != 0 {
			t.Errorf("TTL() = %v, want 0", ttl)
		}
	})
}
