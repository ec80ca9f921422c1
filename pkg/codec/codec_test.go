package codec

import (
	"strings"
	"testing"
)

type widget struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestJSONContentType(t *testing.T) {
	if got := (JSON{}).ContentType(); got != "application/json" {
		t.Errorf("ContentType() = %q, want %q", got, "application/json")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	c := JSON{}

	data, err := c.Marshal(widget{ID: 7, Name: "gear"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var out widget
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out.ID != 7 || out.Name != "gear" {
		t.Errorf("round trip = %+v, want {7 gear}", out)
	}
}

func TestJSONLenientIgnoresUnknownFields(t *testing.T) {
	c := JSON{}

	var out widget
	err := c.Unmarshal([]byte(`{"id":1,"name":"a","added_in_v2":true}`), &out)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v, lenient mode must ignore unknown fields", err)
	}
	if out.ID != 1 {
		t.Errorf("ID = %d, want 1", out.ID)
	}
}

func TestJSONStrictRejectsUnknownFields(t *testing.T) {
	c := JSON{Strict: true}

	var out widget
	err := c.Unmarshal([]byte(`{"id":1,"name":"a","added_in_v2":true}`), &out)
	if err == nil {
		t.Fatal("Unmarshal() error = nil, strict mode must reject unknown fields")
	}
}

func TestJSONMarshalError(t *testing.T) {
	c := JSON{}

	_, err := c.Marshal(func() {})
	if err == nil {
		t.Fatal("Marshal() error = nil, want error for unencodable value")
	}
	if !strings.Contains(err.Error(), "encode json") {
		t.Errorf("Marshal() error = %v, want encode json context", err)
	}
}

func TestJSONUnmarshalError(t *testing.T) {
	c := JSON{}

	var out widget
	err := c.Unmarshal([]byte(`{"id":`), &out)
	if err == nil {
		t.Fatal("Unmarshal() error = nil, want error for truncated input")
	}
	if !strings.Contains(err.Error(), "decode json") {
		t.Errorf("Unmarshal() error = %v, want decode json context", err)
	}
}
