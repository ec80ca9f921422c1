// Package codec provides pluggable request/response serialization.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Codec encodes request bodies and decodes response bodies. Implementations
// must be safe for concurrent use.
type Codec interface {
	// ContentType is the media type announced for encoded bodies.
	ContentType() string

	// Marshal encodes a value to wire bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes wire bytes into the target value.
	Unmarshal(data []byte, v any) error
}

// JSON is the default codec. The zero value is lenient: unknown keys in a
// response are ignored, matching typical API evolution needs.
type JSON struct {
	// Strict rejects response fields that have no target in the
	// decoded type.
	Strict bool
}

// ContentType returns the JSON media type.
func (JSON) ContentType() string {
	return "application/json"
}

// Marshal encodes v as JSON.
func (JSON) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return data, nil
}

// Unmarshal decodes JSON into v, enforcing Strict mode if enabled.
func (c JSON) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if c.Strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
