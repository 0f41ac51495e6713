package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONCodec is a connect codec registered under "json" for the plain Go
// request and response structs. Timestamps inside them use protojson.
type JSONCodec struct{}

// Name implements connect.Codec
func (JSONCodec) Name() string { return "json" }

// Marshal implements connect.Codec
func (JSONCodec) Marshal(msg any) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", msg, err)
	}
	return b, nil
}

// Unmarshal implements connect.Codec. Unknown fields are rejected.
func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", msg, err)
	}
	if dec.More() {
		return fmt.Errorf("failed to unmarshal %T: trailing data", msg)
	}
	return nil
}
