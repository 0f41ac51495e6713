package api

import (
	"bytes"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Timestamp carries a google.protobuf.Timestamp inside plain JSON messages,
// so times travel in the canonical protojson form ("2026-05-01T12:00:00Z").
type Timestamp struct {
	*timestamppb.Timestamp
}

// NewTimestamp wraps t; the zero time stays unset
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Timestamp: timestamppb.New(t)}
}

// Time returns the wrapped instant in UTC, or the zero time when unset
func (t Timestamp) Time() time.Time {
	if t.Timestamp == nil {
		return time.Time{}
	}
	return t.AsTime()
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Timestamp == nil {
		return []byte("null"), nil
	}
	return protojson.Marshal(t.Timestamp)
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Timestamp = nil
		return nil
	}
	ts := &timestamppb.Timestamp{}
	if err := protojson.Unmarshal(data, ts); err != nil {
		return err
	}
	if err := ts.CheckValid(); err != nil {
		return err
	}
	t.Timestamp = ts
	return nil
}
