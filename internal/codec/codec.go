// Package codec implements the schema-tagged envelope used for every
// serialized registry entity.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrSchemaMismatch is returned when an envelope carries a different schema tag than expected.
var ErrSchemaMismatch = errors.New("schema tag mismatch")

// Tagged is implemented by types that are serialized through the envelope.
type Tagged interface {
	SchemaTag() uint64
}

type envelope struct {
	Schema uint64          `json:"schema"`
	Body   json.RawMessage `json:"body"`
}

// Marshal encodes v inside an envelope carrying its schema tag.
func Marshal(v Tagged) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Schema: v.SchemaTag(), Body: body})
}

// Unmarshal decodes data into v, checking the envelope's schema tag first.
func Unmarshal(data []byte, v Tagged) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Schema != v.SchemaTag() {
		return fmt.Errorf("%w: expected %d, got %d", ErrSchemaMismatch, v.SchemaTag(), env.Schema)
	}
	if len(env.Body) == 0 {
		return fmt.Errorf("failed to decode envelope: missing body")
	}
	return json.Unmarshal(env.Body, v)
}
