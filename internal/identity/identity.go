package identity

import (
	"crypto/rand"
	"encoding/hex"
	"os"
)

// Provider is an interface for types that can provide an ID
type Provider interface {
	ID() string
}

// NewID returns a random 32-byte hex ID.
func NewID() string {
	idBytes := make([]byte, 32)
	rand.Read(idBytes)
	return hex.EncodeToString(idBytes)
}

// LoadOrCreateID reads a previously stored ID from path, or generates and
// stores a new one.
func LoadOrCreateID(path string) (string, error) {
	if data, err := os.ReadFile(path); err == nil && len(data) == 64 {
		return string(data), nil
	}
	id := NewID()
	if err := os.WriteFile(path, []byte(id), 0644); err != nil {
		return "", err
	}
	return id, nil
}
