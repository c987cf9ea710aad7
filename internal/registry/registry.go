// Package registry maps human-readable names to messaging keys and named
// services. Name records live in a versioned record store; the names owned by
// the local registrant are kept in a private configuration file.
package registry

import (
	"errors"

	"namereg/internal/directory"
	"namereg/internal/keys"
	"namereg/internal/nameconfig"
)

// RecordTag is the record type tag of name records.
const RecordTag uint64 = 5

const nameRecordSchema uint64 = 100_001

var (
	ErrNameAlreadyRegistered = errors.New("name already registered")
	ErrNameRecordNotFound    = errors.New("name record not found")
	ErrServiceAlreadyExists  = errors.New("service already exists")
	ErrServiceNotFound       = errors.New("service not found")
	ErrUnexpectedRecordType  = errors.New("unexpected record type")
)

// NameRecord is the public record of a claimed name.
type NameRecord struct {
	Name         string                        `json:"name"`
	MessagingKey keys.PublicKey                `json:"messagingKey"`
	Services     map[string]directory.Location `json:"services"`
}

func (NameRecord) SchemaTag() uint64 { return nameRecordSchema }

// ConfigStore persists the local registrant's names.
type ConfigStore interface {
	Initialize() error
	Load() ([]nameconfig.Entry, error)
	Save([]nameconfig.Entry) error
}

var _ ConfigStore = (*nameconfig.Store)(nil)
