// Package nameconfig persists the names claimed by the local registrant
// together with their messaging keypairs.
package nameconfig

import (
	"errors"

	"namereg/internal/keys"
)

const (
	// ReservedDir is the directory holding the configuration file.
	ReservedDir = ".dns"
	// FileName is the name of the configuration file inside ReservedDir.
	FileName = "dns_configuration"

	entriesSchema uint64 = 100_002
)

// ErrConfigCorruptedOrMissing is returned by Load when the configuration file
// is absent or cannot be decoded.
var ErrConfigCorruptedOrMissing = errors.New("dns configuration is corrupted or missing")

// StorageError reports a failure of the file collaborator.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "dns configuration " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Entry is one claimed name and the messaging keypair bound to it.
type Entry struct {
	Name      string                `json:"name"`
	Messaging keys.MessagingKeyPair `json:"messaging"`
}

type entries struct {
	Entries []Entry `json:"entries"`
}

func (entries) SchemaTag() uint64 { return entriesSchema }

// Find returns the entry for name.
func Find(list []Entry, name string) (Entry, bool) {
	for _, e := range list {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Remove returns list without the entry for name, and whether it was present.
func Remove(list []Entry, name string) ([]Entry, bool) {
	for i, e := range list {
		if e.Name == name {
			out := make([]Entry, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...), true
		}
	}
	return list, false
}
