// Package records provides versioned, owner-signed records stored at content
// addresses, and the stores that hold them.
package records

import (
	"context"
	"crypto/ed25519"
	"errors"
)

// ErrRecordNotFound is returned when no live record exists at an address.
var ErrRecordNotFound = errors.New("record not found")

// ErrRecordExists is returned when creating a record at an address that holds a live record.
var ErrRecordExists = errors.New("record already exists")

// ErrConflict is returned when a mutation's version is not the successor of the stored version.
var ErrConflict = errors.New("conflict: version does not follow the stored version")

// ErrUnauthorized is returned when a record is not signed by one of the owners.
var ErrUnauthorized = errors.New("record is not signed by an owner")

// ErrTagMismatch is returned when a mutation changes the type tag of a record.
var ErrTagMismatch = errors.New("record tag does not match the stored record")

// ErrInvalidRecord is returned for structurally invalid records.
var ErrInvalidRecord = errors.New("invalid record")

// Record is a versioned record. An empty payload marks a tombstone.
type Record struct {
	Tag            uint64              `json:"tag"`
	Address        string              `json:"address"`
	Version        uint64              `json:"version"`
	Payload        []byte              `json:"payload,omitempty"`
	Owners         []ed25519.PublicKey `json:"owners"`
	PreviousOwners []ed25519.PublicKey `json:"previousOwners,omitempty"`
	Signature      []byte              `json:"signature"`
}

// Deleted reports whether the record is a tombstone.
func (r Record) Deleted() bool {
	return len(r.Payload) == 0
}

// Getter fetches records.
type Getter interface {
	// Get returns the live record stored at address. The tag is forwarded to the
	// store as a request hint; callers must check the tag of the returned record.
	Get(ctx context.Context, address string, tag uint64) (Record, error)
}

// Records defines the interface for a versioned record store.
type Records interface {
	Getter

	// ID returns the ID of the record store itself.
	ID() string

	// Put creates a record at version 0, or over a tombstone.
	Put(ctx context.Context, rec Record) error

	// Post replaces a live record with its successor version.
	Post(ctx context.Context, rec Record) error

	// Delete replaces a live record with a tombstone at the successor version.
	Delete(ctx context.Context, rec Record) error
}
