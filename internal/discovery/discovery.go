// Package discovery keeps a directory of running records and storage
// services so clients can locate them by protocol instead of by URL.
package discovery

import (
	"context"
	"errors"
)

const (
	// RecordsProtocol is advertised by records services.
	RecordsProtocol = "records-v1"
	// StorageProtocol is advertised by storage services.
	StorageProtocol = "storage-v1"
)

// ErrServiceNotFound is returned when no registered service matches.
var ErrServiceNotFound = errors.New("service not found")

// ErrInvalidRegistration is returned for a registration without an ID or address.
var ErrInvalidRegistration = errors.New("invalid service registration")

// ServiceDescription describes a registered service.
type ServiceDescription struct {
	ID        string   `json:"id"`
	Address   string   `json:"address"`
	Protocols []string `json:"protocols"`
}

// Discovery is a directory of services.
type Discovery interface {
	// Get returns the service registered under id.
	Get(ctx context.Context, id string) (ServiceDescription, error)
	// Find returns up to count services speaking protocol, ordered by ID.
	Find(ctx context.Context, protocol string, count int) ([]ServiceDescription, error)
	// Register adds or replaces the entry for desc.ID.
	Register(ctx context.Context, desc ServiceDescription) error
}

func validate(desc ServiceDescription) error {
	if desc.ID == "" || desc.Address == "" {
		return ErrInvalidRegistration
	}
	return nil
}
