// Package directory stores flat file listings in blob storage. A service of a
// registered name points at one of these listings.
package directory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"namereg/internal/codec"
	"namereg/internal/storage"
)

// UnversionedTag marks a listing stored as an immutable blob.
const UnversionedTag uint64 = 100

const listingSchema uint64 = 1

// ErrFileNotFound is returned when a listing has no file with the requested name.
var ErrFileNotFound = errors.New("file not found in directory")

// ErrUnexpectedTag is returned when a location does not point at a listing this package can read.
var ErrUnexpectedTag = errors.New("unexpected directory tag")

// Location identifies a stored listing.
type Location struct {
	Address string `json:"address"`
	Tag     uint64 `json:"tag"`
	Public  bool   `json:"public"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s@%d", l.Address, l.Tag)
}

// Listing maps file names to the blob addresses of their content.
type Listing struct {
	Name  string            `json:"name"`
	Files map[string]string `json:"files"`
}

func (Listing) SchemaTag() uint64 { return listingSchema }

// Names returns the file names in the listing, sorted.
func (l Listing) Names() []string {
	names := make([]string, 0, len(l.Files))
	for name := range l.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HomeDirName is the listing name used for a service's home directory.
func HomeDirName(service string) string {
	return service + "_home_dir"
}

// Store reads and writes listings.
type Store struct {
	blobs storage.Storage
}

func NewStore(blobs storage.Storage) *Store {
	return &Store{blobs: blobs}
}

// Save stores listing and returns its public location.
func (s *Store) Save(ctx context.Context, listing Listing) (Location, error) {
	data, err := codec.Marshal(listing)
	if err != nil {
		return Location{}, err
	}
	address, err := s.blobs.Store(ctx, bytes.NewReader(data))
	if err != nil {
		return Location{}, fmt.Errorf("failed to store listing %q: %w", listing.Name, err)
	}
	return Location{Address: address, Tag: UnversionedTag, Public: true}, nil
}

// Get fetches the listing at loc.
func (s *Store) Get(ctx context.Context, loc Location) (Listing, error) {
	if loc.Tag != UnversionedTag {
		return Listing{}, fmt.Errorf("%w: %d", ErrUnexpectedTag, loc.Tag)
	}
	data, err := storage.ReadAll(ctx, s.blobs, loc.Address)
	if err != nil {
		return Listing{}, fmt.Errorf("failed to read listing %s: %w", loc.Address, err)
	}
	var listing Listing
	if err := codec.Unmarshal(data, &listing); err != nil {
		return Listing{}, err
	}
	return listing, nil
}

// ReadFile returns the content of the named file in the listing at loc.
func (s *Store) ReadFile(ctx context.Context, loc Location, name string) ([]byte, error) {
	listing, err := s.Get(ctx, loc)
	if err != nil {
		return nil, err
	}
	address, ok := listing.Files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return storage.ReadAll(ctx, s.blobs, address)
}

// Builder collects files for a new listing.
type Builder struct {
	store   *Store
	listing Listing
}

func (s *Store) NewBuilder(name string) *Builder {
	return &Builder{
		store:   s,
		listing: Listing{Name: name, Files: make(map[string]string)},
	}
}

// AddFile stores the content of r as the file name.
func (b *Builder) AddFile(ctx context.Context, name string, r io.Reader) error {
	address, err := b.store.blobs.Store(ctx, r)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}
	b.listing.Files[name] = address
	return nil
}

// Save stores the listing built so far.
func (b *Builder) Save(ctx context.Context) (Location, error) {
	return b.store.Save(ctx, b.listing)
}
