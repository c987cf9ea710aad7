package nameconfig

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"namereg/internal/codec"
)

// Store keeps the configuration file in a billy filesystem.
type Store struct {
	fs         billy.Filesystem
	dir        string
	file       string
	passphrase []byte
	logger     *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPassphrase encrypts the file at rest with a key derived from passphrase.
func WithPassphrase(passphrase []byte) Option {
	return func(s *Store) {
		s.passphrase = append([]byte(nil), passphrase...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithLocation overrides ReservedDir and FileName.
func WithLocation(dir, file string) Option {
	return func(s *Store) {
		s.dir = dir
		s.file = file
	}
}

func NewStore(fs billy.Filesystem, opts ...Option) *Store {
	s := &Store{
		fs:     fs,
		dir:    ReservedDir,
		file:   FileName,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) path() string {
	return path.Join(s.dir, s.file)
}

// Initialize creates the reserved directory and an empty configuration file
// if they do not exist yet. Calling it again is a no-op.
func (s *Store) Initialize() error {
	if err := s.fs.MkdirAll(s.dir, 0700); err != nil {
		return &StorageError{Op: "initialize", Err: err}
	}

	_, err := s.fs.Stat(s.path())
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return &StorageError{Op: "initialize", Err: err}
	}

	f, err := s.fs.OpenFile(s.path(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return &StorageError{Op: "initialize", Err: err}
	}
	if err := f.Close(); err != nil {
		return &StorageError{Op: "initialize", Err: err}
	}
	s.logger.Debug("created dns configuration", zap.String("path", s.path()))
	return nil
}

// Load returns the stored entries in file order.
func (s *Store) Load() ([]Entry, error) {
	data, err := s.read()
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrConfigCorruptedOrMissing
	}
	if err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}
	if len(data) == 0 {
		return []Entry{}, nil
	}

	if len(s.passphrase) > 0 {
		data, err = open(s.passphrase, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfigCorruptedOrMissing, err)
		}
	}

	var doc entries
	if err := codec.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("undecodable dns configuration", zap.String("path", s.path()), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrConfigCorruptedOrMissing, err)
	}
	if doc.Entries == nil {
		doc.Entries = []Entry{}
	}
	return doc.Entries, nil
}

func (s *Store) read() (data []byte, err error) {
	f, err := s.fs.Open(s.path())
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return io.ReadAll(f)
}

// Save replaces the stored entries. The new content is written to a temporary
// file which is then renamed over the old one.
func (s *Store) Save(list []Entry) error {
	data, err := codec.Marshal(entries{Entries: list})
	if err != nil {
		return err
	}
	if len(s.passphrase) > 0 {
		data, err = seal(s.passphrase, data)
		if err != nil {
			return err
		}
	}

	if err := s.fs.MkdirAll(s.dir, 0700); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	tmp, err := s.fs.TempFile(s.dir, s.file+".tmp-")
	if err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	_, err = tmp.Write(data)
	err = multierr.Append(err, tmp.Close())
	if err == nil {
		err = s.fs.Rename(tmp.Name(), s.path())
	}
	if err != nil {
		err = multierr.Append(err, s.fs.Remove(tmp.Name()))
		return &StorageError{Op: "save", Err: err}
	}

	s.logger.Debug("saved dns configuration", zap.String("path", s.path()), zap.Int("entries", len(list)))
	return nil
}
