package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/minio/sha256-simd"
	"go.uber.org/multierr"

	"namereg/internal/identity"
)

// FileSystemStorage saves blobs to disk under baseDir/aa/bb/<address>.
type FileSystemStorage struct {
	baseDir string
	id      string
}

var _ Storage = (*FileSystemStorage)(nil)

var _ identity.Provider = (*FileSystemStorage)(nil)

func NewFileSystemStorage(baseDir string) (*FileSystemStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	id, err := identity.LoadOrCreateID(filepath.Join(baseDir, "id"))
	if err != nil {
		return nil, err
	}
	return &FileSystemStorage{
		baseDir: baseDir,
		id:      id,
	}, nil
}

func (s *FileSystemStorage) ID() string {
	return s.id
}

func (s *FileSystemStorage) addressToPath(address string) string {
	if len(address) < 4 {
		return filepath.Join(s.baseDir, address)
	}
	return filepath.Join(s.baseDir, address[0:2], address[2:4], address)
}

func (s *FileSystemStorage) Has(ctx context.Context, address string) (bool, error) {
	_, err := os.Stat(s.addressToPath(address))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *FileSystemStorage) Get(ctx context.Context, address string) (io.ReadCloser, error) {
	file, err := os.Open(s.addressToPath(address))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *FileSystemStorage) Store(ctx context.Context, r io.Reader) (string, error) {
	tmpName, address, err := s.spool(r)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmpName)

	return address, s.place(tmpName, address)
}

func (s *FileSystemStorage) StoreAt(ctx context.Context, address string, r io.Reader) error {
	tmpName, calculated, err := s.spool(r)
	if err != nil {
		return err
	}
	defer os.Remove(tmpName)

	if calculated != address {
		return ErrAddressMismatch
	}
	return s.place(tmpName, address)
}

// spool copies r into a temporary file in baseDir while hashing it.
func (s *FileSystemStorage) spool(r io.Reader) (string, string, error) {
	tmpFile, err := os.CreateTemp(s.baseDir, "upload-*")
	if err != nil {
		return "", "", err
	}

	hasher := sha256.New()
	_, err = io.Copy(tmpFile, io.TeeReader(r, hasher))
	err = multierr.Append(err, tmpFile.Close())
	if err != nil {
		return "", "", multierr.Append(err, os.Remove(tmpFile.Name()))
	}
	return tmpFile.Name(), hex.EncodeToString(hasher.Sum(nil)), nil
}

// place moves a spooled file to its final path. Overwriting an existing blob
// is harmless since the content is identical.
func (s *FileSystemStorage) place(tmpName, address string) error {
	finalPath := s.addressToPath(address)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		return err
	}
	return os.Rename(tmpName, finalPath)
}
