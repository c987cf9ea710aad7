package directory

import (
	"context"
	"fmt"
	"path"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/multierr"
)

// AddDir adds every regular file directly inside dir of fs. Subdirectories
// are skipped since listings are flat.
func (b *Builder) AddDir(ctx context.Context, fs billy.Filesystem, dir string) error {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}
	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}
		if err := b.addFromFS(ctx, fs, path.Join(dir, entry.Name()), entry.Name()); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) addFromFS(ctx context.Context, fs billy.Filesystem, filename, name string) (err error) {
	f, err := fs.Open(filename)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return b.AddFile(ctx, name, f)
}
