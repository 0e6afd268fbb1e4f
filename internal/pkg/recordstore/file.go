package recordstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// FileBackend stores each collection as "<dir>/<name>.json".
type FileBackend struct {
	dir   string
	write func(w io.Writer, data []byte) error
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &FileBackend{
		dir:   filepath.Clean(dir),
		write: writeAll,
	}, nil
}

func writeAll(w io.Writer, data []byte) error {
	_, err := w.Write(data)
	return err
}

func (b *FileBackend) path(name string) string {
	return filepath.Join(b.dir, name+".json")
}

func (b *FileBackend) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return data, nil
}

// Replace stages data next to the snapshot, flushes it and renames it over
// the snapshot. A failure at any step leaves the previous snapshot untouched
// and removes the staging file.
func (b *FileBackend) Replace(_ context.Context, name string, data []byte) error {
	pending, err := renameio.NewPendingFile(b.path(name),
		renameio.WithTempDir(b.dir),
		renameio.WithPermissions(0o644),
	)
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	defer pending.Cleanup()

	if err := b.write(pending, data); err != nil {
		return fmt.Errorf("write staging file: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	if err := syncDir(b.dir); err != nil {
		return fmt.Errorf("sync data directory: %w", err)
	}
	return nil
}

// MoveAside renames the snapshot of name to aside, whatever it is on disk.
func (b *FileBackend) MoveAside(_ context.Context, name, aside string) error {
	if err := os.Rename(b.path(name), b.path(aside)); err != nil {
		return fmt.Errorf("move %s aside: %w", name, err)
	}
	return syncDir(b.dir)
}

// syncDir makes a rename in dir durable.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

func (b *FileBackend) Close() error {
	return nil
}
