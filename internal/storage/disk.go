package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Disk is a TransientStore rooted at a local directory.
type Disk struct {
	root string
}

var _ TransientStore = (*Disk)(nil)

// NewDisk resolves dir to an absolute path and creates it if missing.
func NewDisk(dir string) (*Disk, error) {
	if dir == "" {
		return nil, fmt.Errorf("transient directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve transient directory: %w", err)
	}
	d := &Disk{root: abs}
	if err := d.ensureRoot(); err != nil {
		return nil, err
	}
	return d, nil
}

// Root returns the absolute directory backing the store.
func (d *Disk) Root() string { return d.root }

func (d *Disk) ensureRoot() error {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("create transient directory: %w", err)
	}
	return nil
}

// Write creates the file exclusively and removes any partial content on failure.
func (d *Disk) Write(ctx context.Context, name string, r io.Reader, opt WriteOptions) (Object, error) {
	if err := ValidateName(name); err != nil {
		return Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	// The sweeper or an operator may have removed the directory since startup.
	if err := d.ensureRoot(); err != nil {
		return Object{}, err
	}

	p := d.Path(name)
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Object{}, ErrExists
		}
		return Object{}, fmt.Errorf("create %s: %w", name, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(p)
		return Object{}, fmt.Errorf("write %s: %w", name, err)
	}

	info, err := os.Stat(p)
	if err != nil {
		return Object{}, fmt.Errorf("stat %s: %w", name, err)
	}
	return Object{
		Name:         name,
		Path:         p,
		Size:         n,
		ContentType:  opt.ContentType,
		LastModified: info.ModTime(),
	}, nil
}

// Delete removes the file, treating an already absent file as success.
func (d *Disk) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.Remove(d.Path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// List enumerates regular files directly under the root. Entries removed between
// the directory read and their stat are skipped.
func (d *Disk) List(ctx context.Context) ([]Object, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("read transient directory: %w", err)
	}

	objs := make([]Object, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return objs, err
		}
		if e.IsDir() {
			continue
		}
		obj := Object{Name: e.Name(), Path: d.Path(e.Name())}
		info, err := e.Info()
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			obj.StatErr = err
		default:
			obj.Size = info.Size()
			obj.LastModified = info.ModTime()
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

// Stat returns metadata for name or ErrNotFound.
func (d *Disk) Stat(_ context.Context, name string) (Object, error) {
	if err := ValidateName(name); err != nil {
		return Object{}, err
	}
	p := d.Path(name)
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Object{}, ErrNotFound
		}
		return Object{}, fmt.Errorf("stat %s: %w", name, err)
	}
	if info.IsDir() {
		return Object{}, ErrNotFound
	}
	return Object{Name: name, Path: p, Size: info.Size(), LastModified: info.ModTime()}, nil
}

// Path returns the absolute path of name under the root.
func (d *Disk) Path(name string) string {
	return filepath.Join(d.root, name)
}

// Ping checks that the root directory exists, recreating it if needed.
func (d *Disk) Ping(_ context.Context) error {
	return d.ensureRoot()
}
