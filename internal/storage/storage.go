package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Package storage contains the transient store: a flat namespace of staged uploads addressed by
// stored filename. Any component may delete any entry; deletion of a missing entry is a success.

var (
	// ErrNotFound is returned by Stat when the entry does not exist.
	ErrNotFound = errors.New("transient entry not found")
	// ErrInvalidName is returned for names that could escape the store root.
	ErrInvalidName = errors.New("invalid transient entry name")
	// ErrExists is returned by Write when the name is already taken.
	ErrExists = errors.New("transient entry already exists")
)

// WriteOptions define optional parameters for staging an upload.
// Size should be the exact number of bytes if known, -1 otherwise.
type WriteOptions struct {
	Size         int64
	ContentType  string
	OriginalName string
}

// Object describes one entry in the transient store.
type Object struct {
	Name         string
	Path         string
	Size         int64
	ContentType  string
	LastModified time.Time
	// StatErr is set by List when the entry was enumerated but its metadata could not be read.
	StatErr error
}

// TransientStore is the staging area shared by request handlers and the retention sweeper.
// Implementations must be safe for concurrent use.
type TransientStore interface {
	// Write stages the content under name. It never overwrites an existing entry.
	Write(ctx context.Context, name string, r io.Reader, opt WriteOptions) (Object, error)
	// Delete removes the entry. A missing entry is not an error.
	Delete(ctx context.Context, name string) error
	// List enumerates current entries. An error means the listing itself failed.
	List(ctx context.Context) ([]Object, error)
	// Stat returns the entry's metadata or ErrNotFound.
	Stat(ctx context.Context, name string) (Object, error)
	// Path returns the reference handed to the remote service for name.
	Path(name string) string
	// Ping reports whether the store is usable.
	Ping(ctx context.Context) error
}

// ValidateName rejects anything other than a plain file name: empty names, dot entries,
// path separators, parent-directory segments and absolute paths.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return ErrInvalidName
	case filepath.IsAbs(name), path.IsAbs(name):
		return ErrInvalidName
	case strings.ContainsAny(name, `/\`), strings.ContainsRune(name, 0):
		return ErrInvalidName
	case strings.Contains(name, ".."):
		return ErrInvalidName
	}
	return nil
}
