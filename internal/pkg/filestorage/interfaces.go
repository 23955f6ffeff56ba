package filestorage

import (
	"context"
	"errors"
	"io"
)

// ErrTooLarge is returned when an upload exceeds the configured limit
var ErrTooLarge = errors.New("file exceeds the maximum upload size")

// StoredFile describes an object after it was stored
type StoredFile struct {
	URL  string // public URL handed to clients
	Key  string // driver-specific handle used for deletion
	Size int64  // bytes written
}

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// Store saves the content of r under a unique name derived from nameHint
	Store(ctx context.Context, nameHint string, r io.Reader) (*StoredFile, error)

	// Delete removes a previously stored object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}
