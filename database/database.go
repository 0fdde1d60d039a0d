package database

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrNotFound is returned by Read when no document exists at the path.
var ErrNotFound = errors.New("document not found")

// Store is the interface for access to the desk's persistent documents.
// Documents are addressed by slash separated paths such as
// "Members/alice" or "transactions/42/<id>" and are stored as JSON.
//
// Writes replace the whole document. The store is used for registration
// records, which are read back, and for the transaction audit trail,
// which is append style and never read by the desk itself.
type Store interface {
	// Write serializes doc as JSON and saves it at path, replacing any
	// document already there.
	Write(ctx context.Context, path string, doc interface{}) error

	// Read decodes the document saved at path into out. It returns
	// ErrNotFound if there is no document at path.
	Read(ctx context.Context, path string, out interface{}) error

	// Close cleanly shuts down the store and releases its resources.
	Close() error
}

// IsNotFound returns whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// CleanPath normalizes a document path so that "a//b/" and "/a/b"
// address the same document.
func CleanPath(p string) string {
	return strings.Trim(path.Clean("/"+p), "/")
}
