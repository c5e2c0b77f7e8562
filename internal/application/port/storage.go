package port

import "context"

// FileStore defines storage operations for supporting document content.
// Names are opaque handles generated by the caller, never user-supplied
// filenames.
type FileStore interface {
	Save(ctx context.Context, storedName string, content []byte) error
	Read(ctx context.Context, storedName string) ([]byte, error)
	Delete(ctx context.Context, storedName string) error
	Exists(ctx context.Context, storedName string) bool
}
