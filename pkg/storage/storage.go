package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write collides with an existing document.
	ErrConflict = errors.New("conflict")
)

// Storage is a flat document store addressed by slash-separated paths.
// Repositories serialize one entity per path.
type Storage interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
}
