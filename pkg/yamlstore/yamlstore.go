// Package yamlstore keeps one YAML document per record on a storage.Storage.
package yamlstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/storage"
)

type Collection[T any] struct {
	storage storage.Storage
	prefix  string
	// name is the resource name used in error messages.
	name string
}

func NewCollection[T any](s storage.Storage, prefix, name string) *Collection[T] {
	return &Collection[T]{storage: s, prefix: prefix, name: name}
}

func (c *Collection[T]) path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", c.prefix, id)
}

func (c *Collection[T]) Create(ctx context.Context, id string, doc *T) error {
	exists, err := c.storage.Exists(ctx, c.path(id))
	if err != nil {
		return cerr.WrapStorageWriteError(c.name, err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, c.name+" already exists", nil)
	}
	return c.write(ctx, id, doc)
}

func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	data, err := c.storage.Read(ctx, c.path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError(c.name, err)
	}
	var doc T
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal %s: %w", c.name, err))
	}
	return &doc, nil
}

// All reads every document in id order. Documents that cannot be read or
// decoded are logged and skipped.
func (c *Collection[T]) All(ctx context.Context) ([]*T, error) {
	paths, err := c.storage.List(ctx, c.prefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError(c.name, err)
	}
	sort.Strings(paths)

	docs := make([]*T, 0, len(paths))
	for _, p := range paths {
		data, err := c.storage.Read(ctx, p)
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable document", "path", p, "error", err)
			continue
		}
		var doc T
		if err := yaml.Unmarshal(data, &doc); err != nil {
			slog.WarnContext(ctx, "skipping malformed document", "path", p, "error", err)
			continue
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

func (c *Collection[T]) Update(ctx context.Context, id string, doc *T) error {
	exists, err := c.storage.Exists(ctx, c.path(id))
	if err != nil {
		return cerr.WrapStorageWriteError(c.name, err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, c.name+" not found", nil)
	}
	return c.write(ctx, id, doc)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := c.storage.Delete(ctx, c.path(id)); err != nil {
		return cerr.WrapStorageDeleteError(c.name, err)
	}
	return nil
}

func (c *Collection[T]) write(ctx context.Context, id string, doc *T) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal %s: %w", c.name, err))
	}
	if err := c.storage.Write(ctx, c.path(id), data); err != nil {
		return cerr.WrapStorageWriteError(c.name, err)
	}
	return nil
}
