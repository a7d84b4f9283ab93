package yamlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/storage"
)

type doc struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

func newLocal(t *testing.T) *storage.LocalStorage {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestCollection(t *testing.T) {
	ctx := context.Background()
	c := NewCollection[doc](newLocal(t), "docs", "doc")

	require.NoError(t, c.Create(ctx, "b", &doc{ID: "b", Name: "second"}))
	require.NoError(t, c.Create(ctx, "a", &doc{ID: "a", Name: "first"}))

	err := c.Create(ctx, "a", &doc{ID: "a"})
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))

	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)

	all, err := c.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)

	require.NoError(t, c.Update(ctx, "a", &doc{ID: "a", Name: "renamed"}))
	got, err = c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	assert.True(t, cerr.IsCode(c.Update(ctx, "zzz", &doc{ID: "zzz"}), cerr.NotFound))

	require.NoError(t, c.Delete(ctx, "a"))
	_, err = c.Get(ctx, "a")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
	assert.True(t, cerr.IsCode(c.Delete(ctx, "a"), cerr.NotFound))
}

func TestCollection_EmptyPrefix(t *testing.T) {
	c := NewCollection[doc](newLocal(t), "docs", "doc")
	all, err := c.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}
