package plugins

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/zerowaste/config"
	"github.com/kilianp07/zerowaste/core/factory"
	"github.com/kilianp07/zerowaste/infra/store"
)

func TestOpenStoreBackends(t *testing.T) {
	assert.Equal(t, []string{"memory", "sqlite"}, StoreTypes())

	mem, err := OpenStore(config.StoreConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, mem)

	path := filepath.Join(t.TempDir(), "nested", "zerowaste.db")
	sq, err := OpenStore(config.StoreConfig{Backend: "sqlite", Path: path})
	require.NoError(t, err)
	require.Implements(t, (*io.Closer)(nil), sq)
	assert.NoError(t, sq.(io.Closer).Close())
	assert.FileExists(t, path)
}

func TestOpenStoreUnknown(t *testing.T) {
	_, err := OpenStore(config.StoreConfig{Backend: "postgres"})
	assert.ErrorIs(t, err, factory.ErrUnknownModule)
}

func TestOpenStoreSQLiteNeedsPath(t *testing.T) {
	_, err := OpenStore(config.StoreConfig{Backend: "sqlite"})
	assert.ErrorContains(t, err, "path is required")
}

func TestRegisterStoreDuplicate(t *testing.T) {
	err := RegisterStore("memory", func(map[string]any) (Backend, error) { return store.NewMemoryStore(), nil })
	assert.Error(t, err)
}
