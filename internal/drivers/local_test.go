package drivers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FairForge/selfcrypt/internal/crypto"
	"github.com/FairForge/selfcrypt/internal/storage"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestLocalStore_PutGetHasDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	data := []byte("ciphertext bytes")
	hash := crypto.HashBytes(data)

	require.NoError(t, s.Put(ctx, hash, data))

	ok, err := s.Has(ctx, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Get(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, s.Delete(ctx, hash))
	_, err = s.Get(ctx, hash)
	assert.ErrorIs(t, err, storage.ErrChunkNotFound)
	assert.ErrorIs(t, s.Delete(ctx, hash), storage.ErrChunkNotFound)
}

func TestLocalStore_FileLayout(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	data := []byte("on-disk chunk")
	hash := crypto.HashBytes(data)

	require.NoError(t, s.Put(ctx, hash, data))

	// One file per chunk, named by the lowercase hex post-hash, holding
	// the raw ciphertext.
	path := filepath.Join(s.Root(), crypto.HexName(hash))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, raw)

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files may survive a put")
}

func TestLocalStore_IdempotentPut(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	data := []byte("stored twice")
	hash := crypto.HashBytes(data)

	require.NoError(t, s.Put(ctx, hash, data))
	require.NoError(t, s.Put(ctx, hash, data))

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalStore_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "chunks")
	_, err := NewLocalStore(root, zap.NewNop())
	require.NoError(t, err)
	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalStore_CancelledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data := []byte("never stored")
	hash := crypto.HashBytes(data)
	assert.Error(t, s.Put(ctx, hash, data))
	_, err := s.Get(ctx, hash)
	assert.Error(t, err)
}
