// Package drivers holds chunk-store backends. The local driver keeps one
// file per chunk under a root directory, named by the lowercase hex
// SHA-512 of the ciphertext it holds.
package drivers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FairForge/selfcrypt/internal/crypto"
	"github.com/FairForge/selfcrypt/internal/storage"
)

// LocalStore implements storage.ChunkStore on the local filesystem.
type LocalStore struct {
	root   string
	logger *zap.Logger
}

// NewLocalStore creates the root directory if needed and returns a store
// over it.
func NewLocalStore(root string, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("create chunk root: %w", err)
	}
	return &LocalStore{root: root, logger: logger}, nil
}

// Root returns the directory chunks are stored under.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) path(hash []byte) string {
	return filepath.Join(s.root, crypto.HexName(hash))
}

// Put writes data to a temp file and renames it into place. The rename
// keeps concurrent puts of the same hash from ever exposing a partial
// chunk. An existing chunk short-circuits: content addressing makes the
// second write a no-op.
func (s *LocalStore) Put(ctx context.Context, hash []byte, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.path(hash)
	if _, err := os.Stat(target); err == nil {
		s.logger.Debug("chunk already stored",
			zap.String("chunk", crypto.HexName(hash)))
		return nil
	}

	tmp := filepath.Join(s.root, "tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return fmt.Errorf("write chunk temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename chunk into place: %w", err)
	}
	s.logger.Debug("chunk stored",
		zap.String("chunk", crypto.HexName(hash)),
		zap.Int("bytes", len(data)))
	return nil
}

// Get reads the chunk stored under hash.
func (s *LocalStore) Get(ctx context.Context, hash []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(hash))
	if os.IsNotExist(err) {
		return nil, storage.ErrChunkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read chunk: %w", err)
	}
	return data, nil
}

// Has reports whether a chunk file exists for hash.
func (s *LocalStore) Has(ctx context.Context, hash []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(s.path(hash))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat chunk: %w", err)
	}
	return true, nil
}

// Delete removes the chunk file for hash.
func (s *LocalStore) Delete(ctx context.Context, hash []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.path(hash))
	if os.IsNotExist(err) {
		return storage.ErrChunkNotFound
	}
	if err != nil {
		return fmt.Errorf("delete chunk: %w", err)
	}
	return nil
}
