package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/FairForge/selfcrypt/internal/datamap"
	"github.com/FairForge/selfcrypt/internal/storage"
)

// DeleteChunks removes every stored chunk a data map references. Inlined
// tail chunks have no blob and are skipped. The store is shared between
// data maps and deletion is not reference-counted, so callers must know
// that nothing else references these chunks.
func DeleteChunks(ctx context.Context, store storage.ChunkStore, m *datamap.DataMap) error {
	if m == nil {
		return fmt.Errorf("%w: nil data map", ErrInvalidInput)
	}
	if store == nil {
		return fmt.Errorf("%w: nil chunk store", ErrNullPointer)
	}
	for i := range m.Chunks {
		c := &m.Chunks[i]
		if c.Inlined() {
			continue
		}
		err := store.Delete(ctx, c.Hash)
		if err != nil && !errors.Is(err, storage.ErrChunkNotFound) {
			return &IOError{Op: "delete", Err: err}
		}
	}
	return nil
}
