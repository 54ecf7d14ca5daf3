package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/FairForge/selfcrypt/internal/crypto"
	"github.com/FairForge/selfcrypt/internal/datamap"
	"github.com/FairForge/selfcrypt/internal/storage"
)

// Decryptor reconstructs original byte streams from data maps and a chunk
// store. Integrity failures are fatal: it never writes partial plaintext.
type Decryptor struct {
	store   storage.ChunkStore
	logger  *zap.Logger
	metrics *Metrics
	workers int
}

// NewDecryptor creates a decryptor over store.
func NewDecryptor(store storage.ChunkStore, logger *zap.Logger) *Decryptor {
	return &Decryptor{
		store:   store,
		logger:  logger,
		workers: runtime.GOMAXPROCS(0),
	}
}

// WithMetrics attaches Prometheus instruments.
func (d *Decryptor) WithMetrics(m *Metrics) *Decryptor {
	d.metrics = m
	return d
}

// WithWorkers bounds the per-call worker pool.
func (d *Decryptor) WithWorkers(n int) *Decryptor {
	if n > 0 {
		d.workers = n
	}
	return d
}

// AllChunksExist checks the store for every non-inlined chunk of m and
// returns the hex names of the missing ones.
func (d *Decryptor) AllChunksExist(ctx context.Context, m *datamap.DataMap) ([]string, error) {
	var missing []string
	for i := range m.Chunks {
		c := &m.Chunks[i]
		if c.Inlined() {
			continue
		}
		ok, err := d.store.Has(ctx, c.Hash)
		if err != nil {
			return nil, &IOError{Op: "has", Err: err}
		}
		if !ok {
			missing = append(missing, crypto.HexName(c.Hash))
		}
	}
	return missing, nil
}

// Decrypt walks m, fetches and opens every chunk and streams the original
// bytes to w in source order.
func (d *Decryptor) Decrypt(ctx context.Context, m *datamap.DataMap, w io.Writer) error {
	if m == nil {
		return fmt.Errorf("%w: nil data map", ErrInvalidInput)
	}
	if w == nil {
		return fmt.Errorf("%w: nil writer", ErrNullPointer)
	}
	if d.store == nil {
		return fmt.Errorf("%w: nil chunk store", ErrNullPointer)
	}

	if len(m.Chunks) == 0 {
		if m.ContentSize() != m.Size {
			return &DecryptError{Reason: fmt.Sprintf("inlined content is %d bytes, map says %d", m.ContentSize(), m.Size)}
		}
		if _, err := w.Write(m.Content); err != nil {
			return fmt.Errorf("write plaintext: %w", err)
		}
		d.metrics.mapDecrypted()
		return nil
	}

	missing, err := d.AllChunksExist(ctx, m)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &DecryptError{Reason: "missing chunks", Missing: missing}
	}

	plaintexts := make([][]byte, len(m.Chunks))
	if err := d.openAll(ctx, m, plaintexts); err != nil {
		return err
	}

	for i, p := range plaintexts {
		if _, err := w.Write(p); err != nil {
			return fmt.Errorf("write chunk %d plaintext: %w", i, err)
		}
	}
	d.metrics.mapDecrypted()
	d.logger.Debug("decrypted stream",
		zap.Uint64("bytes", m.Size),
		zap.Int("chunks", len(m.Chunks)))
	return nil
}

// DecryptToFile decrypts m into the file at path. An existing file is an
// error unless overwrite is set.
func (d *Decryptor) DecryptToFile(ctx context.Context, m *datamap.DataMap, path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrFileAlreadyExists, path)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := d.Decrypt(ctx, m, f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

// openAll fetches and opens every chunk on a bounded worker pool, writing
// each plaintext into its own slot.
func (d *Decryptor) openAll(ctx context.Context, m *datamap.DataMap, plaintexts [][]byte) error {
	n := len(m.Chunks)
	workers := d.workers
	if workers > n {
		workers = n
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	preHashes := m.PreHashes()
	compressed := m.CompressionType == crypto.CompressionGzip

	indices := make(chan int)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				p, err := d.openOne(ctx, m, i, preHashes, compressed)
				if err != nil {
					errs <- err
					cancel()
					return
				}
				plaintexts[i] = p
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case indices <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indices)
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return err
	}
	return ctx.Err()
}

// openOne fetches chunk i, verifies the stored bytes against the post-hash,
// reverses the pipeline and verifies the result against the pre-hash and
// pre-size. Either mismatch is fatal.
func (d *Decryptor) openOne(ctx context.Context, m *datamap.DataMap, i int, preHashes [][]byte, compressed bool) ([]byte, error) {
	c := &m.Chunks[i]

	if c.Inlined() {
		if uint64(len(c.Content)) != c.PreSize {
			return nil, &DecryptError{Reason: fmt.Sprintf("inlined chunk %d is %d bytes, map says %d", i, len(c.Content), c.PreSize)}
		}
		if !bytes.Equal(crypto.HashBytes(c.Content), c.PreHash) {
			return nil, &DecryptError{Reason: fmt.Sprintf("inlined chunk %d does not match its pre-hash", i)}
		}
		return c.Content, nil
	}

	ciphertext, err := d.store.Get(ctx, c.Hash)
	if err != nil {
		if errors.Is(err, storage.ErrChunkNotFound) {
			return nil, &DecryptError{Reason: "missing chunks", Missing: []string{crypto.HexName(c.Hash)}}
		}
		return nil, &IOError{Op: "get", Err: err}
	}
	if !bytes.Equal(crypto.HashBytes(ciphertext), c.Hash) {
		return nil, &DecryptError{Reason: fmt.Sprintf("chunk %d ciphertext does not match its hash", i)}
	}

	keys, err := crypto.DeriveKeys(preHashes, i)
	if err != nil {
		return nil, &DecryptError{Reason: fmt.Sprintf("derive keys for chunk %d: %v", i, err)}
	}
	plaintext, err := crypto.OpenChunk(ciphertext, keys, compressed)
	if err != nil {
		return nil, &DecryptError{Reason: fmt.Sprintf("open chunk %d: %v", i, err)}
	}
	if uint64(len(plaintext)) != c.PreSize {
		return nil, &DecryptError{Reason: fmt.Sprintf("chunk %d decrypted to %d bytes, map says %d", i, len(plaintext), c.PreSize)}
	}
	if !bytes.Equal(crypto.HashBytes(plaintext), c.PreHash) {
		return nil, &DecryptError{Reason: fmt.Sprintf("chunk %d plaintext does not match its pre-hash", i)}
	}

	d.metrics.addOpened(1, len(plaintext))
	return plaintext, nil
}
