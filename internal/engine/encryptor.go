package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/FairForge/selfcrypt/internal/crypto"
	"github.com/FairForge/selfcrypt/internal/datamap"
	"github.com/FairForge/selfcrypt/internal/storage"
)

// Encryptor turns byte streams into data maps backed by a chunk store.
// It is stateless across calls and safe for concurrent use.
type Encryptor struct {
	store   storage.ChunkStore
	params  crypto.Params
	logger  *zap.Logger
	metrics *Metrics
	workers int
}

// NewEncryptor creates an encryptor over store with the given parameters.
func NewEncryptor(store storage.ChunkStore, params crypto.Params, logger *zap.Logger) *Encryptor {
	return &Encryptor{
		store:   store,
		params:  params,
		logger:  logger,
		workers: runtime.GOMAXPROCS(0),
	}
}

// WithMetrics attaches Prometheus instruments.
func (e *Encryptor) WithMetrics(m *Metrics) *Encryptor {
	e.metrics = m
	return e
}

// WithWorkers bounds the per-call worker pool.
func (e *Encryptor) WithWorkers(n int) *Encryptor {
	if n > 0 {
		e.workers = n
	}
	return e
}

// EncryptReader reads r to the end and encrypts the bytes. The plaintext
// must be buffered anyway: every chunk is hashed before any chunk is
// encrypted, and is then needed a second time for the encryption itself.
func (e *Encryptor) EncryptReader(ctx context.Context, r io.Reader, alreadyCompressed bool) (*datamap.DataMap, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil reader", ErrInvalidInput)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return e.Encrypt(ctx, data, alreadyCompressed)
}

// Encrypt runs the full self-encryption pass over data and returns its
// data map. alreadyCompressed skips the compressibility probe, leaving
// the chunks uncompressed.
//
// Identical data under identical parameters always produces an identical
// map: the convergence property deduplication rests on.
func (e *Encryptor) Encrypt(ctx context.Context, data []byte, alreadyCompressed bool) (*datamap.DataMap, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: nil chunk store", ErrNullPointer)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidInput)
	}

	plan, err := PlanChunks(int64(len(data)), e.params)
	if err != nil {
		return nil, err
	}

	if plan.Inline {
		content := make([]byte, len(data))
		copy(content, data)
		e.metrics.mapEncrypted()
		return &datamap.DataMap{
			SelfEncryptionType: crypto.Obfuscate3AES256,
			CompressionType:    crypto.CompressionNone,
			Size:               uint64(len(data)),
			Content:            content,
		}, nil
	}

	// Pre-hash pass. Chunk i is keyed off the pre-hashes of chunks i-1
	// and i-2 (wrapping), so every hash must exist before any sealing
	// starts.
	n := len(plan.Sizes)
	chunks := make([][]byte, n)
	preHashes := make([][]byte, n)
	offset := 0
	for i, size := range plan.Sizes {
		chunks[i] = data[offset : offset+size]
		preHashes[i] = crypto.HashBytes(chunks[i])
		offset += size
	}

	compression := crypto.CompressionNone
	if !alreadyCompressed && crypto.Compressible(chunks[0]) {
		compression = crypto.CompressionGzip
	}

	details := make([]datamap.ChunkDetails, n)
	if err := e.sealAll(ctx, chunks, preHashes, compression == crypto.CompressionGzip, details); err != nil {
		return nil, err
	}

	m := &datamap.DataMap{
		SelfEncryptionType: crypto.Obfuscate3AES256,
		CompressionType:    compression,
		Size:               uint64(len(data)),
		Chunks:             details,
	}

	if plan.InlineTail {
		if err := e.inlineTail(ctx, m, chunks[n-1]); err != nil {
			return nil, err
		}
	}

	e.metrics.mapEncrypted()
	e.logger.Debug("encrypted stream",
		zap.Int("bytes", len(data)),
		zap.Int("chunks", n),
		zap.Bool("tail_inlined", plan.InlineTail),
		zap.String("compression", compression.String()))
	return m, nil
}

// sealAll runs the per-chunk pipeline on a bounded worker pool. Each
// worker owns its result slot, so the only shared state is the store.
func (e *Encryptor) sealAll(ctx context.Context, chunks, preHashes [][]byte, compress bool, details []datamap.ChunkDetails) error {
	n := len(chunks)
	workers := e.workers
	if workers > n {
		workers = n
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	indices := make(chan int)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				if err := e.sealOne(ctx, i, chunks[i], preHashes, compress, details); err != nil {
					errs <- err
					cancel()
					return
				}
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

func (e *Encryptor) sealOne(ctx context.Context, i int, plaintext []byte, preHashes [][]byte, compress bool, details []datamap.ChunkDetails) error {
	keys, err := crypto.DeriveKeys(preHashes, i)
	if err != nil {
		return fmt.Errorf("derive keys for chunk %d: %w", i, err)
	}
	ciphertext, err := crypto.SealChunk(plaintext, keys, compress)
	if err != nil {
		return fmt.Errorf("seal chunk %d: %w", i, err)
	}
	postHash := crypto.HashBytes(ciphertext)
	if err := e.store.Put(ctx, postHash, ciphertext); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &IOError{Op: "put", Err: err}
	}

	details[i] = datamap.ChunkDetails{
		PreHash: preHashes[i],
		PreSize: uint64(len(plaintext)),
		Hash:    postHash,
		Size:    uint64(len(ciphertext)),
	}
	e.metrics.addSealed(1, len(plaintext))
	return nil
}

// inlineTail replaces the stored form of the final chunk with its
// plaintext carried inside the data map. The blob is deleted unless an
// earlier chunk converged onto the same ciphertext.
func (e *Encryptor) inlineTail(ctx context.Context, m *datamap.DataMap, plaintext []byte) error {
	last := &m.Chunks[len(m.Chunks)-1]

	shared := false
	for i := 0; i < len(m.Chunks)-1; i++ {
		if bytes.Equal(m.Chunks[i].Hash, last.Hash) {
			shared = true
			break
		}
	}
	if !shared {
		err := e.store.Delete(ctx, last.Hash)
		if err != nil && !errors.Is(err, storage.ErrChunkNotFound) {
			return &IOError{Op: "delete", Err: err}
		}
	}

	content := make([]byte, len(plaintext))
	copy(content, plaintext)
	last.Hash = nil
	last.Content = content
	last.Size = last.PreSize
	return nil
}
