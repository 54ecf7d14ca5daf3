// Package datamap holds the manifest produced by self-encryption: the
// ordered chunk records that, together with a chunk store, are sufficient
// to recover the original byte stream.
package datamap

import (
	"bytes"
	"fmt"

	"github.com/FairForge/selfcrypt/internal/crypto"
)

// ChunkDetails describes one emitted chunk, in source order.
type ChunkDetails struct {
	// PreHash is the SHA-512 of the chunk's plaintext, before compression.
	PreHash []byte

	// PreSize is the plaintext length in bytes.
	PreSize uint64

	// Hash is the SHA-512 of the stored ciphertext and the chunk's address
	// in the store. Empty iff the chunk was inlined into the data map.
	Hash []byte

	// Size is the stored (post-compression, post-encryption) length.
	Size uint64

	// Content carries the plaintext of an inlined tail chunk; else empty.
	Content []byte
}

// Inlined reports whether the chunk lives inside the data map rather than
// in the store.
func (c *ChunkDetails) Inlined() bool {
	return len(c.Hash) == 0
}

// DataMap is the manifest for one encrypted stream. It is created in a
// single Encrypt call and immutable afterwards.
type DataMap struct {
	// SelfEncryptionType tags the pipeline variant the chunks were
	// produced with.
	SelfEncryptionType crypto.SelfEncryptionType

	// CompressionType records whether gzip was actually applied. One
	// value covers every chunk of the map.
	CompressionType crypto.CompressionType

	// Size is the total plaintext length of the original input.
	Size uint64

	// Content is the whole input, inlined, for inputs small enough to
	// skip chunking; else empty.
	Content []byte

	// Chunks is the ordered chunk list. Empty iff Content carries the
	// full input.
	Chunks []ChunkDetails
}

// ContentSize returns the length of the inlined whole-input content.
func (m *DataMap) ContentSize() uint64 {
	return uint64(len(m.Content))
}

// HasInlinedTail reports whether the final chunk is carried inside the map.
func (m *DataMap) HasInlinedTail() bool {
	n := len(m.Chunks)
	return n > 0 && m.Chunks[n-1].Inlined()
}

// Validate checks the structural invariants that must hold after any
// successful encrypt. Store-side checks (blob existence, post-hash match)
// are the decryptor's job.
func (m *DataMap) Validate() error {
	if len(m.Chunks) == 0 {
		if m.ContentSize() != m.Size {
			return fmt.Errorf("inlined map: content length %d != size %d", m.ContentSize(), m.Size)
		}
		return nil
	}
	if len(m.Chunks) < crypto.MinChunks {
		return fmt.Errorf("chunked map must hold at least %d chunks, got %d", crypto.MinChunks, len(m.Chunks))
	}
	if len(m.Content) != 0 {
		return fmt.Errorf("chunked map must not carry whole-input content")
	}
	var total uint64
	for i := range m.Chunks {
		c := &m.Chunks[i]
		if len(c.PreHash) != crypto.HashSize {
			return fmt.Errorf("chunk %d: pre-hash must be %d bytes, got %d", i, crypto.HashSize, len(c.PreHash))
		}
		total += c.PreSize
		if c.Inlined() {
			if i != len(m.Chunks)-1 {
				return fmt.Errorf("chunk %d: only the tail chunk may be inlined", i)
			}
			if uint64(len(c.Content)) != c.PreSize {
				return fmt.Errorf("inlined tail: content length %d != pre-size %d", len(c.Content), c.PreSize)
			}
			if !bytes.Equal(crypto.HashBytes(c.Content), c.PreHash) {
				return fmt.Errorf("inlined tail: content does not match pre-hash")
			}
			continue
		}
		if len(c.Hash) != crypto.HashSize {
			return fmt.Errorf("chunk %d: hash must be %d bytes, got %d", i, crypto.HashSize, len(c.Hash))
		}
		if len(c.Content) != 0 {
			return fmt.Errorf("chunk %d: stored chunk must not carry content", i)
		}
	}
	if total != m.Size {
		return fmt.Errorf("chunk pre-sizes sum to %d, want %d", total, m.Size)
	}
	return nil
}

// PreHashes returns the ordered plaintext hashes of all chunks, the input
// to key derivation.
func (m *DataMap) PreHashes() [][]byte {
	hashes := make([][]byte, len(m.Chunks))
	for i := range m.Chunks {
		hashes[i] = m.Chunks[i].PreHash
	}
	return hashes
}

// Equal reports field-by-field equality of two data maps.
func (m *DataMap) Equal(o *DataMap) bool {
	if m.SelfEncryptionType != o.SelfEncryptionType ||
		m.CompressionType != o.CompressionType ||
		m.Size != o.Size ||
		!bytes.Equal(m.Content, o.Content) ||
		len(m.Chunks) != len(o.Chunks) {
		return false
	}
	for i := range m.Chunks {
		a, b := &m.Chunks[i], &o.Chunks[i]
		if !bytes.Equal(a.PreHash, b.PreHash) || a.PreSize != b.PreSize ||
			!bytes.Equal(a.Hash, b.Hash) || a.Size != b.Size ||
			!bytes.Equal(a.Content, b.Content) {
			return false
		}
	}
	return true
}
