package storage

import (
	"context"
	"sync"

	"github.com/FairForge/selfcrypt/internal/crypto"
)

// MemoryStore keeps chunks in a map. Useful for tests and for callers
// that assemble everything in one process.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[string][]byte
}

// NewMemoryStore creates an empty in-memory chunk store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chunks: make(map[string][]byte)}
}

// Put stores data under hash. Storing the same hash twice leaves the
// store unchanged.
func (s *MemoryStore) Put(_ context.Context, hash []byte, data []byte) error {
	name := crypto.HexName(hash)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[name]; ok {
		return nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.chunks[name] = cp
	return nil
}

// Get returns the chunk stored under hash.
func (s *MemoryStore) Get(_ context.Context, hash []byte) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.chunks[crypto.HexName(hash)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrChunkNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Has reports whether hash is present.
func (s *MemoryStore) Has(_ context.Context, hash []byte) (bool, error) {
	s.mu.RLock()
	_, ok := s.chunks[crypto.HexName(hash)]
	s.mu.RUnlock()
	return ok, nil
}

// Delete removes the chunk stored under hash.
func (s *MemoryStore) Delete(_ context.Context, hash []byte) error {
	name := crypto.HexName(hash)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[name]; !ok {
		return ErrChunkNotFound
	}
	delete(s.chunks, name)
	return nil
}

// Count returns the number of chunks held.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Bytes returns the total stored size.
func (s *MemoryStore) Bytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, data := range s.chunks {
		total += int64(len(data))
	}
	return total
}
