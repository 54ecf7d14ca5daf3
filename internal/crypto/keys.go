package crypto

import (
	"fmt"
)

// Sizes of the derived key material.
const (
	KeySize = 32
	IVSize  = 16
	PadSize = 144
)

// ChunkKeys is the material for one chunk's pipeline run. There is no
// external key: everything is cut from the plaintext pre-hashes of the
// chunk and its two predecessors.
type ChunkKeys struct {
	Key [KeySize]byte
	IV  [IVSize]byte
	Pad [PadSize]byte
}

// DeriveKeys derives the (key, iv, pad) triple for chunk index i from the
// pre-hashes of all chunks. With A the pre-hash of chunk i-1, B of chunk
// i-2 and S of chunk i (indices wrapping modulo len(preHashes)):
//
//	key = A[0:32]
//	iv  = A[32:48]
//	pad = A[0:64] || S[0:64] || B[48:64]
//
// The wrap-around means chunks 0 and 1 depend on the last two chunks.
// The layout is fixed; changing it would orphan all stored ciphertext.
func DeriveKeys(preHashes [][]byte, i int) (ChunkKeys, error) {
	n := len(preHashes)
	if n < MinChunks {
		return ChunkKeys{}, fmt.Errorf("need at least %d pre-hashes, got %d", MinChunks, n)
	}
	if i < 0 || i >= n {
		return ChunkKeys{}, fmt.Errorf("chunk index %d out of range [0,%d)", i, n)
	}

	a := preHashes[(i+n-1)%n]
	b := preHashes[(i+n-2)%n]
	s := preHashes[i]
	for _, h := range [][]byte{a, b, s} {
		if len(h) != HashSize {
			return ChunkKeys{}, fmt.Errorf("pre-hash must be %d bytes, got %d", HashSize, len(h))
		}
	}

	var k ChunkKeys
	copy(k.Key[:], a[:KeySize])
	copy(k.IV[:], a[KeySize:KeySize+IVSize])
	copy(k.Pad[:HashSize], a)
	copy(k.Pad[HashSize:2*HashSize], s)
	copy(k.Pad[2*HashSize:], b[HashSize-16:])
	return k, nil
}
