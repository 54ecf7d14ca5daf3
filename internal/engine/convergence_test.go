package engine

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FairForge/selfcrypt/internal/crypto"
	"github.com/FairForge/selfcrypt/internal/datamap"
)

// patternParams turns off tail inlining so every chunk is stored, which is
// what the post-hash counting below looks at.
var patternParams = crypto.Params{MaxChunkSize: 1024, MaxIncludableChunkSize: 0, MaxIncludableDataSize: 2}

func TestEncrypt_Deterministic(t *testing.T) {
	ctx := context.Background()
	data := randomData(t, 5000)

	encA, _, _ := newTestEngine(t, crypto.DefaultParams())
	encB, _, _ := newTestEngine(t, crypto.DefaultParams())

	mA, err := encA.Encrypt(ctx, data, false)
	require.NoError(t, err)
	mB, err := encB.Encrypt(ctx, data, false)
	require.NoError(t, err)

	assert.True(t, mA.Equal(mB), "independent encrypts of the same input must converge")
}

func TestEncrypt_RepeatedChunksDeduplicate(t *testing.T) {
	ctx := context.Background()
	const repeats = 6
	chunk := randomData(t, patternParams.MaxChunkSize)
	data := bytes.Repeat(chunk, repeats)

	enc, dec, store := newTestEngine(t, patternParams)
	m, err := enc.Encrypt(ctx, data, false)
	require.NoError(t, err)
	require.Len(t, m.Chunks, repeats)

	// Every chunk sees identical neighbour pre-hashes, so all ciphertexts
	// converge onto one stored blob.
	for i := 0; i < repeats-2; i++ {
		assert.Equal(t, m.Chunks[0].Hash, m.Chunks[i].Hash, "chunk %d", i)
	}
	assert.Equal(t, 1, store.Count())

	var out bytes.Buffer
	require.NoError(t, dec.Decrypt(ctx, m, &out))
	assert.True(t, bytes.Equal(data, out.Bytes()))
}

// TestEncrypt_NeighbourPatterns pins down how far convergence reaches when
// identical chunk plaintexts sit next to different neighbours: a chunk's
// ciphertext depends on its own plaintext and the two preceding pre-hashes
// (wrapping), nothing else.
func TestEncrypt_NeighbourPatterns(t *testing.T) {
	ctx := context.Background()
	blocks := map[byte][]byte{
		'A': randomData(t, patternParams.MaxChunkSize),
		'B': randomData(t, patternParams.MaxChunkSize),
		'C': randomData(t, patternParams.MaxChunkSize),
	}

	tests := []struct {
		pattern string
		unique  int
	}{
		{"AAA", 1},
		{"ABC", 3},
		{"AAAB", 4},
		{"BAAAA", 4},
		{"AABAA", 4},
		{"BAAAB", 5},
		{"AAABC", 5},
		{"AABAAB", 3},
		{"AABAAC", 6},
		{"AABAACAAC", 6},
		{"AABAACAAB", 6},
		{"ABACA", 5},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			var data []byte
			for _, c := range []byte(tt.pattern) {
				data = append(data, blocks[c]...)
			}

			enc, _, _ := newTestEngine(t, patternParams)
			m, err := enc.Encrypt(ctx, data, false)
			require.NoError(t, err)
			require.Len(t, m.Chunks, len(tt.pattern))

			seen := make(map[string]struct{})
			for i := range m.Chunks {
				seen[string(m.Chunks[i].Hash)] = struct{}{}
			}
			assert.Len(t, seen, tt.unique)
		})
	}
}

func TestEncrypt_MapSurvivesSerialization(t *testing.T) {
	ctx := context.Background()
	p := crypto.DefaultParams()
	enc, dec, _ := newTestEngine(t, p)
	data := randomData(t, 3*p.MaxChunkSize+256)

	m, err := enc.Encrypt(ctx, data, false)
	require.NoError(t, err)

	encoded, err := datamap.Marshal(m)
	require.NoError(t, err)
	restored, err := datamap.Unmarshal(encoded)
	require.NoError(t, err)
	require.True(t, m.Equal(restored))

	var out bytes.Buffer
	require.NoError(t, dec.Decrypt(ctx, restored, &out))
	assert.True(t, bytes.Equal(data, out.Bytes()))
}
