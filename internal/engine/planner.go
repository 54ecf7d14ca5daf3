package engine

import (
	"fmt"

	"github.com/FairForge/selfcrypt/internal/crypto"
)

// ChunkPlan is the outcome of sizing an input before any hashing or
// encryption happens.
type ChunkPlan struct {
	// Inline is set when the whole input fits inside the data map and no
	// chunks are produced at all.
	Inline bool

	// Sizes holds the plaintext length of every chunk, in order. None
	// exceeds Params.MaxChunkSize. In the full-chunk regime only the last
	// entry may be smaller; in the MinChunks regime every entry may be.
	Sizes []int

	// InlineTail is set when the final chunk is small enough to be
	// carried inside the data map instead of being stored as a blob.
	InlineTail bool
}

// PlanChunks decides how an input of dataSize bytes is cut up under p.
//
// Three regimes:
//   - dataSize <= MaxIncludableDataSize: no chunks, the input is inlined.
//   - dataSize <= MinChunks*MaxChunkSize: exactly MinChunks chunks, split
//     as evenly as possible with the remainder on the last chunk.
//   - larger: full MaxChunkSize chunks plus one trailing chunk for the
//     remainder.
func PlanChunks(dataSize int64, p crypto.Params) (ChunkPlan, error) {
	if dataSize <= 0 {
		return ChunkPlan{}, fmt.Errorf("%w: data size must be positive, got %d", ErrInvalidInput, dataSize)
	}
	if err := p.Validate(); err != nil {
		return ChunkPlan{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if dataSize <= int64(p.MaxIncludableDataSize) {
		return ChunkPlan{Inline: true}, nil
	}

	var sizes []int
	if dataSize <= int64(crypto.MinChunks)*int64(p.MaxChunkSize) {
		base := int(dataSize / crypto.MinChunks)
		sizes = make([]int, crypto.MinChunks)
		for i := range sizes {
			sizes[i] = base
		}
		sizes[crypto.MinChunks-1] += int(dataSize % crypto.MinChunks)

		// The remainder may push the last chunk past MaxChunkSize when
		// dataSize sits just under MinChunks*MaxChunkSize. Shift the
		// excess one byte at a time onto the earlier chunks.
		for i := 0; sizes[crypto.MinChunks-1] > p.MaxChunkSize; i++ {
			sizes[i]++
			sizes[crypto.MinChunks-1]--
		}
	} else {
		full := int(dataSize / int64(p.MaxChunkSize))
		rest := int(dataSize % int64(p.MaxChunkSize))
		sizes = make([]int, 0, full+1)
		for i := 0; i < full; i++ {
			sizes = append(sizes, p.MaxChunkSize)
		}
		if rest > 0 {
			sizes = append(sizes, rest)
		}
	}

	tail := sizes[len(sizes)-1]
	inlineTail := p.MaxIncludableChunkSize > 0 && tail <= p.MaxIncludableChunkSize
	return ChunkPlan{Sizes: sizes, InlineTail: inlineTail}, nil
}
