package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// padXOR XORs a byte stream against a 144-byte pad repeated cyclically.
// The index survives across calls: feeding a chunk through in several
// slices produces the same bytes as one call over the whole chunk.
type padXOR struct {
	pad [PadSize]byte
	n   int
}

func newPadXOR(pad [PadSize]byte) *padXOR {
	return &padXOR{pad: pad}
}

// XORKeyStream writes src^pad into dst. dst and src may overlap fully.
func (p *padXOR) XORKeyStream(dst, src []byte) {
	for i := range src {
		dst[i] = src[i] ^ p.pad[p.n%PadSize]
		p.n++
	}
}

// SealChunk runs one plaintext chunk through the outbound pipeline:
// optional gzip, AES-256-CFB under (key, iv), then the repeated-pad XOR.
func SealChunk(plaintext []byte, keys ChunkKeys, compress bool) ([]byte, error) {
	data := plaintext
	if compress {
		var err error
		data, err = Compress(data)
		if err != nil {
			return nil, fmt.Errorf("compress chunk: %w", err)
		}
	}

	block, err := aes.NewCipher(keys.Key[:])
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	out := make([]byte, len(data))
	cipher.NewCFBEncrypter(block, keys.IV[:]).XORKeyStream(out, data)

	newPadXOR(keys.Pad).XORKeyStream(out, out)
	return out, nil
}

// OpenChunk reverses SealChunk: un-XOR, AES-CFB decrypt, then gunzip when
// the stream was compressed.
func OpenChunk(ciphertext []byte, keys ChunkKeys, compressed bool) ([]byte, error) {
	data := make([]byte, len(ciphertext))
	newPadXOR(keys.Pad).XORKeyStream(data, ciphertext)

	block, err := aes.NewCipher(keys.Key[:])
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	cipher.NewCFBDecrypter(block, keys.IV[:]).XORKeyStream(data, data)

	if compressed {
		data, err = Decompress(data)
		if err != nil {
			return nil, fmt.Errorf("decompress chunk: %w", err)
		}
	}
	return data, nil
}
