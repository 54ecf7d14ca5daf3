// Package crypto implements the convergent self-encryption primitives for
// selfcrypt: SHA-512 hashing, neighbour-derived key material, the
// gzip -> AES-256-CFB -> XOR-pad chunk pipeline and its inverse.
package crypto

import (
	"fmt"
)

// MinChunks is the smallest number of chunks a chunked data map may hold.
// The key derivation wraps around the chunk list, so fewer than three
// chunks would collapse the neighbour hashes onto the chunk itself.
const MinChunks = 3

// SelfEncryptionType tags the {compression, obfuscation, crypto} variant a
// data map was produced with. The value is a 32-bit bit-field.
type SelfEncryptionType uint32

// Bit-field layout of SelfEncryptionType.
const (
	CompressionMask SelfEncryptionType = 0x000F
	ObfuscationMask SelfEncryptionType = 0x00F0
	CryptoMask      SelfEncryptionType = 0x0F00

	CompressionBitNone SelfEncryptionType = 0x0000
	CompressionBitGzip SelfEncryptionType = 0x0001

	ObfuscationBitNone     SelfEncryptionType = 0x0000
	ObfuscationBitRepeated SelfEncryptionType = 0x0010

	CryptoBitNone   SelfEncryptionType = 0x0000
	CryptoBitAES256 SelfEncryptionType = 0x0100
)

// Obfuscate3AES256 is the production mode: gzip compression, repeated
// 144-byte pad obfuscation and AES-256-CFB encryption.
const Obfuscate3AES256 = CompressionBitGzip | ObfuscationBitRepeated | CryptoBitAES256

// Compression returns the compression bits of the tag.
func (t SelfEncryptionType) Compression() SelfEncryptionType { return t & CompressionMask }

// Obfuscation returns the obfuscation bits of the tag.
func (t SelfEncryptionType) Obfuscation() SelfEncryptionType { return t & ObfuscationMask }

// Crypto returns the cipher bits of the tag.
func (t SelfEncryptionType) Crypto() SelfEncryptionType { return t & CryptoMask }

// CompressionType records which compression was actually applied to the
// chunks of one data map. Compression is decided per stream, never per
// chunk.
type CompressionType uint32

const (
	CompressionNone CompressionType = 0
	CompressionGzip CompressionType = 1
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	default:
		return fmt.Sprintf("compression(%d)", uint32(c))
	}
}

// Params controls the chunk-size plan.
type Params struct {
	// MaxChunkSize is the upper bound on every chunk. Inputs larger than
	// MinChunks*MaxChunkSize are cut into chunks of exactly this size
	// except possibly the last; smaller inputs are split into MinChunks
	// near-equal chunks.
	MaxChunkSize int `yaml:"max_chunk_size"`

	// MaxIncludableChunkSize is the largest tail chunk that is inlined
	// into the data map instead of being stored as a blob. Zero disables
	// tail inlining.
	MaxIncludableChunkSize int `yaml:"max_includable_chunk_size"`

	// MaxIncludableDataSize is the largest whole input that is carried
	// inside the data map without chunking at all.
	MaxIncludableDataSize int `yaml:"max_includable_data_size"`
}

// DefaultParams returns the production parameter set: 256 KiB chunks,
// 256-byte includable tail, 1 KiB includable whole input.
func DefaultParams() Params {
	return Params{
		MaxChunkSize:           256 * 1024,
		MaxIncludableChunkSize: 256,
		MaxIncludableDataSize:  1024,
	}
}

// Validate checks the parameter set. A "small" tail chunk must be strictly
// smaller than a full chunk, and the includable-data range must sit below
// the chunked regime so the two never overlap.
func (p Params) Validate() error {
	if p.MaxChunkSize < 1 {
		return fmt.Errorf("max_chunk_size must be >= 1, got %d", p.MaxChunkSize)
	}
	if p.MaxIncludableChunkSize < 0 {
		return fmt.Errorf("max_includable_chunk_size must not be negative, got %d", p.MaxIncludableChunkSize)
	}
	if p.MaxIncludableChunkSize >= p.MaxChunkSize {
		return fmt.Errorf("max_includable_chunk_size (%d) must be strictly smaller than max_chunk_size (%d)",
			p.MaxIncludableChunkSize, p.MaxChunkSize)
	}
	if p.MaxIncludableDataSize < MinChunks-1 {
		return fmt.Errorf("max_includable_data_size (%d) must be >= %d", p.MaxIncludableDataSize, MinChunks-1)
	}
	if p.MaxIncludableDataSize >= MinChunks*p.MaxChunkSize {
		return fmt.Errorf("max_includable_data_size (%d) must be smaller than %d*max_chunk_size (%d)",
			p.MaxIncludableDataSize, MinChunks, MinChunks*p.MaxChunkSize)
	}
	return nil
}
