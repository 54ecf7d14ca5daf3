package crypto

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// HashSize is the length in bytes of every pre- and post-hash.
const HashSize = sha512.Size

// HashBytes returns the SHA-512 digest of b.
func HashBytes(b []byte) []byte {
	sum := sha512.Sum512(b)
	return sum[:]
}

// HashReader returns the SHA-512 digest of everything read from r.
func HashReader(r io.Reader) ([]byte, error) {
	h := sha512.New()
	if _, err := io.Copy(h, r); err != nil {
		return nil, fmt.Errorf("hash stream: %w", err)
	}
	return h.Sum(nil), nil
}

// HashFile returns the SHA-512 digest of the file at path.
func HashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return HashReader(f)
}

// HexName returns the lowercase hex encoding of hash. It is the chunk's
// address in every store, and its file name in the on-disk backend.
func HexName(hash []byte) string {
	return hex.EncodeToString(hash)
}
