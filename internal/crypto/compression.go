package crypto

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// CompressionSampleSize bounds the prefix fed to the compressibility probe.
const CompressionSampleSize = 4096

// Compress gzips data. Chunks of one data map are either all compressed or
// none, so the caller decides once per stream.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress gunzips data.
func Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer func() { _ = r.Close() }()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gunzip: %w", err)
	}
	return out, nil
}

// Compressible probes whether sample is worth compressing: it gzips at most
// CompressionSampleSize bytes of it and reports true iff the result is
// smaller than the input. An empty sample is never compressible.
func Compressible(sample []byte) bool {
	if len(sample) == 0 {
		return false
	}
	if len(sample) > CompressionSampleSize {
		sample = sample[:CompressionSampleSize]
	}
	compressed, err := Compress(sample)
	if err != nil {
		return false
	}
	return len(compressed) < len(sample)
}

// compressedExtensions are file suffixes of formats that are already
// compressed. Matching is done on the lowercased name, so "test.JPG" and
// "test.txt.rar" both match while "test.jpg.txt" does not.
var compressedExtensions = []string{
	".7z", ".ace", ".arj", ".avi", ".bz2", ".cab", ".flac", ".gif", ".gz",
	".jpeg", ".jpg", ".lz", ".lzma", ".mkv", ".mov", ".mp3", ".mp4", ".mpeg",
	".mpg", ".ogg", ".png", ".rar", ".tgz", ".webm", ".webp", ".wma", ".wmv",
	".xz", ".zip", ".zst",
}

// IsCompressedExtension reports whether name ends in a known
// already-compressed suffix. Callers use it as the hint that lets the
// encryptor skip the compressibility probe.
func IsCompressedExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range compressedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
