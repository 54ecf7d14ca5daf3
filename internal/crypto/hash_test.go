package crypto

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestHashBytes_KnownVector(t *testing.T) {
	// SHA-512("abc")
	want := "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a" +
		"2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f"
	got := HexName(HashBytes([]byte("abc")))
	if got != want {
		t.Errorf("HashBytes(abc) = %s, want %s", got, want)
	}
}

func TestHashBytes_Size(t *testing.T) {
	if len(HashBytes(nil)) != HashSize {
		t.Errorf("digest must be %d bytes", HashSize)
	}
}

func TestHashReader_MatchesHashBytes(t *testing.T) {
	data := []byte("self-encryption test payload")
	got, err := HashReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("HashReader failed: %v", err)
	}
	if !bytes.Equal(got, HashBytes(data)) {
		t.Error("HashReader digest differs from HashBytes")
	}
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload")
	data := []byte("file hash payload")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}
	if !bytes.Equal(got, HashBytes(data)) {
		t.Error("HashFile digest differs from HashBytes")
	}

	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
