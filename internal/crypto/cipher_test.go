package crypto

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func randomKeys(t *testing.T) ChunkKeys {
	t.Helper()
	hashes := randomHashes(t, 3)
	k, err := DeriveKeys(hashes, 0)
	if err != nil {
		t.Fatalf("DeriveKeys failed: %v", err)
	}
	return k
}

func TestPadXOR_RollingIndexAcrossCalls(t *testing.T) {
	var pad [PadSize]byte
	if _, err := rand.Read(pad[:]); err != nil {
		t.Fatalf("rand: %v", err)
	}
	data := make([]byte, 1000)
	if _, err := rand.Read(data); err != nil {
		t.Fatalf("rand: %v", err)
	}

	whole := make([]byte, len(data))
	newPadXOR(pad).XORKeyStream(whole, data)

	// The same stream fed in odd-sized slices must XOR identically: the
	// pad index carries across calls instead of resetting.
	pieces := make([]byte, len(data))
	x := newPadXOR(pad)
	for _, split := range []int{1, 7, 143, 144, 145, 400, 1000} {
		prev := 0
		if split < len(data) {
			x.XORKeyStream(pieces[prev:split], data[prev:split])
			x.XORKeyStream(pieces[split:], data[split:])
		} else {
			x.XORKeyStream(pieces, data)
		}
		if !bytes.Equal(whole, pieces) {
			t.Fatalf("split at %d produced a different stream", split)
		}
		x = newPadXOR(pad)
	}
}

func TestPadXOR_Involution(t *testing.T) {
	var pad [PadSize]byte
	if _, err := rand.Read(pad[:]); err != nil {
		t.Fatalf("rand: %v", err)
	}
	data := make([]byte, 500)
	if _, err := rand.Read(data); err != nil {
		t.Fatalf("rand: %v", err)
	}

	once := make([]byte, len(data))
	newPadXOR(pad).XORKeyStream(once, data)
	newPadXOR(pad).XORKeyStream(once, once)
	if !bytes.Equal(once, data) {
		t.Error("XORing twice with a fresh index must restore the input")
	}
}

func TestSealOpenChunk_RoundTrip(t *testing.T) {
	keys := randomKeys(t)
	plaintext := make([]byte, 3000)
	if _, err := rand.Read(plaintext); err != nil {
		t.Fatalf("rand: %v", err)
	}

	for _, compress := range []bool{false, true} {
		sealed, err := SealChunk(plaintext, keys, compress)
		if err != nil {
			t.Fatalf("SealChunk(compress=%v) failed: %v", compress, err)
		}
		if bytes.Equal(sealed, plaintext) {
			t.Error("ciphertext must differ from plaintext")
		}
		opened, err := OpenChunk(sealed, keys, compress)
		if err != nil {
			t.Fatalf("OpenChunk(compress=%v) failed: %v", compress, err)
		}
		if !bytes.Equal(opened, plaintext) {
			t.Errorf("round trip (compress=%v) corrupted the chunk", compress)
		}
	}
}

func TestSealChunk_Deterministic(t *testing.T) {
	keys := randomKeys(t)
	plaintext := []byte("the same plaintext must always seal identically")

	a, err := SealChunk(plaintext, keys, true)
	if err != nil {
		t.Fatalf("SealChunk failed: %v", err)
	}
	b, err := SealChunk(plaintext, keys, true)
	if err != nil {
		t.Fatalf("SealChunk failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("sealing is not deterministic")
	}
}

func TestOpenChunk_WrongKeys(t *testing.T) {
	keys := randomKeys(t)
	plaintext := make([]byte, 2048)
	if _, err := rand.Read(plaintext); err != nil {
		t.Fatalf("rand: %v", err)
	}
	sealed, err := SealChunk(plaintext, keys, false)
	if err != nil {
		t.Fatalf("SealChunk failed: %v", err)
	}

	wrong := randomKeys(t)
	opened, err := OpenChunk(sealed, wrong, false)
	if err == nil && bytes.Equal(opened, plaintext) {
		t.Error("wrong keys must not recover the plaintext")
	}
}
