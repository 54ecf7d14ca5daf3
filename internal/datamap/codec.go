package datamap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/FairForge/selfcrypt/internal/crypto"
)

// codecVersion tags the wire format. Bump only with a reader for the old
// version in place.
const codecVersion byte = 0x01

// Marshal serialises m into the stable, length-prefixed binary form:
// version byte, u64 size, u16-prefixed content, u32 self-encryption type,
// u32 compression type, u32 chunk count, then per chunk the raw 64-byte
// pre-hash, u64 pre-size, u8-prefixed hash, u64 size and u16-prefixed
// content. Integers are big-endian.
func Marshal(m *DataMap) ([]byte, error) {
	if len(m.Content) > math.MaxUint16 {
		return nil, fmt.Errorf("inlined content too large to serialise: %d bytes", len(m.Content))
	}

	var buf bytes.Buffer
	buf.WriteByte(codecVersion)
	writeU64(&buf, m.Size)
	writeU16Bytes(&buf, m.Content)
	writeU32(&buf, uint32(m.SelfEncryptionType))
	writeU32(&buf, uint32(m.CompressionType))
	writeU32(&buf, uint32(len(m.Chunks)))

	for i := range m.Chunks {
		c := &m.Chunks[i]
		if len(c.PreHash) != crypto.HashSize {
			return nil, fmt.Errorf("chunk %d: pre-hash must be %d bytes", i, crypto.HashSize)
		}
		if len(c.Hash) > math.MaxUint8 {
			return nil, fmt.Errorf("chunk %d: hash too large to serialise", i)
		}
		if len(c.Content) > math.MaxUint16 {
			return nil, fmt.Errorf("chunk %d: inlined content too large to serialise", i)
		}
		buf.Write(c.PreHash)
		writeU64(&buf, c.PreSize)
		buf.WriteByte(byte(len(c.Hash)))
		buf.Write(c.Hash)
		writeU64(&buf, c.Size)
		writeU16Bytes(&buf, c.Content)
	}
	return buf.Bytes(), nil
}

// Unmarshal parses the form written by Marshal. The round trip is exact on
// every field.
func Unmarshal(data []byte) (*DataMap, error) {
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != codecVersion {
		return nil, fmt.Errorf("unsupported data map version %#x", version)
	}

	m := &DataMap{}
	if m.Size, err = readU64(r); err != nil {
		return nil, fmt.Errorf("read size: %w", err)
	}
	if m.Content, err = readU16Bytes(r); err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	set, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("read self-encryption type: %w", err)
	}
	m.SelfEncryptionType = crypto.SelfEncryptionType(set)
	ct, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("read compression type: %w", err)
	}
	m.CompressionType = crypto.CompressionType(ct)

	count, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("read chunk count: %w", err)
	}
	if count > 0 {
		m.Chunks = make([]ChunkDetails, 0, count)
	}
	for i := uint32(0); i < count; i++ {
		var c ChunkDetails
		c.PreHash = make([]byte, crypto.HashSize)
		if _, err := io.ReadFull(r, c.PreHash); err != nil {
			return nil, fmt.Errorf("chunk %d: read pre-hash: %w", i, err)
		}
		if c.PreSize, err = readU64(r); err != nil {
			return nil, fmt.Errorf("chunk %d: read pre-size: %w", i, err)
		}
		hashLen, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("chunk %d: read hash length: %w", i, err)
		}
		if hashLen > 0 {
			c.Hash = make([]byte, hashLen)
			if _, err := io.ReadFull(r, c.Hash); err != nil {
				return nil, fmt.Errorf("chunk %d: read hash: %w", i, err)
			}
		}
		if c.Size, err = readU64(r); err != nil {
			return nil, fmt.Errorf("chunk %d: read size: %w", i, err)
		}
		if c.Content, err = readU16Bytes(r); err != nil {
			return nil, fmt.Errorf("chunk %d: read content: %w", i, err)
		}
		m.Chunks = append(m.Chunks, c)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("trailing %d bytes after data map", r.Len())
	}
	return m, nil
}

func writeU16Bytes(buf *bytes.Buffer, b []byte) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(len(b)))
	buf.Write(tmp[:])
	buf.Write(b)
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}

func readU16Bytes(r *bytes.Reader) ([]byte, error) {
	var tmp [2]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(tmp[:])
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func readU32(r *bytes.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(tmp[:]), nil
}

func readU64(r *bytes.Reader) (uint64, error) {
	var tmp [8]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(tmp[:]), nil
}
