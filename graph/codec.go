package graph

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/forgepkg/forge/digest"
)

// Tag stream records use the same small TLV-ish encoding forge/codec.go
// uses for graph objects (unsigned varints for lengths, length-prefixed
// bytes for strings and digests), duplicated here rather than exported
// from forge since a tag stream isn't a forge.Object -- it never goes
// through the Kind-byte dispatch registry, it's read and written
// wholesale by this package alone.

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeUvarint(buf, uint64(len(b)))
	buf.Write(b)
}

func writeString(buf *bytes.Buffer, s string) {
	writeBytes(buf, []byte(s))
}

func writeDigest(buf *bytes.Buffer, d digest.Digest) {
	writeString(buf, string(d))
}

type byteReader struct {
	*bytes.Reader
}

func newByteReader(b []byte) *byteReader {
	return &byteReader{bytes.NewReader(b)}
}

func (r *byteReader) readUvarint() (uint64, error) {
	v, err := binary.ReadUvarint(r.Reader)
	if err != nil {
		return 0, fmt.Errorf("graph: reading varint: %w", err)
	}
	return v, nil
}

func (r *byteReader) readBytes() ([]byte, error) {
	n, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r.Reader, out); err != nil {
		return nil, fmt.Errorf("graph: reading %d bytes: %w", n, err)
	}
	return out, nil
}

func (r *byteReader) readString() (string, error) {
	b, err := r.readBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *byteReader) readDigest() (digest.Digest, error) {
	s, err := r.readString()
	if err != nil {
		return "", err
	}
	return digest.Digest(s), nil
}
