package forge

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/forgepkg/forge/digest"
)

// The helpers below implement the small TLV-ish binary encoding every
// Object variant uses: unsigned varints for lengths and counts, and
// length-prefixed bytes for strings and digests. Nothing here is
// self-describing beyond that -- the caller already knows the shape from
// the Kind byte, the same way distribution treats a manifest's MediaType
// as the key that tells a reader how to parse what follows.

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
		return 0, fmt.Errorf("forge: reading varint: %w", err)
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
		return nil, fmt.Errorf("forge: reading %d bytes: %w", n, err)
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

func (r *byteReader) requireEOF() error {
	if r.Len() != 0 {
		return fmt.Errorf("forge: %d trailing bytes after decode", r.Len())
	}
	return nil
}
