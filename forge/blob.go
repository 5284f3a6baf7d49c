package forge

import (
	"bytes"

	"github.com/forgepkg/forge/digest"
)

// Blob is a content-addressed object whose content is a single file
// payload referenced by digest; the payload itself lives in the object
// graph's separate payload substrate, not inlined into the object
// encoding.
type Blob struct {
	PayloadDigest digest.Digest
	Size          uint64
}

func (b Blob) Kind() Kind { return KindBlob }

func (b Blob) Encode() []byte {
	var buf bytes.Buffer
	writeDigest(&buf, b.PayloadDigest)
	writeUvarint(&buf, b.Size)
	return buf.Bytes()
}

func decodeBlob(body []byte) (Object, error) {
	r := newByteReader(body)
	d, err := r.readDigest()
	if err != nil {
		return nil, err
	}
	size, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	if err := r.requireEOF(); err != nil {
		return nil, err
	}
	return Blob{PayloadDigest: d, Size: size}, nil
}
