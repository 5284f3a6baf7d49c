package forge

import (
	"bytes"

	"github.com/forgepkg/forge/digest"
)

// Layer is an object referencing one manifest -- the unit of composition
// a Platform stacks.
type Layer struct {
	ManifestDigest digest.Digest
}

func (l Layer) Kind() Kind { return KindLayer }

func (l Layer) Encode() []byte {
	var buf bytes.Buffer
	writeDigest(&buf, l.ManifestDigest)
	return buf.Bytes()
}

func decodeLayer(body []byte) (Object, error) {
	r := newByteReader(body)
	d, err := r.readDigest()
	if err != nil {
		return nil, err
	}
	if err := r.requireEOF(); err != nil {
		return nil, err
	}
	return Layer{ManifestDigest: d}, nil
}
