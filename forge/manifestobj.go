package forge

import (
	"bytes"

	"github.com/forgepkg/forge/digest"
)

// ManifestObject is the graph-level Object variant wrapping a root Tree
// digest -- a thin pointer, distinct from Manifest (manifest.go), which
// additionally carries the resolved Entry tree and its tree cache for
// in-memory use.
type ManifestObject struct {
	Root digest.Digest
}

func (m ManifestObject) Kind() Kind { return KindManifest }

func (m ManifestObject) Encode() []byte {
	var buf bytes.Buffer
	writeDigest(&buf, m.Root)
	return buf.Bytes()
}

func decodeManifestObject(body []byte) (Object, error) {
	r := newByteReader(body)
	d, err := r.readDigest()
	if err != nil {
		return nil, err
	}
	if err := r.requireEOF(); err != nil {
		return nil, err
	}
	return ManifestObject{Root: d}, nil
}
