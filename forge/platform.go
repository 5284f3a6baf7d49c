package forge

import (
	"bytes"

	"github.com/forgepkg/forge/digest"
)

// Platform is an ordered stack of layer-or-platform digests forming an
// environment, lowest-precedence first: when two stacked layers both
// provide the same path, the one later in Layers wins.
type Platform struct {
	Layers []digest.Digest
}

func (p Platform) Kind() Kind { return KindPlatform }

func (p Platform) Encode() []byte {
	var buf bytes.Buffer
	writeUvarint(&buf, uint64(len(p.Layers)))
	for _, d := range p.Layers {
		writeDigest(&buf, d)
	}
	return buf.Bytes()
}

func decodePlatform(body []byte) (Object, error) {
	r := newByteReader(body)
	n, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	layers := make([]digest.Digest, 0, n)
	for i := uint64(0); i < n; i++ {
		d, err := r.readDigest()
		if err != nil {
			return nil, err
		}
		layers = append(layers, d)
	}
	if err := r.requireEOF(); err != nil {
		return nil, err
	}
	return Platform{Layers: layers}, nil
}
