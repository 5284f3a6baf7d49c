package forge

import (
	"bytes"
	"io/fs"

	"github.com/forgepkg/forge/digest"
)

// TreeChild is one ordered member of a Tree object: a name, its POSIX mode
// bits, whether it is itself a Tree/Blob/Mask, and the digest of the
// object (or payload, for a Blob) it refers to.
type TreeChild struct {
	Name   string
	Mode   fs.FileMode
	Kind   EntryKind
	Digest digest.Digest
}

// Tree is an object referencing an ordered set of named children -- the
// graph-level counterpart to an Entry's Children, but storing only
// digests rather than nested Entry values.
type Tree struct {
	Children []TreeChild
}

func (t Tree) Kind() Kind { return KindTree }

func (t Tree) Encode() []byte {
	var buf bytes.Buffer
	writeUvarint(&buf, uint64(len(t.Children)))
	for _, c := range t.Children {
		writeString(&buf, c.Name)
		writeUvarint(&buf, uint64(c.Mode))
		buf.WriteByte(byte(c.Kind))
		writeDigest(&buf, c.Digest)
	}
	return buf.Bytes()
}

func decodeTree(body []byte) (Object, error) {
	r := newByteReader(body)
	n, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	children := make([]TreeChild, 0, n)
	for i := uint64(0); i < n; i++ {
		name, err := r.readString()
		if err != nil {
			return nil, err
		}
		mode, err := r.readUvarint()
		if err != nil {
			return nil, err
		}
		kindByte, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		d, err := r.readDigest()
		if err != nil {
			return nil, err
		}
		children = append(children, TreeChild{
			Name:   name,
			Mode:   fs.FileMode(mode),
			Kind:   EntryKind(kindByte),
			Digest: d,
		})
	}
	if err := r.requireEOF(); err != nil {
		return nil, err
	}
	return Tree{Children: children}, nil
}

// ChildByName returns the named child and whether it was present.
func (t Tree) ChildByName(name string) (TreeChild, bool) {
	for _, c := range t.Children {
		if c.Name == name {
			return c, true
		}
	}
	return TreeChild{}, false
}
