package forge

import (
	"io/fs"

	"github.com/forgepkg/forge/digest"
)

// EntryKind discriminates the three shapes a logical file tree node can
// take.
type EntryKind byte

const (
	EntryTree EntryKind = iota
	EntryBlob
	// EntryMask marks a deletion overlay in a layered manifest: the name
	// exists in a lower layer and this entry erases it.
	EntryMask
)

func (k EntryKind) String() string {
	switch k {
	case EntryTree:
		return "tree"
	case EntryBlob:
		return "blob"
	case EntryMask:
		return "mask"
	default:
		return "unknown"
	}
}

// Entry is a node in a logical file tree: a Blob's referenced digest is
// its payload digest, a Tree's is its child Tree object's digest, and a
// Mask carries no digest at all. Children is populated only for Kind ==
// EntryTree and is ordered the way the tree was walked, so two Trees with
// the same members in the same order always encode identically.
type Entry struct {
	Kind     EntryKind
	Mode     fs.FileMode
	Size     uint64
	Digest   digest.Digest
	Children []NamedEntry
}

// NamedEntry pairs a child Entry with the name it appears under in its
// parent Tree.
type NamedEntry struct {
	Name  string
	Entry Entry
}

// ChildByName returns the child entry registered under name and whether it
// was found. Children are rarely more than a few dozen wide in practice,
// so a linear scan beats maintaining a parallel index.
func (e Entry) ChildByName(name string) (Entry, bool) {
	for _, c := range e.Children {
		if c.Name == name {
			return c.Entry, true
		}
	}
	return Entry{}, false
}
