package forge

import (
	"fmt"

	"github.com/forgepkg/forge/digest"
)

// Manifest is a rooted Entry tree together with a cache mapping every
// subtree's digest to its Tree object. The invariant every constructor
// here maintains: TreeCache contains exactly the transitive set of Tree
// digests reachable from Root, no more and no less.
type Manifest struct {
	Root      Entry
	TreeCache map[digest.Digest]Tree
}

// NewManifest walks root's Children to build the tree cache, computing
// each subtree's Tree object and digest as it goes. root must itself be
// an EntryTree; its own digest is assigned as a side effect of the walk,
// not required to be set by the caller.
func NewManifest(root Entry) (Manifest, error) {
	if root.Kind != EntryTree {
		return Manifest{}, fmt.Errorf("forge: manifest root must be a tree, got %s", root.Kind)
	}
	cache := make(map[digest.Digest]Tree)
	resolved, err := resolveTree(root, cache)
	if err != nil {
		return Manifest{}, err
	}
	return Manifest{Root: resolved, TreeCache: cache}, nil
}

// resolveTree recursively assigns digests to e and its descendants,
// populating cache with every Tree object discovered along the way, and
// returns e with Digest filled in.
func resolveTree(e Entry, cache map[digest.Digest]Tree) (Entry, error) {
	if e.Kind != EntryTree {
		return e, nil
	}
	children := make([]NamedEntry, len(e.Children))
	treeChildren := make([]TreeChild, len(e.Children))
	for i, c := range e.Children {
		resolved, err := resolveTree(c.Entry, cache)
		if err != nil {
			return Entry{}, err
		}
		children[i] = NamedEntry{Name: c.Name, Entry: resolved}
		treeChildren[i] = TreeChild{
			Name:   c.Name,
			Mode:   resolved.Mode,
			Kind:   resolved.Kind,
			Digest: resolved.Digest,
		}
	}
	tree := Tree{Children: treeChildren}
	d := Digest(tree)
	cache[d] = tree
	e.Children = children
	e.Digest = d
	return e, nil
}

// Validate re-derives the tree cache from Root and confirms it matches
// TreeCache exactly, catching a manifest whose cache has drifted from its
// tree (stale entries left behind, or entries missing after a partial
// rebuild).
func (m Manifest) Validate() error {
	rebuilt := make(map[digest.Digest]Tree)
	if _, err := resolveTree(m.Root, rebuilt); err != nil {
		return err
	}
	if len(rebuilt) != len(m.TreeCache) {
		return fmt.Errorf("forge: tree cache has %d entries, want %d", len(m.TreeCache), len(rebuilt))
	}
	for d := range rebuilt {
		if _, ok := m.TreeCache[d]; !ok {
			return fmt.Errorf("forge: tree cache missing entry for %s", d)
		}
	}
	return nil
}

// Object returns the graph-level ManifestObject pointing at Root's
// digest, suitable for writing to the object graph.
func (m Manifest) Object() ManifestObject {
	return ManifestObject{Root: m.Root.Digest}
}
