package forge

import (
	"testing"

	"github.com/forgepkg/forge/digest"
)

func TestNewManifestBuildsTreeCache(t *testing.T) {
	leaf := Entry{Kind: EntryBlob, Mode: 0o644, Size: 5, Digest: digest.FromBytes([]byte("hello"))}
	sub := Entry{Kind: EntryTree, Mode: 0o755, Children: []NamedEntry{{Name: "leaf.txt", Entry: leaf}}}
	root := Entry{Kind: EntryTree, Mode: 0o755, Children: []NamedEntry{{Name: "sub", Entry: sub}}}

	m, err := NewManifest(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	// Exactly two tree digests are reachable from the root: the root
	// itself and "sub".
	if len(m.TreeCache) != 2 {
		t.Fatalf("tree cache has %d entries, want 2", len(m.TreeCache))
	}
	if _, ok := m.TreeCache[m.Root.Digest]; !ok {
		t.Fatalf("tree cache missing the root's own digest")
	}
}

func TestNewManifestRejectsNonTreeRoot(t *testing.T) {
	_, err := NewManifest(Entry{Kind: EntryBlob})
	if err == nil {
		t.Fatalf("expected a non-tree root to be rejected")
	}
}

func TestManifestValidateCatchesStaleCache(t *testing.T) {
	root := Entry{Kind: EntryTree}
	m, err := NewManifest(root)
	if err != nil {
		t.Fatal(err)
	}
	m.TreeCache[digest.FromBytes([]byte("phantom"))] = Tree{}
	if err := m.Validate(); err == nil {
		t.Fatalf("expected a stale/extra cache entry to fail validation")
	}
}

func TestManifestObjectPointsAtRootDigest(t *testing.T) {
	root := Entry{Kind: EntryTree}
	m, err := NewManifest(root)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Object().Root; got != m.Root.Digest {
		t.Fatalf("Object().Root = %s, want %s", got, m.Root.Digest)
	}
}
