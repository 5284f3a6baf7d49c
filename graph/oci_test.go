package graph

import (
	"bytes"
	"testing"

	"github.com/forgepkg/forge/forge"
)

func TestExportImportOCIManifestRoundTrip(t *testing.T) {
	s := newTestStore()

	blobA, err := s.CommitBlob(bytes.NewReader([]byte("file a")), "u1")
	if err != nil {
		t.Fatal(err)
	}
	blobB, err := s.CommitBlob(bytes.NewReader([]byte("file b, longer content")), "u1")
	if err != nil {
		t.Fatal(err)
	}

	subtree := forge.Tree{Children: []forge.TreeChild{
		{Name: "b.txt", Kind: forge.EntryBlob, Digest: blobB.PayloadDigest, Mode: 0o644},
	}}
	subtreeDigest, err := s.WriteObject(subtree)
	if err != nil {
		t.Fatal(err)
	}

	root := forge.Tree{Children: []forge.TreeChild{
		{Name: "a.txt", Kind: forge.EntryBlob, Digest: blobA.PayloadDigest, Mode: 0o644},
		{Name: "sub", Kind: forge.EntryTree, Digest: subtreeDigest, Mode: 0o755},
	}}
	rootDigest, err := s.WriteObject(root)
	if err != nil {
		t.Fatal(err)
	}

	manifest, err := s.ExportOCIManifest(rootDigest)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if len(manifest.Layers) != 2 {
		t.Fatalf("expected 2 layer descriptors (a.txt + b.txt payloads), got %d", len(manifest.Layers))
	}

	reimportedRoot, err := s.ImportOCIManifest(manifest)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if reimportedRoot != rootDigest {
		t.Fatalf("reimported root digest %s != original %s", reimportedRoot, rootDigest)
	}
}
