package render

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/forgepkg/forge/forge"
	"github.com/forgepkg/forge/graph"
	"github.com/forgepkg/forge/graph/cache"
	"github.com/forgepkg/forge/storagedriver/filesystem"
)

func newTestStore(t *testing.T) (*graph.Store, string) {
	t.Helper()
	root, err := os.MkdirTemp("", "forge-render-store")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(root) })

	driver := filesystem.New(root)
	store := graph.New(driver, func(k cache.Kind) cache.Provider { return cache.NewMemory(16) })
	return store, root
}

func commitFile(t *testing.T, store *graph.Store, content string) forge.Entry {
	t.Helper()
	blob, err := store.CommitBlob(bytes.NewReader([]byte(content)), "upload-"+content)
	if err != nil {
		t.Fatal(err)
	}
	return forge.Entry{Kind: forge.EntryBlob, Mode: 0o644, Size: blob.Size, Digest: blob.PayloadDigest}
}

func TestRenderCopyMode(t *testing.T) {
	store, _ := newTestStore(t)

	hello := commitFile(t, store, "hello")
	world := commitFile(t, store, "world")

	root := forge.Entry{
		Kind: forge.EntryTree,
		Mode: 0o755,
		Children: []forge.NamedEntry{
			{Name: "hello.txt", Entry: hello},
			{Name: "sub", Entry: forge.Entry{
				Kind: forge.EntryTree,
				Mode: 0o755,
				Children: []forge.NamedEntry{
					{Name: "world.txt", Entry: world},
				},
			}},
		},
	}
	manifest, err := forge.NewManifest(root)
	if err != nil {
		t.Fatal(err)
	}

	target, err := os.MkdirTemp("", "forge-render-target")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(target)

	r := New(store, filepath.Join(target, ".proxy-store"))
	if err := r.Render(context.Background(), manifest, target, Copy); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(filepath.Join(target, "hello.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("hello.txt = %q", got)
	}

	got, err = os.ReadFile(filepath.Join(target, "sub", "world.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "world" {
		t.Fatalf("sub/world.txt = %q", got)
	}
}

func TestRenderHardLinkNoProxy(t *testing.T) {
	store, _ := newTestStore(t)
	hello := commitFile(t, store, "hardlinked")

	root := forge.Entry{
		Kind: forge.EntryTree,
		Mode: 0o755,
		Children: []forge.NamedEntry{
			{Name: "f.txt", Entry: hello},
		},
	}
	manifest, err := forge.NewManifest(root)
	if err != nil {
		t.Fatal(err)
	}

	target, err := os.MkdirTemp("", "forge-render-target")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(target)

	r := New(store, filepath.Join(target, ".proxy-store"))
	if err := r.Render(context.Background(), manifest, target, HardLinkNoProxy); err != nil {
		t.Fatal(err)
	}

	fi, err := os.Stat(filepath.Join(target, "f.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode()&fs.ModeType != 0 {
		t.Fatalf("expected regular file, got mode %v", fi.Mode())
	}
}
