package remote

import (
	"bytes"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/forgepkg/forge/forge"
	"github.com/forgepkg/forge/graph"
	"github.com/forgepkg/forge/graph/cache"
	"github.com/forgepkg/forge/storagedriver/filesystem"
)

func newTestStore(t *testing.T) *graph.Store {
	t.Helper()
	root, err := os.MkdirTemp("", "forge-remote-store")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(root) })
	driver := filesystem.New(root)
	return graph.New(driver, func(k cache.Kind) cache.Provider { return cache.NewMemory(16) })
}

func TestClientRoundTripsObjectPayloadAndTag(t *testing.T) {
	store := newTestStore(t)

	blob, err := store.CommitBlob(bytes.NewReader([]byte("remote payload")), "upload-1")
	if err != nil {
		t.Fatal(err)
	}
	tree := forge.Tree{Children: nil}
	treeDigest, err := store.WriteObject(tree)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.PushTag("mytag", treeDigest, "tester", "initial", time.Unix(0, 0)); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(NewRouter(store))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())

	d, err := client.ResolveTagOrDigest("mytag")
	if err != nil {
		t.Fatalf("ResolveTagOrDigest: %v", err)
	}
	if d != treeDigest {
		t.Fatalf("resolved %s, want %s", d, treeDigest)
	}

	obj, err := client.ReadObject(treeDigest, cache.CacheOk)
	if err != nil {
		t.Fatalf("ReadObject: %v", err)
	}
	if _, ok := obj.(forge.Tree); !ok {
		t.Fatalf("expected forge.Tree, got %T", obj)
	}

	ok, err := client.HasPayload(blob.PayloadDigest)
	if err != nil {
		t.Fatalf("HasPayload: %v", err)
	}
	if !ok {
		t.Fatalf("expected payload %s to be present", blob.PayloadDigest)
	}

	rc, err := client.OpenPayload(blob.PayloadDigest)
	if err != nil {
		t.Fatalf("OpenPayload: %v", err)
	}
	defer rc.Close()
	var buf bytes.Buffer
	buf.ReadFrom(rc)
	if buf.String() != "remote payload" {
		t.Fatalf("payload content = %q", buf.String())
	}
}

func TestClientReadObjectNotFound(t *testing.T) {
	store := newTestStore(t)
	srv := httptest.NewServer(NewRouter(store))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	if _, err := client.ReadObject("sha256:deadbeef", cache.CacheOk); err == nil {
		t.Fatal("expected an error for an unknown digest")
	}
}
