package graph

import (
	"bytes"
	"testing"

	"github.com/forgepkg/forge/digest"
	"github.com/forgepkg/forge/forge"
	"github.com/forgepkg/forge/forgeerr"
	"github.com/forgepkg/forge/graph/cache"
	"github.com/forgepkg/forge/storagedriver/inmemory"
)

func newTestStore() *Store {
	return New(inmemory.New(), func(k cache.Kind) cache.Provider { return cache.NewMemory(64) })
}

func TestWriteObjectThenReadObject(t *testing.T) {
	s := newTestStore()
	blob := forge.Blob{PayloadDigest: digest.FromBytes([]byte("hello")), Size: 5}

	d, err := s.WriteObject(blob)
	if err != nil {
		t.Fatal(err)
	}

	has, err := s.HasObject(d)
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Fatalf("expected HasObject true after WriteObject")
	}

	got, err := s.ReadObject(d, cache.CacheOk)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind() != forge.KindBlob {
		t.Fatalf("ReadObject kind = %v", got.Kind())
	}
}

func TestWriteObjectIsIdempotent(t *testing.T) {
	s := newTestStore()
	blob := forge.Blob{PayloadDigest: digest.FromBytes([]byte("x")), Size: 1}

	d1, err := s.WriteObject(blob)
	if err != nil {
		t.Fatal(err)
	}
	d2, err := s.WriteObject(blob)
	if err != nil {
		t.Fatal(err)
	}
	if d1 != d2 {
		t.Fatalf("digest changed across idempotent writes: %s != %s", d1, d2)
	}
}

func TestReadObjectUnknownDigest(t *testing.T) {
	s := newTestStore()
	_, err := s.ReadObject(digest.FromBytes([]byte("nope")), cache.CacheOk)
	if !forgeerr.Is(err, forgeerr.UnknownObject) {
		t.Fatalf("expected UnknownObject, got %v", err)
	}
}

func TestCommitBlobHashesWhileStreaming(t *testing.T) {
	s := newTestStore()
	content := []byte("streamed payload content")

	blob, err := s.CommitBlob(bytes.NewReader(content), "upload-1")
	if err != nil {
		t.Fatal(err)
	}
	if blob.Size != uint64(len(content)) {
		t.Fatalf("CommitBlob size = %d, want %d", blob.Size, len(content))
	}
	if blob.PayloadDigest != digest.FromBytes(content) {
		t.Fatalf("CommitBlob digest = %s, want %s", blob.PayloadDigest, digest.FromBytes(content))
	}

	has, err := s.HasPayload(blob.PayloadDigest)
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Fatalf("expected payload present after CommitBlob")
	}

	rc, err := s.OpenPayload(blob.PayloadDigest)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		t.Fatal(err)
	}
	if buf.String() != string(content) {
		t.Fatalf("OpenPayload content = %q, want %q", buf.String(), content)
	}
}

func TestCommitBlobDeduplicatesIdenticalContent(t *testing.T) {
	s := newTestStore()
	content := []byte("same content twice")

	b1, err := s.CommitBlob(bytes.NewReader(content), "up-1")
	if err != nil {
		t.Fatal(err)
	}
	b2, err := s.CommitBlob(bytes.NewReader(content), "up-2")
	if err != nil {
		t.Fatal(err)
	}
	if b1.PayloadDigest != b2.PayloadDigest {
		t.Fatalf("expected identical payload digests, got %s and %s", b1.PayloadDigest, b2.PayloadDigest)
	}
}

func TestFindDigestsVisitsEveryWrittenObject(t *testing.T) {
	s := newTestStore()
	written := map[digest.Digest]bool{}
	for _, content := range []string{"a", "b", "c"} {
		d, err := s.WriteObject(forge.Blob{PayloadDigest: digest.FromBytes([]byte(content)), Size: 1})
		if err != nil {
			t.Fatal(err)
		}
		written[d] = true
	}

	found := map[digest.Digest]bool{}
	if err := s.FindDigests(func(d digest.Digest) error {
		found[d] = true
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	for d := range written {
		if !found[d] {
			t.Fatalf("FindDigests missed written object %s", d)
		}
	}
}

func TestCloneSharesCaches(t *testing.T) {
	s := newTestStore()
	blob := forge.Blob{PayloadDigest: digest.FromBytes([]byte("clone-test")), Size: 1}
	d, err := s.WriteObject(blob)
	if err != nil {
		t.Fatal(err)
	}

	clone := s.Clone()
	if _, ok := clone.caches.Get(cache.KindObjectBytes, cache.CacheOk, d.String()); !ok {
		t.Fatalf("expected clone to see the original's cached object")
	}
}
