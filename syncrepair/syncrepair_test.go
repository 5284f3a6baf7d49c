package syncrepair

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/forgepkg/forge/forge"
	"github.com/forgepkg/forge/graph"
	"github.com/forgepkg/forge/graph/cache"
	"github.com/forgepkg/forge/storagedriver/inmemory"
)

func newStore() *graph.Store {
	return graph.New(inmemory.New(), func(k cache.Kind) cache.Provider { return cache.NewMemory(64) })
}

func TestWalkReportsPresentWhenAlreadySynced(t *testing.T) {
	target := newStore()
	blob, err := target.CommitBlob(bytes.NewReader([]byte("hi")), "u1")
	if err != nil {
		t.Fatal(err)
	}
	tree := forge.Tree{Children: []forge.TreeChild{{Name: "a", Kind: forge.EntryBlob, Digest: blob.PayloadDigest}}}
	d, err := target.WriteObject(tree)
	if err != nil {
		t.Fatal(err)
	}
	if err := target.PushTag("spk/pkg/foo/1.0.0/src", d, "alice", "", time.Unix(0, 0)); err != nil {
		t.Fatal(err)
	}

	e := New(target, nil)
	var results []Result
	if err := e.Walk(context.Background(), "spk/pkg/foo/1.0.0/src", func(r Result) error {
		results = append(results, r)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Status != Present {
			t.Fatalf("expected all Present, got %+v", r)
		}
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results (tree object + payload), got %d: %+v", len(results), results)
	}
}

func TestWalkRepairsFromSource(t *testing.T) {
	source := newStore()
	blob, err := source.CommitBlob(bytes.NewReader([]byte("payload")), "u1")
	if err != nil {
		t.Fatal(err)
	}
	tree := forge.Tree{Children: []forge.TreeChild{{Name: "a", Kind: forge.EntryBlob, Digest: blob.PayloadDigest}}}
	d, err := source.WriteObject(tree)
	if err != nil {
		t.Fatal(err)
	}

	target := newStore()
	e := New(target, source)
	var statuses []Status
	if err := e.Walk(context.Background(), d.String(), func(r Result) error {
		statuses = append(statuses, r.Status)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	for _, s := range statuses {
		if s != Repaired {
			t.Fatalf("expected all Repaired, got %v in %v", s, statuses)
		}
	}

	if ok, _ := target.HasObject(d); !ok {
		t.Fatalf("expected tree object copied into target")
	}
	if ok, _ := target.HasPayload(blob.PayloadDigest); !ok {
		t.Fatalf("expected payload copied into target")
	}
}
