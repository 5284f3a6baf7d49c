// Package syncrepair implements the sync/repair engine (spec.md §4.F):
// walks a root reference and ensures every transitively reachable object
// and payload exists in a target store, optionally copying from a source
// store. Grounded on graph.Store.FindDigests's recursive walk for the
// traversal shape and original_source/crates/spfs/src/check.rs for the
// exact Missing/Present/Repaired classification and the processed_digests
// dedup-set discipline.
package syncrepair

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/forgepkg/forge/digest"
	"github.com/forgepkg/forge/forge"
	"github.com/forgepkg/forge/forgeerr"
	"github.com/forgepkg/forge/graph"
	"github.com/forgepkg/forge/graph/cache"
)

// Source is the read side an Engine repairs from: a local graph.Store
// handle, or an opaque HTTP-backed remote.Client speaking the same
// resolve/read/fetch operations (spec.md §4.F's "source store" need not
// be local). *graph.Store satisfies this directly.
type Source interface {
	ResolveTagOrDigest(ref string) (digest.Digest, error)
	ReadObject(d digest.Digest, policy cache.Policy) (forge.Object, error)
	HasPayload(d digest.Digest) (bool, error)
	OpenPayload(d digest.Digest) (io.ReadCloser, error)
}

// Status classifies one item visited by a walk.
type Status int

const (
	Missing Status = iota
	Present
	Repaired
)

func (s Status) String() string {
	switch s {
	case Missing:
		return "missing"
	case Present:
		return "present"
	case Repaired:
		return "repaired"
	default:
		return "unknown"
	}
}

// Kind distinguishes an object from a payload in a Result, since the two
// share a digest namespace but live in different parts of the store.
type Kind int

const (
	KindObject Kind = iota
	KindPayload
)

// Result is reported once per digest+kind visited.
type Result struct {
	Digest digest.Digest
	Kind   Kind
	Status Status
}

const (
	defaultTagSemaphore    = 4
	defaultObjectSemaphore = 32
)

// Engine walks a reference against a target store, optionally repairing
// from a source store.
type Engine struct {
	target *graph.Store
	source Source // nil: check-only, no repair

	tagSem    *semaphore.Weighted
	objectSem *semaphore.Weighted

	mu        sync.Mutex
	processed map[digest.Digest]struct{}
}

// New builds an Engine. source may be nil, in which case Walk only
// classifies Missing/Present and never Repairs. Passing a remote.Client
// as source lets Walk repair a local target from a remote store over
// the read-only HTTP surface instead of another local graph.Store.
func New(target *graph.Store, source Source) *Engine {
	return &Engine{
		target:    target,
		source:    source,
		tagSem:    semaphore.NewWeighted(defaultTagSemaphore),
		objectSem: semaphore.NewWeighted(defaultObjectSemaphore),
		processed: make(map[digest.Digest]struct{}),
	}
}

// alreadyProcessed reports whether d has been visited this walk, marking
// it visited as a side effect (spec.md §4.F "Duplicate work is
// suppressed by a shared processed_digests set").
func (e *Engine) alreadyProcessed(d digest.Digest) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.processed[d]; ok {
		return true
	}
	e.processed[d] = struct{}{}
	return false
}

// Walk resolves ref (a tag name or a digest) against the target store
// and recursively syncs everything it reaches, reporting one Result per
// item via fn. fn is called concurrently; callers that need ordering
// must serialize inside fn themselves.
func (e *Engine) Walk(ctx context.Context, ref string, fn func(Result) error) error {
	if err := e.tagSem.Acquire(ctx, 1); err != nil {
		return err
	}
	d, err := e.target.ResolveTagOrDigest(ref)
	e.tagSem.Release(1)
	if err != nil {
		if e.source == nil || !forgeerr.Is(err, forgeerr.UnknownReference) {
			return err
		}
		d, err = e.source.ResolveTagOrDigest(ref)
		if err != nil {
			return err
		}
	}
	return e.walkObject(ctx, d, fn)
}

func (e *Engine) walkObject(ctx context.Context, d digest.Digest, fn func(Result) error) error {
	if e.alreadyProcessed(d) {
		return nil
	}
	if err := e.objectSem.Acquire(ctx, 1); err != nil {
		return err
	}
	status, obj, err := e.syncObject(d)
	e.objectSem.Release(1)
	if err != nil {
		return err
	}
	if err := fn(Result{Digest: d, Kind: KindObject, Status: status}); err != nil {
		return err
	}

	objectChildren, payloadChildren := childDigests(obj)

	g, gctx := errgroup.WithContext(ctx)
	for _, child := range objectChildren {
		child := child
		g.Go(func() error { return e.walkObject(gctx, child, fn) })
	}
	for _, p := range payloadChildren {
		p := p
		g.Go(func() error { return e.walkPayload(gctx, p, fn) })
	}
	return g.Wait()
}

// syncObject reports whether d is Present in the target, or Repairs it
// by copying from source (when configured) before reporting Repaired.
// Every copy validates the digest on the receiving side by simply
// re-deriving it from WriteObject's own re-encode, since WriteObject
// always recomputes forge.Digest(o) rather than trusting the caller.
func (e *Engine) syncObject(d digest.Digest) (Status, forge.Object, error) {
	if obj, err := e.target.ReadObject(d, cache.CacheOk); err == nil {
		return Present, obj, nil
	} else if !forgeerr.Is(err, forgeerr.UnknownObject) {
		return Missing, nil, err
	}

	if e.source == nil {
		return Missing, nil, forgeerr.UnknownObjectError(d.String())
	}
	obj, err := e.source.ReadObject(d, cache.CacheOk)
	if err != nil {
		return Missing, nil, err
	}
	written, err := e.target.WriteObject(obj)
	if err != nil {
		return Missing, nil, err
	}
	if written != d {
		return Missing, nil, forgeerr.Fatalf("syncrepair: object %s from source re-encodes to %s", d, written)
	}
	return Repaired, obj, nil
}

func (e *Engine) walkPayload(ctx context.Context, d digest.Digest, fn func(Result) error) error {
	if e.alreadyProcessed(payloadKey(d)) {
		return nil
	}
	if err := e.objectSem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.objectSem.Release(1)

	status, err := e.syncPayload(d)
	if err != nil {
		return err
	}
	return fn(Result{Digest: d, Kind: KindPayload, Status: status})
}

// payloadKey distinguishes a payload digest from an object digest of the
// same value in the shared processed-set, since spec.md's unsafe
// invariant allows a payload to be synced independently of its blob
// object.
func payloadKey(d digest.Digest) digest.Digest { return digest.Digest("payload:" + d.String()) }

func (e *Engine) syncPayload(d digest.Digest) (Status, error) {
	if ok, err := e.target.HasPayload(d); err != nil {
		return Missing, err
	} else if ok {
		return Present, nil
	}

	if e.source == nil {
		return Missing, nil
	}
	rc, err := e.source.OpenPayload(d)
	if err != nil {
		return Missing, nil
	}
	defer rc.Close()

	if _, err := e.target.CommitBlob(rc, "syncrepair-"+d.String()); err != nil {
		return Missing, err
	}
	return Repaired, nil
}

// childDigests returns the digests obj transitively references one level
// down, split by whether the child is itself an object (recurse into
// walkObject) or a bare payload (spec.md §4.F "for blobs, the payload").
// A Tree's Blob-kind children store the payload digest directly rather
// than an intervening Blob object digest (forge.TreeChild's Digest field
// for a Blob child is the payload digest, not an object digest), so those
// go straight to payloadChildren.
func childDigests(obj forge.Object) (objectChildren, payloadChildren []digest.Digest) {
	switch o := obj.(type) {
	case forge.Blob:
		return nil, []digest.Digest{o.PayloadDigest}
	case forge.Tree:
		for _, c := range o.Children {
			switch c.Kind {
			case forge.EntryTree:
				objectChildren = append(objectChildren, c.Digest)
			case forge.EntryBlob:
				payloadChildren = append(payloadChildren, c.Digest)
			}
		}
		return objectChildren, payloadChildren
	case forge.ManifestObject:
		return []digest.Digest{o.Root}, nil
	case forge.Layer:
		return []digest.Digest{o.ManifestDigest}, nil
	case forge.Platform:
		return append([]digest.Digest(nil), o.Layers...), nil
	default:
		return nil, nil
	}
}
