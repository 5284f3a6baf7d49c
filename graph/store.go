// Package graph implements the object graph store (spec.md §4.C): a
// content-addressed store of forge.Object records plus the separate
// payload bytes a Blob object points at, fronted by the small
// per-repository-handle caches in graph/cache.
package graph

import (
	"io"

	"github.com/forgepkg/forge/digest"
	"github.com/forgepkg/forge/forge"
	"github.com/forgepkg/forge/forgeerr"
	"github.com/forgepkg/forge/graph/cache"
	"github.com/forgepkg/forge/storagedriver"
)

// Store is a single repository handle over a StorageDriver. Clones
// (via Clone) of the same underlying address share a cache Set, so a
// write through one handle invalidates reads through every clone, per
// spec.md §4.C.
type Store struct {
	driver storagedriver.StorageDriver
	caches *cache.Set
}

// New builds a Store over driver with the given cache factory. Pass a
// factory returning cache.NewMemory(n) for an in-memory-only store, or
// mix in cache.NewRedis for a shared backend.
func New(driver storagedriver.StorageDriver, newProvider func(cache.Kind) cache.Provider) *Store {
	return &Store{driver: driver, caches: cache.NewSet(newProvider)}
}

// Clone returns a handle sharing this Store's caches but otherwise
// independent -- the shape callers use to hand a Store to a goroutine
// without risking concurrent misuse of driver-specific state.
func (s *Store) Clone() *Store {
	return &Store{driver: s.driver, caches: s.caches}
}

func driverExists(driver storagedriver.StorageDriver, path string) (bool, error) {
	if _, err := driver.Stat(path); err != nil {
		if _, ok := err.(storagedriver.PathNotFoundError); ok {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// HasObject reports whether an object with digest d is present.
func (s *Store) HasObject(d digest.Digest) (bool, error) {
	ok, err := driverExists(s.driver, objectPath(d))
	if err != nil {
		return false, forgeerr.StorageReadError("Stat", objectPath(d), err)
	}
	return ok, nil
}

// ReadObject decodes and returns the object stored at digest d,
// honoring policy for the object-bytes cache.
func (s *Store) ReadObject(d digest.Digest, policy cache.Policy) (forge.Object, error) {
	if raw, ok := s.caches.Get(cache.KindObjectBytes, policy, d.String()); ok {
		return forge.Decode(raw)
	}

	p := objectPath(d)
	raw, err := s.driver.GetContent(p)
	if err != nil {
		if _, ok := err.(storagedriver.PathNotFoundError); ok {
			return nil, forgeerr.UnknownObjectError(d.String())
		}
		return nil, forgeerr.StorageReadError("GetContent", p, err)
	}

	s.caches.Put(cache.KindObjectBytes, d.String(), raw)

	obj, err := forge.Decode(raw)
	if err != nil {
		return nil, forgeerr.Fatalf("graph: object %s failed to decode: %v", d, err)
	}
	return obj, nil
}

// WriteObject encodes o and stores it under its own digest, returning
// that digest. The operation is idempotent: writing the same object
// twice is a no-op on the second call.
func (s *Store) WriteObject(o forge.Object) (digest.Digest, error) {
	d := forge.Digest(o)
	raw := forge.Marshal(o)
	p := objectPath(d)

	exists, err := driverExists(s.driver, p)
	if err != nil {
		return "", forgeerr.StorageReadError("Stat", p, err)
	}
	if exists {
		return d, nil
	}

	if err := s.driver.PutContent(p, raw); err != nil {
		return "", forgeerr.StorageWriteError("PutContent", p, err)
	}
	s.caches.Invalidate()
	s.caches.Put(cache.KindObjectBytes, d.String(), raw)
	return d, nil
}

// HasPayload reports whether payload bytes for digest d are present.
func (s *Store) HasPayload(d digest.Digest) (bool, error) {
	ok, err := driverExists(s.driver, payloadPath(d))
	if err != nil {
		return false, forgeerr.StorageReadError("Stat", payloadPath(d), err)
	}
	return ok, nil
}

// OpenPayload returns a reader over the payload bytes for digest d.
func (s *Store) OpenPayload(d digest.Digest) (io.ReadCloser, error) {
	p := payloadPath(d)
	rc, err := s.driver.ReadStream(p, 0)
	if err != nil {
		if _, ok := err.(storagedriver.PathNotFoundError); ok {
			return nil, forgeerr.UnknownObjectError(d.String())
		}
		return nil, forgeerr.StorageReadError("ReadStream", p, err)
	}
	return rc, nil
}

// CommitBlob streams r into the payload store, hashing it as it goes,
// and finally links it into place under its own digest -- the same
// hash-while-streaming, atomic-rename-into-place shape spec.md's
// commit_blob calls for, grounded on blobStore.put's
// digest-then-check-exists-then-PutContent sequence but adapted to a
// streaming writer so payloads aren't required to fit in memory.
func (s *Store) CommitBlob(r io.Reader, uploadID string) (forge.Blob, error) {
	up := uploadPath(uploadID)
	v := digest.NewVerifier()
	size, err := s.driver.WriteStream(up, 0, io.TeeReader(r, v))
	if err != nil {
		return forge.Blob{}, forgeerr.StorageWriteError("WriteStream", up, err)
	}
	d := v.Digest()

	p := payloadPath(d)
	exists, err := driverExists(s.driver, p)
	if err != nil {
		return forge.Blob{}, forgeerr.StorageReadError("Stat", p, err)
	}
	if !exists {
		if err := s.driver.Move(up, p); err != nil {
			return forge.Blob{}, forgeerr.StorageWriteError("Move", p, err)
		}
	} else {
		_ = s.driver.Delete(up)
	}

	return forge.Blob{PayloadDigest: d, Size: uint64(size)}, nil
}

// PayloadLocalPath exposes the on-disk path of digest d's payload when the
// underlying driver is backed by a real local filesystem, for callers
// (the manifest renderer's HardLink modes) that need to link against it
// directly rather than stream a copy through OpenPayload.
func (s *Store) PayloadLocalPath(d digest.Digest) (string, bool) {
	resolver, ok := s.driver.(storagedriver.LocalPathResolver)
	if !ok {
		return "", false
	}
	return resolver.LocalPath(payloadPath(d))
}

// FindDigests lazily walks the object store, yielding every digest it
// finds to fn. fn's error, if any, stops the walk and is returned.
// Grounded on registry/storage/walk.go's recursive List-based
// traversal, adapted here to the two-level algorithm/fanout/hex object
// layout rather than the registry's repository tree.
func (s *Store) FindDigests(fn func(digest.Digest) error) error {
	return s.walk(objectsRoot, fn)
}

func (s *Store) walk(dir string, fn func(digest.Digest) error) error {
	children, err := s.driver.List(dir)
	if err != nil {
		if _, ok := err.(storagedriver.PathNotFoundError); ok {
			return nil
		}
		return forgeerr.StorageReadError("List", dir, err)
	}
	for _, child := range children {
		info, err := s.driver.Stat(child)
		if err != nil {
			return forgeerr.StorageReadError("Stat", child, err)
		}
		if info.IsDir() {
			if err := s.walk(child, fn); err != nil {
				return err
			}
			continue
		}
		raw, err := s.driver.GetContent(child)
		if err != nil {
			return forgeerr.StorageReadError("GetContent", child, err)
		}
		d := digest.FromBytes(raw)
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}
