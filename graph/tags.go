package graph

import (
	"bytes"
	"sort"
	"time"

	"github.com/forgepkg/forge/digest"
	"github.com/forgepkg/forge/forgeerr"
	"github.com/forgepkg/forge/graph/cache"
	"github.com/forgepkg/forge/storagedriver"
)

// Tag is one entry in a tag stream: a named pointer to an object
// digest, plus the provenance of how it got there (spec.md §3 "Tag").
type Tag struct {
	Digest       digest.Digest
	ParentDigest digest.Digest // zero value if this is the first entry
	Timestamp    time.Time
	User         string
	Message      string
}

// encodeTagEntry and decodeTagEntry give the tag stream its on-disk
// shape: a length-prefixed TLV record per entry, the same encoding
// style forge/codec.go uses for graph objects, appended oldest-first.
// There's no grounding source for this exact layout -- tag streams in
// the reference implementation live in a relational table, not a flat
// file -- so this is a from-scratch design choice, recorded as an Open
// Question resolution in the design notes: appends via the driver's
// offset-based WriteStream, reads take the whole stream and the last
// record is the head.
func encodeTagEntry(t Tag) []byte {
	var buf bytes.Buffer
	writeDigest(&buf, t.Digest)
	writeDigest(&buf, t.ParentDigest)
	writeUvarint(&buf, uint64(t.Timestamp.UTC().Unix()))
	writeString(&buf, t.User)
	writeString(&buf, t.Message)
	return buf.Bytes()
}

func decodeTagStream(raw []byte) ([]Tag, error) {
	r := newByteReader(raw)
	var tags []Tag
	for r.Len() > 0 {
		d, err := r.readDigest()
		if err != nil {
			return nil, err
		}
		parent, err := r.readDigest()
		if err != nil {
			return nil, err
		}
		ts, err := r.readUvarint()
		if err != nil {
			return nil, err
		}
		user, err := r.readString()
		if err != nil {
			return nil, err
		}
		msg, err := r.readString()
		if err != nil {
			return nil, err
		}

		tags = append(tags, Tag{
			Digest:       d,
			ParentDigest: parent,
			Timestamp:    time.Unix(int64(ts), 0).UTC(),
			User:         user,
			Message:      msg,
		})
	}
	return tags, nil
}

// ResolveTag reads the full stream for name and returns its head (the
// most recently pushed entry), or UnknownReference if name has no
// stream.
func (s *Store) ResolveTag(name string, policy cache.Policy) (Tag, error) {
	tags, err := s.ReadTag(name, policy)
	if err != nil {
		return Tag{}, err
	}
	return tags[len(tags)-1], nil
}

// ReadTag returns the full, oldest-first history for name.
func (s *Store) ReadTag(name string, policy cache.Policy) ([]Tag, error) {
	if raw, ok := s.caches.Get(cache.KindTagResolution, policy, name); ok {
		return decodeTagStream(raw)
	}

	p := tagStreamPath(name)
	raw, err := s.driver.GetContent(p)
	if err != nil {
		if _, ok := err.(storagedriver.PathNotFoundError); ok {
			return nil, forgeerr.UnknownReferenceError(name)
		}
		return nil, forgeerr.StorageReadError("GetContent", p, err)
	}

	tags, err := decodeTagStream(raw)
	if err != nil {
		return nil, forgeerr.Fatalf("graph: tag stream %s is corrupt: %v", name, err)
	}
	if len(tags) == 0 {
		return nil, forgeerr.UnknownReferenceError(name)
	}

	s.caches.Put(cache.KindTagResolution, name, raw)
	return tags, nil
}

// PushTag appends a new entry pointing at d to name's stream, with
// parent set to the stream's current head (or the zero digest if this
// is the first push). Tag pushes are linearizable per tag stream
// (spec.md §5 "Tag pushes are linearizable per tag stream") -- callers
// pushing concurrently to the same name must serialize externally;
// nothing in this package does it for them.
func (s *Store) PushTag(name string, d digest.Digest, user, message string, now time.Time) error {
	p := tagStreamPath(name)

	var parent digest.Digest
	if existing, err := s.ReadTag(name, cache.BypassCache); err == nil {
		parent = existing[len(existing)-1].Digest
	} else if !forgeerr.Is(err, forgeerr.UnknownReference) {
		return err
	}

	entry := encodeTagEntry(Tag{
		Digest:       d,
		ParentDigest: parent,
		Timestamp:    now,
		User:         user,
		Message:      message,
	})

	offset, err := streamLength(s.driver, p)
	if err != nil {
		return err
	}
	if _, err := s.driver.WriteStream(p, offset, bytes.NewReader(entry)); err != nil {
		return forgeerr.StorageWriteError("WriteStream", p, err)
	}

	s.caches.Invalidate()
	return nil
}

func streamLength(driver storagedriver.StorageDriver, p string) (int64, error) {
	fi, err := driver.Stat(p)
	if err != nil {
		if _, ok := err.(storagedriver.PathNotFoundError); ok {
			return 0, nil
		}
		return 0, forgeerr.StorageReadError("Stat", p, err)
	}
	return fi.Size(), nil
}

// RemoveTagStream deletes name's entire history.
func (s *Store) RemoveTagStream(name string) error {
	p := tagStreamPath(name)
	if err := s.driver.Delete(p); err != nil {
		if _, ok := err.(storagedriver.PathNotFoundError); ok {
			return forgeerr.UnknownReferenceError(name)
		}
		return forgeerr.StorageWriteError("Delete", p, err)
	}
	s.caches.Invalidate()
	return nil
}

// IterTags walks every tag stream in the store, calling fn with each
// tag's name and current head. Iteration order is by name.
func (s *Store) IterTags(fn func(name string, head Tag) error) error {
	names, err := s.listTagNames(tagsRoot)
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		head, err := s.ResolveTag(name, cache.CacheOk)
		if err != nil {
			return err
		}
		if err := fn(name, head); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) listTagNames(dir string) ([]string, error) {
	children, err := s.driver.List(dir)
	if err != nil {
		if _, ok := err.(storagedriver.PathNotFoundError); ok {
			return nil, nil
		}
		return nil, forgeerr.StorageReadError("List", dir, err)
	}

	var names []string
	for _, child := range children {
		fi, err := s.driver.Stat(child)
		if err != nil {
			return nil, forgeerr.StorageReadError("Stat", child, err)
		}
		if fi.IsDir() {
			sub, err := s.listTagNames(child)
			if err != nil {
				return nil, err
			}
			names = append(names, sub...)
			continue
		}
		if isUnderTagsRoot(child) {
			names = append(names, tagNameFromPath(child))
		}
	}
	return names, nil
}

// Entry is either a Folder (an intermediate path segment with more tags
// beneath it) or a Tag leaf, the shape ls_tags(path) returns for a
// single directory listing rather than IterTags's full recursive walk.
type Entry struct {
	Name   string
	IsTag  bool
	Folder string // set when IsTag is false
}

// LsTags lists the direct children of prefix under the tag namespace,
// distinguishing folders (more path segments below) from tag leaves.
func (s *Store) LsTags(prefix string) ([]Entry, error) {
	dir := tagStreamPath(prefix)
	children, err := s.driver.List(dir)
	if err != nil {
		if _, ok := err.(storagedriver.PathNotFoundError); ok {
			return nil, nil
		}
		return nil, forgeerr.StorageReadError("List", dir, err)
	}

	var entries []Entry
	for _, child := range children {
		fi, err := s.driver.Stat(child)
		if err != nil {
			return nil, forgeerr.StorageReadError("Stat", child, err)
		}
		name := child[len(dir)+1:]
		if fi.IsDir() {
			entries = append(entries, Entry{Name: name, IsTag: false, Folder: name})
		} else {
			entries = append(entries, Entry{Name: name, IsTag: true})
		}
	}
	return entries, nil
}
