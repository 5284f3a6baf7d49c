package vfs

import (
	"io"
	"sync"

	"github.com/forgepkg/forge/forge"
)

// rootInode is the fixed inode number of the mount root (spec.md §4.E
// "Inode 1 is the root").
const rootInode = 1

// noHandle is the reserved value meaning "no handle assigned" (spec.md
// §4.E "Handle 0 is reserved as 'no handle'").
const noHandle = 0

// node is an inode's entry plus the parent/name pair it was reached
// through, so a lookup of the same name under the same parent reuses
// the inode already allocated for it.
type node struct {
	entry  forge.Entry
	parent uint64
	name   string
}

// handleKind discriminates the three shapes an open handle can take
// (spec.md §4.E "State").
type handleKind int

const (
	handleTree handleKind = iota
	handleBlobFile
	handleBlobStream
)

// handle is one open file or directory descriptor. BlobFile wraps a
// seekable os.File-shaped reader (the local repo's canonical payload
// path); BlobStream wraps a non-seekable reader from a remote repo and
// must serialize reads behind mu, per spec.md §5 "Stream reads are
// serialized per-handle via a mutex."
type handle struct {
	kind  handleKind
	inode uint64

	mu     sync.Mutex
	reader io.ReadCloser
	seeker io.Seeker // non-nil only for handleBlobFile
	offset int64
}

// inodeTable owns the inode and handle maps described in spec.md §4.E.
// Entries are never mutated after insertion for the life of the mount, so
// readers need no lock beyond the maps' own (spec.md §5 "Sharing").
type inodeTable struct {
	mu      sync.RWMutex
	inodes  map[uint64]*node
	nextIno uint64

	handlesMu  sync.Mutex
	handles    map[uint64]*handle
	nextHandle uint64
}

func newInodeTable() *inodeTable {
	return &inodeTable{
		inodes:     make(map[uint64]*node),
		nextIno:    rootInode,
		handles:    make(map[uint64]*handle),
		nextHandle: noHandle + 1,
	}
}

func (t *inodeTable) alloc(n node) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	ino := t.nextIno
	t.nextIno++
	t.inodes[ino] = &n
	return ino
}

func (t *inodeTable) get(ino uint64) (*node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.inodes[ino]
	return n, ok
}

// childByName scans parent's children for name, allocating a fresh inode
// the first time a child is looked up and reusing it on subsequent
// lookups (grounded on spfs-vfs's allocate-once, never-invalidate inode
// table, per spec.md §3 "FUSE inodes are allocated once at mount from the
// manifest and never invalidated for the life of the mount").
func (t *inodeTable) childByName(parentIno uint64, name string) (uint64, *node, bool) {
	parent, ok := t.get(parentIno)
	if !ok {
		return 0, nil, false
	}
	child, ok := parent.entry.ChildByName(name)
	if !ok {
		return 0, nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for ino, n := range t.inodes {
		if n.parent == parentIno && n.name == name {
			return ino, n, true
		}
	}
	ino := t.nextIno
	t.nextIno++
	n := &node{entry: child, parent: parentIno, name: name}
	t.inodes[ino] = n
	return ino, n, true
}

func (t *inodeTable) newHandle(h *handle) uint64 {
	t.handlesMu.Lock()
	defer t.handlesMu.Unlock()
	id := t.nextHandle
	t.nextHandle++
	t.handles[id] = h
	return id
}

func (t *inodeTable) handleByID(id uint64) (*handle, bool) {
	t.handlesMu.Lock()
	defer t.handlesMu.Unlock()
	h, ok := t.handles[id]
	return h, ok
}

func (t *inodeTable) releaseHandle(id uint64) {
	t.handlesMu.Lock()
	defer t.handlesMu.Unlock()
	if h, ok := t.handles[id]; ok {
		if h.reader != nil {
			h.reader.Close()
		}
		delete(t.handles, id)
	}
}
