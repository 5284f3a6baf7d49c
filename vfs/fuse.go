// Package vfs implements the read-only FUSE mount (spec.md §4.E) on top
// of github.com/hanwen/go-fuse/v2's fuse.RawFileSystem, whose method
// names are the spec's operation names almost verbatim. Grounded on
// original_source/crates/spfs-vfs/src/fuse.rs for the inode-allocation
// and handle-table semantics.
package vfs

import (
	"io"
	"os"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/forgepkg/forge/forge"
	"github.com/forgepkg/forge/forgeerr"
)

// FS is a single-mount, read-only filesystem serving the merged Entry
// tree an EnvSpec resolves to. It embeds go-fuse's default no-op
// implementation so operations spec.md's Non-goals exclude (writes,
// locking, xattrs) fall back to ENOSYS/EROFS without FS having to stub
// them all out individually.
type FS struct {
	fuse.RawFileSystem

	repos []Repo
	table *inodeTable
}

// Mount resolves spec against repos and returns an FS ready to be handed
// to fuse.NewServer. repos are tried in order for every payload open
// (spec.md §4.E "Payload resolution").
func Mount(repos []Repo, spec EnvSpec) (*FS, error) {
	root, err := Resolve(repos, spec)
	if err != nil {
		return nil, err
	}
	table := newInodeTable()
	table.inodes[rootInode] = &node{entry: root}
	table.nextIno = rootInode + 1

	return &FS{
		RawFileSystem: fuse.NewDefaultRawFileSystem(),
		repos:         repos,
		table:         table,
	}, nil
}

func (fs *FS) String() string { return "forge-vfs" }

// Lookup resolves name under parent's inode, allocating its child inode
// on first access.
func (fsys *FS) Lookup(cancel <-chan struct{}, header *fuse.InHeader, name string, out *fuse.EntryOut) fuse.Status {
	ino, n, ok := fsys.table.childByName(header.NodeId, name)
	if !ok {
		return fuse.ENOENT
	}
	out.NodeId = ino
	out.Ino = ino
	fillAttr(&out.Attr, ino, n.entry)
	return fuse.OK
}

func (fsys *FS) Forget(nodeid, nlookup uint64) {
	// Inodes are never invalidated for the life of the mount (spec.md
	// §3), so Forget is a deliberate no-op.
}

func (fsys *FS) GetAttr(cancel <-chan struct{}, input *fuse.GetAttrIn, out *fuse.AttrOut) fuse.Status {
	n, ok := fsys.table.get(input.NodeId)
	if !ok {
		return fuse.ENOENT
	}
	fillAttr(&out.Attr, input.NodeId, n.entry)
	return fuse.OK
}

func fillAttr(attr *fuse.Attr, ino uint64, e forge.Entry) {
	attr.Ino = ino
	attr.Size = e.Size
	attr.Mode = uint32(e.Mode)
	switch e.Kind {
	case forge.EntryTree:
		attr.Mode |= syscall.S_IFDIR
		attr.Nlink = 2
	case forge.EntryBlob:
		if e.Mode&os.ModeSymlink != 0 {
			attr.Mode |= syscall.S_IFLNK
		} else {
			attr.Mode |= syscall.S_IFREG
		}
		attr.Nlink = 1
	}
	attr.Blksize = 512
}

func (fsys *FS) Readlink(cancel <-chan struct{}, header *fuse.InHeader) ([]byte, fuse.Status) {
	n, ok := fsys.table.get(header.NodeId)
	if !ok {
		return nil, fuse.ENOENT
	}
	if n.entry.Kind != forge.EntryBlob || n.entry.Mode&os.ModeSymlink == 0 {
		return nil, fuse.EINVAL
	}
	target, err := fsys.openPayloadBytes(n.entry)
	if err != nil {
		return nil, fuse.EIO
	}
	return target, fuse.OK
}

func (fsys *FS) openPayloadBytes(e forge.Entry) ([]byte, error) {
	for _, repo := range fsys.repos {
		if ok, _ := repo.HasPayload(e.Digest); !ok {
			continue
		}
		rc, err := repo.OpenPayload(e.Digest)
		if err != nil {
			continue
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, forgeerr.UnknownObjectError(e.Digest.String())
}

const (
	writeFlagsMask = uint32(os.O_WRONLY | os.O_RDWR | os.O_APPEND | os.O_CREATE | os.O_TRUNC)
)

// Open honors spec.md §4.E's "open" rules: write flags are rejected
// outright, a Tree is EISDIR, a Mask is ENOENT; otherwise a handle is
// allocated, backed by a seekable local file when the primary (first)
// repo exposes one, or a serialized stream reader otherwise.
func (fsys *FS) Open(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	n, ok := fsys.table.get(input.NodeId)
	if !ok {
		return fuse.ENOENT
	}
	if input.Flags&writeFlagsMask != 0 {
		return fuse.EROFS
	}
	switch n.entry.Kind {
	case forge.EntryTree:
		return fuse.Status(syscall.EISDIR)
	case forge.EntryMask:
		return fuse.ENOENT
	}

	h, status := fsys.openBlobHandle(n.entry)
	if status != fuse.OK {
		return status
	}
	out.Fh = fsys.table.newHandle(h)
	out.OpenFlags = fuse.FOPEN_KEEP_CACHE
	if h.kind == handleBlobStream {
		out.OpenFlags |= fuse.FOPEN_NONSEEKABLE
	}
	return fuse.OK
}

func (fsys *FS) openBlobHandle(e forge.Entry) (*handle, fuse.Status) {
	for i, repo := range fsys.repos {
		if ok, _ := repo.HasPayload(e.Digest); !ok {
			continue
		}
		if path, ok := repo.PayloadLocalPath(e.Digest); ok && i == 0 {
			f, err := os.Open(path)
			if err != nil {
				continue
			}
			return &handle{kind: handleBlobFile, reader: f, seeker: f}, fuse.OK
		}
		rc, err := repo.OpenPayload(e.Digest)
		if err != nil {
			continue
		}
		return &handle{kind: handleBlobStream, reader: rc}, fuse.OK
	}
	return nil, fuse.ENOENT
}

func (fsys *FS) Read(cancel <-chan struct{}, input *fuse.ReadIn, buf []byte) (fuse.ReadResult, fuse.Status) {
	h, ok := fsys.table.handleByID(input.Fh)
	if !ok {
		return nil, fuse.EBADF
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.seeker != nil {
		n, err := h.reader.(io.ReaderAt).ReadAt(buf, int64(input.Offset))
		if err != nil && err != io.EOF {
			return nil, fuse.EIO
		}
		return fuse.ReadResultData(buf[:n]), fuse.OK
	}

	// Non-seekable stream: honor only strictly-forward sequential
	// reads, the contract FOPEN_NONSEEKABLE advertises to the kernel.
	if int64(input.Offset) != h.offset {
		return nil, fuse.EINVAL
	}
	n, err := io.ReadFull(h.reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fuse.EIO
	}
	h.offset += int64(n)
	return fuse.ReadResultData(buf[:n]), fuse.OK
}

func (fsys *FS) Lseek(cancel <-chan struct{}, in *fuse.LseekIn, out *fuse.LseekOut) fuse.Status {
	h, ok := fsys.table.handleByID(in.Fh)
	if !ok {
		return fuse.EBADF
	}
	if h.seeker == nil {
		return fuse.EINVAL
	}
	off, err := h.seeker.Seek(int64(in.Offset), int(in.Whence))
	if err != nil {
		return fuse.EINVAL
	}
	out.Offset = uint64(off)
	return fuse.OK
}

func (fsys *FS) Release(cancel <-chan struct{}, input *fuse.ReleaseIn) {
	fsys.table.releaseHandle(input.Fh)
}

func (fsys *FS) OpenDir(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	n, ok := fsys.table.get(input.NodeId)
	if !ok {
		return fuse.ENOENT
	}
	if n.entry.Kind != forge.EntryTree {
		return fuse.Status(syscall.ENOTDIR)
	}
	out.Fh = fsys.table.newHandle(&handle{kind: handleTree, inode: input.NodeId})
	return fuse.OK
}

// ReadDir and ReadDirPlus both interpret the kernel-supplied offset as
// the inode number of the last entry returned, scanning the parent's
// (never-reordered) child list forward from there (spec.md §4.E "readdir
// cursor").
func (fsys *FS) ReadDir(cancel <-chan struct{}, input *fuse.ReadIn, out *fuse.DirEntryList) fuse.Status {
	return fsys.readdir(input, out, false)
}

func (fsys *FS) ReadDirPlus(cancel <-chan struct{}, input *fuse.ReadIn, out *fuse.DirEntryList) fuse.Status {
	return fsys.readdir(input, out, true)
}

func (fsys *FS) readdir(input *fuse.ReadIn, out *fuse.DirEntryList, plus bool) fuse.Status {
	h, ok := fsys.table.handleByID(input.Fh)
	if !ok {
		return fuse.EBADF
	}
	n, ok := fsys.table.get(h.inode)
	if !ok {
		return fuse.ENOENT
	}

	started := input.Offset == 0
	for _, c := range n.entry.Children {
		childIno, childNode, _ := fsys.table.childByName(h.inode, c.Name)
		if !started {
			if childIno == input.Offset {
				started = true
			}
			continue
		}
		mode := uint32(0)
		switch childNode.entry.Kind {
		case forge.EntryTree:
			mode = syscall.S_IFDIR
		case forge.EntryBlob:
			mode = syscall.S_IFREG
		}
		entry := fuse.DirEntry{Mode: mode, Name: c.Name, Ino: childIno}
		if plus {
			eOut := out.AddDirLookupEntry(entry)
			if eOut == nil {
				break
			}
			eOut.NodeId = childIno
			fillAttr(&eOut.Attr, childIno, childNode.entry)
		} else if !out.AddDirEntry(entry) {
			break
		}
	}
	return fuse.OK
}

func (fsys *FS) ReleaseDir(input *fuse.ReleaseIn) {
	fsys.table.releaseHandle(input.Fh)
}

func (fsys *FS) StatFs(cancel <-chan struct{}, input *fuse.InHeader, out *fuse.StatfsOut) fuse.Status {
	out.Bsize = 512
	out.Files = uint64(fsys.countBlobs())
	return fuse.OK
}

func (fsys *FS) countBlobs() int {
	fsys.table.mu.RLock()
	defer fsys.table.mu.RUnlock()
	n := 0
	for _, node := range fsys.table.inodes {
		if node.entry.Kind == forge.EntryBlob {
			n++
		}
	}
	return n
}
