// Package render implements the manifest renderer (spec.md §4.D): given a
// Manifest and a target directory, it materializes a file tree on disk
// using one of three strategies, grounded on
// original_source/crates/spfs/src/storage/fs/renderer_unix.rs for the
// exact proxy/hardlink/copy protocol and retry rules.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sys/unix"

	"github.com/forgepkg/forge/digest"
	"github.com/forgepkg/forge/forge"
	"github.com/forgepkg/forge/forgeerr"
	"github.com/forgepkg/forge/graph"
)

// Mode selects how a rendered file's bytes are produced on disk.
type Mode int

const (
	// HardLink links from a per-user "proxy" copy of the payload, so a
	// payload owned by another user (different mode bits) never ends
	// up directly hard-linked into a caller's tree.
	HardLink Mode = iota
	// HardLinkNoProxy links directly from the payload store, skipping
	// the proxy indirection entirely.
	HardLinkNoProxy
	// Copy always performs a full byte copy.
	Copy
)

func (m Mode) String() string {
	switch m {
	case HardLink:
		return "hardlink"
	case HardLinkNoProxy:
		return "hardlink-no-proxy"
	case Copy:
		return "copy"
	default:
		return "unknown"
	}
}

// defaultDirFanout bounds how many directory levels are materialized
// concurrently; defaultBlobOpen bounds concurrent payload reads.
const (
	defaultDirFanout = 8
	defaultBlobOpen  = 64
)

// Renderer materializes manifests from store's payload substrate into
// caller-owned target directories. Render output directories are owned by
// the caller; the renderer only ever writes into them (spec.md §3
// "Ownership").
type Renderer struct {
	store           *graph.Store
	renderStorePath string
	dirFanout       *semaphore.Weighted
	blobOpen        *semaphore.Weighted
}

// New builds a Renderer reading payloads from store, using renderStorePath
// as the root for HardLink mode's proxy directory.
func New(store *graph.Store, renderStorePath string) *Renderer {
	return &Renderer{
		store:           store,
		renderStorePath: renderStorePath,
		dirFanout:       semaphore.NewWeighted(defaultDirFanout),
		blobOpen:        semaphore.NewWeighted(defaultBlobOpen),
	}
}

// renderErr wraps err with the path that was being rendered when it
// occurred, built up by the recursive call stack the way spec.md §4.D's
// "Error semantics" requires: each level prepends the child name.
type renderErr struct {
	path string
	err  error
}

func (e *renderErr) Error() string { return fmt.Sprintf("render %s: %v", e.path, e.err) }
func (e *renderErr) Unwrap() error { return e.err }

func wrapPath(name string, err error) error {
	if err == nil {
		return nil
	}
	var re *renderErr
	if errAs(err, &re) {
		return &renderErr{path: filepath.Join(name, re.path), err: re.err}
	}
	return &renderErr{path: name, err: err}
}

func errAs(err error, target **renderErr) bool {
	re, ok := err.(*renderErr)
	if !ok {
		return false
	}
	*target = re
	return true
}

// Render materializes manifest's tree under targetDir using mode.
func (r *Renderer) Render(ctx context.Context, manifest forge.Manifest, targetDir string, mode Mode) error {
	if manifest.Root.Kind != forge.EntryTree {
		return forgeerr.Fatalf("render: manifest root must be a tree")
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return forgeerr.StorageWriteError("MkdirAll", targetDir, err)
	}
	dirFD, err := unix.Open(targetDir, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		return forgeerr.StorageWriteError("open", targetDir, err)
	}
	defer unix.Close(dirFD)

	if err := r.renderChildren(ctx, dirFD, manifest.Root.Children, mode); err != nil {
		return err
	}
	return unix.Fchmod(dirFD, uint32(manifest.Root.Mode.Perm()))
}

// renderChildren materializes every child of a Tree entry under the
// directory identified by parentFD, in shuffled order per spec.md §4.D
// "random order to minimize contention between parallel processes
// rendering the same env", bounded by the renderer's directory fan-out
// semaphore.
func (r *Renderer) renderChildren(ctx context.Context, parentFD int, children []forge.NamedEntry, mode Mode) error {
	order := rand.Perm(len(children))
	g, gctx := errgroup.WithContext(ctx)
	for _, idx := range order {
		c := children[idx]
		g.Go(func() error {
			if err := r.dirFanout.Acquire(gctx, 1); err != nil {
				return err
			}
			defer r.dirFanout.Release(1)
			return wrapPath(c.Name, r.renderEntry(gctx, parentFD, c.Name, c.Entry, mode))
		})
	}
	return g.Wait()
}

func (r *Renderer) renderEntry(ctx context.Context, parentFD int, name string, entry forge.Entry, mode Mode) error {
	switch entry.Kind {
	case forge.EntryMask:
		// A Mask is a structural no-op: nothing is written for it.
		return nil
	case forge.EntryTree:
		return r.renderTree(ctx, parentFD, name, entry, mode)
	case forge.EntryBlob:
		if isSymlinkMode(entry.Mode) {
			return r.renderSymlink(ctx, parentFD, name, entry)
		}
		return r.renderBlob(ctx, parentFD, name, entry, mode)
	default:
		return forgeerr.Fatalf("render: unknown entry kind %s", entry.Kind)
	}
}

func isSymlinkMode(mode fs.FileMode) bool { return mode&fs.ModeSymlink != 0 }

// renderTree creates a directory under parentFD, recurses into it, then
// fchmods it to the entry's recorded mode only after every descendant has
// completed (spec.md §5 "no file is visible with its final mode before
// its contents are complete").
func (r *Renderer) renderTree(ctx context.Context, parentFD int, name string, entry forge.Entry, mode Mode) error {
	if err := unix.Mkdirat(parentFD, name, 0o755); err != nil && err != unix.EEXIST {
		return err
	}
	childFD, err := unix.Openat(parentFD, name, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		return err
	}
	defer unix.Close(childFD)

	if err := r.renderChildren(ctx, childFD, entry.Children, mode); err != nil {
		return err
	}
	return unix.Fchmod(childFD, uint32(entry.Mode.Perm()))
}

func (r *Renderer) renderSymlink(ctx context.Context, parentFD int, name string, entry forge.Entry) error {
	if err := r.blobOpen.Acquire(ctx, 1); err != nil {
		return err
	}
	defer r.blobOpen.Release(1)

	rc, err := r.store.OpenPayload(entry.Digest)
	if err != nil {
		return err
	}
	target, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return err
	}

	if err := unix.Symlinkat(string(target), parentFD, name); err != nil && err != unix.EEXIST {
		return err
	}
	return nil
}

// renderBlob places entry's payload at name under parentFD according to
// mode, falling back from HardLink to Copy on EMLINK per spec.md §4.D
// "Final placement".
func (r *Renderer) renderBlob(ctx context.Context, parentFD int, name string, entry forge.Entry, mode Mode) error {
	if err := r.blobOpen.Acquire(ctx, 1); err != nil {
		return err
	}
	defer r.blobOpen.Release(1)

	switch mode {
	case Copy:
		return r.copyBlob(parentFD, name, entry)
	case HardLinkNoProxy:
		if err := r.linkPayload(parentFD, name, entry.Digest); err == unix.EMLINK {
			return r.copyBlob(parentFD, name, entry)
		} else {
			return err
		}
	default: // HardLink
		proxy, err := r.ensureProxy(entry.Digest, entry.Mode)
		if err != nil {
			return err
		}
		if err := r.linkFromPath(parentFD, name, proxy); err == unix.EMLINK {
			return r.copyBlob(parentFD, name, entry)
		} else {
			return err
		}
	}
}

// linkPayload hard-links the canonical payload path directly into place,
// retrying on ENOENT (races with concurrent cleaners) per spec.md §4.D.
func (r *Renderer) linkPayload(parentFD int, name string, d digest.Digest) error {
	path, err := r.canonicalPayloadPath(d)
	if err != nil {
		return err
	}
	return r.linkFromPath(parentFD, name, path)
}

const linkRetries = 3

func (r *Renderer) linkFromPath(parentFD int, name, sourcePath string) error {
	var err error
	for attempt := 0; attempt < linkRetries; attempt++ {
		err = unix.Linkat(unix.AT_FDCWD, sourcePath, parentFD, name, unix.AT_SYMLINK_FOLLOW)
		if err == nil || err == unix.EEXIST {
			return nil
		}
		if err != unix.ENOENT {
			return err
		}
	}
	return err
}

func (r *Renderer) copyBlob(parentFD int, name string, entry forge.Entry) error {
	fd, err := unix.Openat(parentFD, name, unix.O_RDWR|unix.O_CREAT|unix.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	f := os.NewFile(uintptr(fd), name)
	defer f.Close()

	rc, err := r.store.OpenPayload(entry.Digest)
	if err != nil {
		return err
	}
	defer rc.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return err
	}
	return unix.Fchmod(fd, uint32(entry.Mode.Perm()))
}

// canonicalPayloadPath exposes the payload store's on-disk path for a
// local filesystem store, used to hard-link a payload without a copy. A
// non-local store (e.g. one whose driver isn't rooted on a real
// filesystem) cannot support HardLink/HardLinkNoProxy and should be
// rendered with Copy instead.
func (r *Renderer) canonicalPayloadPath(d digest.Digest) (string, error) {
	p, ok := r.store.PayloadLocalPath(d)
	if !ok {
		return "", forgeerr.Fatalf("render: store has no local path for payload %s; use Copy mode", d)
	}
	return p, nil
}

// ensureProxy implements spec.md §4.D's three-step proxy creation
// protocol for HardLink mode: reuse an existing proxy, hard-link from the
// canonical payload when its owner/mode already match, or copy-then-
// rename into place otherwise.
func (r *Renderer) ensureProxy(d digest.Digest, mode fs.FileMode) (string, error) {
	dir := filepath.Join(r.renderStorePath, "proxy", d.Algo(), d.Encoded())
	proxyPath := filepath.Join(dir, modeTag(mode))

	if _, err := os.Stat(proxyPath); err == nil {
		return proxyPath, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	canonical, err := r.canonicalPayloadPath(d)
	if err != nil {
		return "", err
	}
	if fi, err := os.Stat(canonical); err == nil {
		if fi.Mode().Perm() == mode.Perm() && ownedByEffectiveUser(fi) {
			if err := os.Link(canonical, proxyPath); err == nil {
				return proxyPath, nil
			} else if !os.IsExist(err) {
				if pe, ok := err.(*os.LinkError); !ok || pe.Err != unix.EMLINK {
					return "", err
				}
				// EMLINK: fall through to the copy path below.
			}
		}
	}

	rc, err := r.store.OpenPayload(d)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(dir, ".proxy-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Chmod(mode.Perm()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	tmp.Close()

	if err := os.Rename(tmp.Name(), proxyPath); err != nil && !os.IsExist(err) {
		os.Remove(tmp.Name())
		return "", err
	}
	return proxyPath, nil
}

// ownedByEffectiveUser reports whether fi's owning uid matches the
// current process's effective uid, the check spec.md §4.D's proxy step 2
// requires before a payload can be hard-linked straight into a proxy
// slot without a copy.
func ownedByEffectiveUser(fi os.FileInfo) bool {
	st, ok := fi.Sys().(*unix.Stat_t)
	if !ok {
		return false
	}
	return int(st.Uid) == os.Geteuid()
}

func modeTag(mode fs.FileMode) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%04o", mode.Perm())
	return buf.String()
}
