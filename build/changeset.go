package build

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/forgepkg/forge/digest"
)

// ChangeKind classifies one path's difference between a before/after
// snapshot pair, mirroring original_source's DiffMode::{Added,Removed,
// Changed} (spec.md §4.I step 6).
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
	Changed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "Added"
	case Removed:
		return "Removed"
	case Changed:
		return "Changed"
	default:
		return "Unknown"
	}
}

// snapshotEntry is the recorded shape of one path at a point in time.
type snapshotEntry struct {
	Mode    fs.FileMode
	Size    int64
	Digest  digest.Digest
	IsDir   bool
	IsLink  bool
}

// Change is one path's before/after delta.
type Change struct {
	Path   string
	Kind   ChangeKind
	Before *snapshotEntry
	After  *snapshotEntry
}

// Changeset is an ordered, path-sorted list of Changes.
type Changeset []Change

// snapshot walks root and records every regular file, symlink, and
// directory's identity-relevant attributes, keyed by path relative to
// root.
func snapshot(root string) (map[string]snapshotEntry, error) {
	out := make(map[string]snapshotEntry)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entry := snapshotEntry{Mode: info.Mode(), IsDir: d.IsDir()}
		switch {
		case d.Type()&fs.ModeSymlink != 0:
			entry.IsLink = true
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			entry.Digest = digest.FromBytes([]byte(target))
			entry.Size = int64(len(target))
		case d.IsDir():
			// directories carry no content digest
		default:
			entry.Size = info.Size()
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			dg, err := digest.FromReader(f)
			f.Close()
			if err != nil {
				return err
			}
			entry.Digest = dg
		}
		out[filepath.ToSlash(rel)] = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// diff computes the Changeset between a before and after snapshot of the
// same directory (spec.md §4.I step 6 "compute the changeset between the
// runtime before and after the script").
func diff(before, after map[string]snapshotEntry) Changeset {
	var out Changeset
	for path, a := range after {
		if b, existed := before[path]; existed {
			if changed(b, a) {
				bc, ac := b, a
				out = append(out, Change{Path: path, Kind: Changed, Before: &bc, After: &ac})
			}
			continue
		}
		ac := a
		out = append(out, Change{Path: path, Kind: Added, After: &ac})
	}
	for path, b := range before {
		if _, stillPresent := after[path]; stillPresent {
			continue
		}
		bc := b
		out = append(out, Change{Path: path, Kind: Removed, Before: &bc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func changed(b, a snapshotEntry) bool {
	return b.Mode != a.Mode || b.Size != a.Size || b.Digest != a.Digest || b.IsDir != a.IsDir || b.IsLink != a.IsLink
}
