package vfs

import (
	"io"

	"github.com/forgepkg/forge/digest"
	"github.com/forgepkg/forge/forge"
	"github.com/forgepkg/forge/forgeerr"
	"github.com/forgepkg/forge/graph/cache"
)

// Repo is the subset of graph.Store the filesystem needs to resolve an
// EnvSpec and serve payload reads, narrowed to an interface so a mount
// can be built against any repository handle (local or remote) without
// vfs importing graph directly for anything but this shape.
type Repo interface {
	ReadObject(d digest.Digest, policy cache.Policy) (forge.Object, error)
	ResolveTagOrDigest(ref string) (digest.Digest, error)
	HasPayload(d digest.Digest) (bool, error)
	OpenPayload(d digest.Digest) (io.ReadCloser, error)
	PayloadLocalPath(d digest.Digest) (string, bool)
}

// EnvSpec names the references (tags or digests) that make up a mount's
// environment, lowest-precedence first (spec.md §4.E "serves an EnvSpec
// (a list of tag or digest references)").
type EnvSpec struct {
	References []string
}

// Resolve walks each reference in spec through repos (searched in order,
// primary first) and composes their layers into a single merged Entry
// tree, later references overriding earlier ones and EntryMask children
// erasing a name inherited from an earlier layer -- the same
// lowest-precedence-first composition spec.md §3 "Platform" describes.
func Resolve(repos []Repo, spec EnvSpec) (forge.Entry, error) {
	merged := forge.Entry{Kind: forge.EntryTree}
	for _, ref := range spec.References {
		root, err := resolveReference(repos, ref)
		if err != nil {
			return forge.Entry{}, err
		}
		merged = overlay(merged, root)
	}
	return merged, nil
}

func resolveReference(repos []Repo, ref string) (forge.Entry, error) {
	var lastErr error
	for _, repo := range repos {
		d, err := repo.ResolveTagOrDigest(ref)
		if err != nil {
			lastErr = err
			continue
		}
		obj, err := repo.ReadObject(d, cache.CacheOk)
		if err != nil {
			lastErr = err
			continue
		}
		return entryFromObject(repos, repo, obj)
	}
	if lastErr == nil {
		lastErr = forgeerr.UnknownReferenceError(ref)
	}
	return forge.Entry{}, lastErr
}

// entryFromObject expands a Layer/Platform/Manifest object down to its
// root Entry tree, following Manifest -> Tree and Platform -> stacked
// Layers. Every referenced digest is read from origin; the other repos
// are not searched for it.
func entryFromObject(repos []Repo, origin Repo, obj forge.Object) (forge.Entry, error) {
	switch o := obj.(type) {
	case forge.Layer:
		manifestObj, err := origin.ReadObject(o.ManifestDigest, cache.CacheOk)
		if err != nil {
			return forge.Entry{}, err
		}
		return entryFromObject(repos, origin, manifestObj)
	case forge.ManifestObject:
		return entryFromTreeDigest(origin, o.Root)
	case forge.Platform:
		merged := forge.Entry{Kind: forge.EntryTree}
		for _, d := range o.Layers {
			layerObj, err := origin.ReadObject(d, cache.CacheOk)
			if err != nil {
				return forge.Entry{}, err
			}
			e, err := entryFromObject(repos, origin, layerObj)
			if err != nil {
				return forge.Entry{}, err
			}
			merged = overlay(merged, e)
		}
		return merged, nil
	default:
		return forge.Entry{}, forgeerr.Fatalf("vfs: reference does not resolve to a renderable object")
	}
}

func entryFromTreeDigest(repo Repo, d digest.Digest) (forge.Entry, error) {
	obj, err := repo.ReadObject(d, cache.CacheOk)
	if err != nil {
		return forge.Entry{}, err
	}
	tree, ok := obj.(forge.Tree)
	if !ok {
		return forge.Entry{}, forgeerr.Fatalf("vfs: expected tree object at %s", d)
	}
	children := make([]forge.NamedEntry, 0, len(tree.Children))
	for _, c := range tree.Children {
		var child forge.Entry
		switch c.Kind {
		case forge.EntryTree:
			child, err = entryFromTreeDigest(repo, c.Digest)
			if err != nil {
				return forge.Entry{}, err
			}
			child.Mode = c.Mode
		case forge.EntryBlob:
			child = forge.Entry{Kind: forge.EntryBlob, Mode: c.Mode, Digest: c.Digest}
		case forge.EntryMask:
			child = forge.Entry{Kind: forge.EntryMask, Mode: c.Mode}
		}
		children = append(children, forge.NamedEntry{Name: c.Name, Entry: child})
	}
	return forge.Entry{Kind: forge.EntryTree, Mode: 0o755, Children: children}, nil
}

// overlay composes next on top of base: any name next declares replaces
// base's child of the same name (a Mask child erases it outright),
// matching Platform's "lowest-precedence first, later wins" rule.
func overlay(base, next forge.Entry) forge.Entry {
	if next.Kind != forge.EntryTree {
		return next
	}
	byName := make(map[string]forge.Entry, len(base.Children))
	order := make([]string, 0, len(base.Children))
	for _, c := range base.Children {
		byName[c.Name] = c.Entry
		order = append(order, c.Name)
	}
	for _, c := range next.Children {
		if _, existed := byName[c.Name]; !existed {
			order = append(order, c.Name)
		}
		byName[c.Name] = c.Entry
	}
	merged := forge.Entry{Kind: forge.EntryTree, Mode: next.Mode}
	for _, name := range order {
		e := byName[name]
		if e.Kind == forge.EntryMask {
			continue
		}
		merged.Children = append(merged.Children, forge.NamedEntry{Name: name, Entry: e})
	}
	return merged
}
