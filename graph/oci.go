// OCI interop: exporting a stored Tree as an OCI image manifest (for
// transport through registries and tooling built around
// github.com/opencontainers/image-spec) and importing one back into the
// object graph. Grounded on
// _examples/distribution-distribution/manifest/ocischema/manifest.go's
// Manifest/Config/Layers shape -- this graph has no notion of image
// layers or a runnable container config, so the mapping flattens a Tree
// into a path index (the OCI "config" blob) plus one OCI layer
// descriptor per distinct payload referenced (the tree's Blob leaves).
package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"

	digestpkg "github.com/opencontainers/go-digest"
	specs "github.com/opencontainers/image-spec/specs-go"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/forgepkg/forge/digest"
	"github.com/forgepkg/forge/forge"
	"github.com/forgepkg/forge/graph/cache"
)

const (
	mediaTypeForgeTreeIndex = "application/vnd.forge.tree-index.v1+json"
	mediaTypeForgePayload   = "application/vnd.forge.payload.v1"
)

// ociIndexEntry is one flattened path in an exported Tree; entries are
// ordered depth-first the same way the Tree itself was walked so a
// re-import reproduces an identical object graph.
type ociIndexEntry struct {
	Path   string `json:"path"`
	Mode   uint32 `json:"mode"`
	Kind   string `json:"kind"`
	Digest string `json:"digest,omitempty"`
}

// ExportOCIManifest flattens the Tree at root into an OCI image manifest:
// every distinct Blob payload the tree reaches becomes one Layers
// descriptor, and the full path index (needed to reconstruct directory
// structure and file modes, which plain OCI layers don't carry) is
// marshaled to JSON, committed to s as its own payload, and referenced
// as the manifest's Config descriptor.
func (s *Store) ExportOCIManifest(root digest.Digest) (v1.Manifest, error) {
	var index []ociIndexEntry
	var layers []v1.Descriptor
	seen := make(map[digest.Digest]struct{})

	if err := s.walkTreeForExport(root, "", &index, &layers, seen); err != nil {
		return v1.Manifest{}, err
	}

	indexJSON, err := json.Marshal(index)
	if err != nil {
		return v1.Manifest{}, err
	}
	configBlob, err := s.CommitBlob(bytes.NewReader(indexJSON), "oci-export")
	if err != nil {
		return v1.Manifest{}, err
	}

	return v1.Manifest{
		Versioned: specs.Versioned{SchemaVersion: 2},
		MediaType: v1.MediaTypeImageManifest,
		Config: v1.Descriptor{
			MediaType: mediaTypeForgeTreeIndex,
			Digest:    toOCIDigest(configBlob.PayloadDigest),
			Size:      int64(len(indexJSON)),
		},
		Layers: layers,
	}, nil
}

func (s *Store) walkTreeForExport(d digest.Digest, prefix string, index *[]ociIndexEntry, layers *[]v1.Descriptor, seen map[digest.Digest]struct{}) error {
	obj, err := s.ReadObject(d, cache.CacheOk)
	if err != nil {
		return err
	}
	tree, ok := obj.(forge.Tree)
	if !ok {
		return fmt.Errorf("graph: oci export: %s is not a tree", d)
	}
	for _, c := range tree.Children {
		path := prefix + "/" + c.Name
		switch c.Kind {
		case forge.EntryTree:
			*index = append(*index, ociIndexEntry{Path: path, Mode: uint32(c.Mode), Kind: "tree", Digest: c.Digest.String()})
			if err := s.walkTreeForExport(c.Digest, path, index, layers, seen); err != nil {
				return err
			}
		case forge.EntryBlob:
			*index = append(*index, ociIndexEntry{Path: path, Mode: uint32(c.Mode), Kind: "blob", Digest: c.Digest.String()})
			if _, already := seen[c.Digest]; already {
				continue
			}
			seen[c.Digest] = struct{}{}
			size, err := s.payloadSize(c.Digest)
			if err != nil {
				return err
			}
			*layers = append(*layers, v1.Descriptor{
				MediaType: mediaTypeForgePayload,
				Digest:    toOCIDigest(c.Digest),
				Size:      size,
			})
		case forge.EntryMask:
			*index = append(*index, ociIndexEntry{Path: path, Mode: uint32(c.Mode), Kind: "mask"})
		}
	}
	return nil
}

func (s *Store) payloadSize(d digest.Digest) (int64, error) {
	rc, err := s.OpenPayload(d)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	n, err := io.Copy(io.Discard, rc)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ImportOCIManifest reverses ExportOCIManifest: it reads m's Config blob
// (the path index) back out of s, rebuilds the Tree object graph bottom
// up, and returns the root Tree's digest. Every Layers descriptor must
// already have a matching payload present in s (ImportOCIManifest never
// fetches remote content itself -- that is a registry client's job,
// outside this graph's scope).
func (s *Store) ImportOCIManifest(m v1.Manifest) (digest.Digest, error) {
	rc, err := s.OpenPayload(fromOCIDigest(m.Config.Digest))
	if err != nil {
		return "", fmt.Errorf("graph: oci import: reading config: %w", err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	var index []ociIndexEntry
	if err := json.Unmarshal(raw, &index); err != nil {
		return "", fmt.Errorf("graph: oci import: decoding index: %w", err)
	}

	root, err := s.rebuildTree(index, "")
	if err != nil {
		return "", err
	}
	return root, nil
}

// rebuildTree reconstructs the Tree object rooted at prefix from a flat
// index, writing every subtree it discovers to s and returning the
// root's digest. Children of prefix are exactly the entries whose Path
// has prefix as its parent directory.
func (s *Store) rebuildTree(index []ociIndexEntry, prefix string) (digest.Digest, error) {
	var children []forge.TreeChild
	for _, e := range index {
		parent, name := splitParent(e.Path)
		if parent != prefix {
			continue
		}
		child := forge.TreeChild{Name: name, Mode: modeFromUint(e.Mode)}
		switch e.Kind {
		case "tree":
			d, err := s.rebuildTree(index, e.Path)
			if err != nil {
				return "", err
			}
			child.Kind = forge.EntryTree
			child.Digest = d
		case "blob":
			child.Kind = forge.EntryBlob
			child.Digest = digest.Digest(e.Digest)
		case "mask":
			child.Kind = forge.EntryMask
		default:
			return "", fmt.Errorf("graph: oci import: unknown index kind %q", e.Kind)
		}
		children = append(children, child)
	}
	return s.WriteObject(forge.Tree{Children: children})
}

func toOCIDigest(d digest.Digest) digestpkg.Digest    { return digestpkg.Digest(d.String()) }
func fromOCIDigest(d digestpkg.Digest) digest.Digest { return digest.Digest(d.String()) }

// splitParent splits a "/"-joined index path into its parent directory
// and final component, mirroring path.Split without pulling in the extra
// trailing-slash handling that package is built for.
func splitParent(p string) (parent, name string) {
	i := -1
	for j := len(p) - 1; j >= 0; j-- {
		if p[j] == '/' {
			i = j
			break
		}
	}
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}

func modeFromUint(m uint32) fs.FileMode { return fs.FileMode(m) }
