package graph

import (
	"path"
	"strings"

	"github.com/forgepkg/forge/digest"
)

// Path layout within a graph store's StorageDriver, grounded on
// registry/storage/paths.go's digestPathComponents: a digest's colon
// separator isn't legal in a storage path component, so it's split into
// an algorithm directory and a hex-digest leaf, fanned out two hex
// characters deep the same way digestPathComponents's multilevel mode
// does, to keep any one directory from growing unbounded under a large
// store.
const (
	objectsRoot = "/objects"
	payloadRoot = "/payloads"
	tagsRoot    = "/tags"
)

func digestPathComponents(d digest.Digest) (algorithm, fanout, hex string) {
	algorithm = d.Algo()
	hex = d.Encoded()
	if len(hex) >= 2 {
		fanout = hex[:2]
	}
	return
}

// objectPath is where an encoded forge.Object for d is stored.
func objectPath(d digest.Digest) string {
	algorithm, fanout, hex := digestPathComponents(d)
	return path.Join(objectsRoot, algorithm, fanout, hex)
}

// payloadPath is where the raw bytes backing a Blob payload digest are
// stored, kept in a separate root from objects since payloads can be
// arbitrarily large while objects are small encoded records.
func payloadPath(d digest.Digest) string {
	algorithm, fanout, hex := digestPathComponents(d)
	return path.Join(payloadRoot, algorithm, fanout, hex)
}

// tagStreamPath is where the append-only history for tag name lives.
// name is a tag path as produced by ident.Format (e.g.
// "spk/pkg/foo/1.0.0/ABCDEF01"), already slash-separated and safe as a
// storage path.
func tagStreamPath(name string) string {
	return path.Join(tagsRoot, name)
}

// uploadPath is a temporary staging location for a blob being written
// by commit_blob, so a crash mid-write never leaves a corrupt object
// at its final content-addressed path.
func uploadPath(uploadID string) string {
	return path.Join("/uploads", uploadID)
}

// isUnderTagsRoot reports whether storage path p is a tag stream entry,
// used by walk-based tag listing to strip the tagsRoot prefix back into
// a tag name.
func isUnderTagsRoot(p string) bool {
	return strings.HasPrefix(p, tagsRoot+"/")
}

func tagNameFromPath(p string) string {
	return strings.TrimPrefix(p, tagsRoot+"/")
}
