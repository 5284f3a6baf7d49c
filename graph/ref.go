package graph

import (
	"github.com/forgepkg/forge/digest"
	"github.com/forgepkg/forge/graph/cache"
)

// ResolveTagOrDigest resolves ref as a bare digest if it parses as one,
// otherwise as a tag name whose head is returned -- the fallback every
// caller that accepts either a tag or a digest reference needs (the FUSE
// mount's EnvSpec entries and the sync/repair walk's root reference both
// accept this shape per spec.md §4.E and §4.F).
func (s *Store) ResolveTagOrDigest(ref string) (digest.Digest, error) {
	if digest.Validate(digest.Digest(ref)) == nil {
		return digest.Digest(ref), nil
	}
	tag, err := s.ResolveTag(ref, cache.CacheOk)
	if err != nil {
		return "", err
	}
	return tag.Digest, nil
}
