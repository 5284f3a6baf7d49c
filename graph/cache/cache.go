// Package cache implements the small per-repository-handle caches a
// graph store keeps for object bytes, recipe bytes, tag resolution and
// tag listing (spec.md §4.C "Cache discipline"). Every lookup takes an
// explicit Policy rather than reading it off a context, so a caller
// bypassing the cache for one read (to observe a just-written value) is
// visible in its own call rather than threaded invisibly through a
// context value.
package cache

// Policy controls whether a single cache-fronted read is allowed to be
// served from cache.
type Policy int

const (
	// CacheOk allows a cached value to satisfy the read.
	CacheOk Policy = iota
	// BypassCache forces the read through to the backing store and, on
	// Provider implementations that support it, refreshes the cache
	// with the freshly read value.
	BypassCache
)

// Provider is a byte-oriented cache keyed by opaque strings -- the
// graph store builds its own keys (a digest string, or a tag spec) per
// cache kind, so Provider itself doesn't need to know what it's caching.
type Provider interface {
	// Get returns the cached value for key, or ok=false on a miss.
	Get(key string) (value []byte, ok bool)
	// Set stores value under key.
	Set(key string, value []byte)
	// Delete removes key, if present.
	Delete(key string)
	// InvalidateAll drops every entry. Called on every write to the
	// repository the cache fronts, per the "writes invalidate all
	// caches" rule.
	InvalidateAll()
}

// Kind distinguishes the four cache instances a repository handle
// keeps, matching spec.md §4.C's "object-bytes, recipe, tag-resolution,
// listing-of-tags".
type Kind int

const (
	KindObjectBytes Kind = iota
	KindRecipe
	KindTagResolution
	KindTagListing
)

func (k Kind) String() string {
	switch k {
	case KindObjectBytes:
		return "object-bytes"
	case KindRecipe:
		return "recipe"
	case KindTagResolution:
		return "tag-resolution"
	case KindTagListing:
		return "tag-listing"
	default:
		return "unknown"
	}
}

// Set is the four caches a repository handle owns, one per Kind.
// Handle clones of the same underlying address share a Set, matching
// the "caches are shared across clones of the handle" rule.
type Set struct {
	providers [4]Provider
}

// NewSet builds a Set from a factory invoked once per Kind, so a
// caller can mix backends (e.g. small in-memory tag-resolution cache,
// larger Redis-backed object-bytes cache) or use the same factory for
// all four.
func NewSet(newProvider func(k Kind) Provider) *Set {
	s := &Set{}
	for k := KindObjectBytes; k <= KindTagListing; k++ {
		s.providers[k] = newProvider(k)
	}
	return s
}

func (s *Set) provider(k Kind) Provider { return s.providers[k] }

// Get looks up key in the Kind cache under policy. BypassCache always
// misses.
func (s *Set) Get(k Kind, policy Policy, key string) ([]byte, bool) {
	if policy == BypassCache {
		return nil, false
	}
	return s.provider(k).Get(key)
}

// Put stores value under key in the Kind cache, regardless of policy --
// a BypassCache read that falls through to the backing store still
// refreshes the cache for the next CacheOk reader.
func (s *Set) Put(k Kind, key string, value []byte) {
	s.provider(k).Set(key, value)
}

// Invalidate drops every entry in every one of the Set's four caches.
// Call this after any write to the repository the Set fronts.
func (s *Set) Invalidate() {
	for _, p := range s.providers {
		p.InvalidateAll()
	}
}
