package build

import (
	"sort"
	"sync"

	"github.com/forgepkg/forge/ident"
)

// ConflictPair identifies two packages whose rendered files collided on
// at least one path.
type ConflictPair struct {
	A, B ident.Ident
}

// Ledger records which package claimed each workspace-relative path as
// an environment is rendered, and every pair of packages found to
// collide on a path, grounded on
// original_source/crates/spk-build/src/build/binary.rs's
// conflicting_packages bookkeeping (spec.md §4.I step 3).
type Ledger struct {
	mu          sync.Mutex
	owners      map[string]ident.Ident
	conflicts   map[ConflictPair]map[string]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{
		owners:    make(map[string]ident.Ident),
		conflicts: make(map[ConflictPair]map[string]struct{}),
	}
}

// Claim records owner as having rendered path. If an earlier package
// already claimed path, the collision is recorded against both
// packages' conflict pair and Claim returns the earlier owner alongside
// ok=false; the caller decides whether to warn and continue (spec.md
// step 3 "warn and record") rather than abort the render.
func (l *Ledger) Claim(path string, owner ident.Ident) (previous ident.Ident, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, had := l.owners[path]
	if !had {
		l.owners[path] = owner
		return ident.Ident{}, true
	}
	if existing.String() == owner.String() {
		return existing, true
	}
	pair := conflictPair(existing, owner)
	paths, ok2 := l.conflicts[pair]
	if !ok2 {
		paths = make(map[string]struct{})
		l.conflicts[pair] = paths
	}
	paths[path] = struct{}{}
	return existing, false
}

// Owner returns the recorded owner of path, if any.
func (l *Ledger) Owner(path string) (ident.Ident, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.owners[path]
	return o, ok
}

// Conflicts returns every recorded conflicting pair and the paths they
// collided on, for inclusion in a changeset validation error.
func (l *Ledger) Conflicts() map[ConflictPair][]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[ConflictPair][]string, len(l.conflicts))
	for pair, paths := range l.conflicts {
		list := make([]string, 0, len(paths))
		for p := range paths {
			list = append(list, p)
		}
		sort.Strings(list)
		out[pair] = list
	}
	return out
}

func conflictPair(a, b ident.Ident) ConflictPair {
	if a.String() <= b.String() {
		return ConflictPair{A: a, B: b}
	}
	return ConflictPair{A: b, B: a}
}
