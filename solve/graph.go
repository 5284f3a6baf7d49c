package solve

import (
	"container/heap"
	"sync"

	"github.com/forgepkg/forge/forgeerr"
	"github.com/forgepkg/forge/ident"
)

// Change is one atomic mutation a Decision applies to a State (spec.md
// §4.G "Graph"). Exactly one of the fields is set.
type Change struct {
	RequestPackage *ident.PkgRequest
	RequestVar     *ident.VarRequest
	SetOptions     map[string]string
	SetPackage     *Resolution
	StepBack       *StepBack
}

// StepBack records why a fork failed and which earlier state the solve
// should resume from.
type StepBack struct {
	Cause       error
	Destination State
}

// Decision is an edge in the solve graph: an ordered list of Changes
// applied together, plus free-form notes for formatters.
type Decision struct {
	Changes []Change
	Notes   []string
}

// Apply folds d's changes onto base in order, returning the resulting
// State.
func (d Decision) Apply(base State) State {
	s := base
	for _, c := range d.Changes {
		s = c.apply(s)
	}
	return s
}

func (c Change) apply(base State) State {
	switch {
	case c.RequestPackage != nil:
		s := base.clone()
		s.PkgRequests = append(s.PkgRequests, *c.RequestPackage)
		return s
	case c.RequestVar != nil:
		s := base.clone()
		s.VarRequests = append(s.VarRequests, *c.RequestVar)
		return s
	case c.SetOptions != nil:
		s := base.clone()
		for k, v := range c.SetOptions {
			s.Options[k] = v
		}
		return s
	case c.SetPackage != nil:
		s := base.clone()
		s.Resolved = append(s.Resolved, *c.SetPackage)
		return s
	case c.StepBack != nil:
		return c.StepBack.Destination
	default:
		return base
	}
}

// node is one State in the search graph plus the Decisions already
// attempted as its outgoing edges, so a repeat attempt can be rejected
// per spec.md §4.G "attempting a decision that leads back to a state
// already listed as a successor is rejected with BranchAlreadyAttempted".
type node struct {
	state      State
	successors map[string]struct{} // destination state digests already tried
	depth      int
}

// searchGraph tracks every state visited during one solve and the
// priority queue of forks available to step back to, oldest-first
// (spec.md §4.G "the oldest previously-forked state in a priority
// queue -- oldest-first backtracking minimizes depth of wasted work").
type searchGraph struct {
	mu        sync.RWMutex
	nodes     map[string]*node
	forks     forkQueue
	forkSeq   int
	stepBacks int
}

func newSearchGraph() *searchGraph {
	return &searchGraph{nodes: make(map[string]*node)}
}

func (g *searchGraph) visit(s State, depth int) *node {
	g.mu.Lock()
	defer g.mu.Unlock()
	d := s.Digest()
	if n, ok := g.nodes[d]; ok {
		return n
	}
	n := &node{state: s, successors: make(map[string]struct{}), depth: depth}
	g.nodes[d] = n
	return n
}

// recordFork pushes a newly-created branch point onto the step-back
// queue.
func (g *searchGraph) recordFork(s State, depth int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.forkSeq++
	heap.Push(&g.forks, &forkEntry{state: s, depth: depth, seq: g.forkSeq})
}

// attempt records that from transitions to decision's result, rejecting a
// repeat with BranchAlreadyAttempted.
func (g *searchGraph) attempt(from *node, decision Decision) (State, error) {
	next := decision.Apply(from.state)
	nextDigest := next.Digest()

	g.mu.Lock()
	if _, already := from.successors[nextDigest]; already {
		g.mu.Unlock()
		return State{}, forgeerr.Fatalf("solve: %s", branchAlreadyAttempted)
	}
	from.successors[nextDigest] = struct{}{}
	g.mu.Unlock()

	return next, nil
}

const branchAlreadyAttempted = "branch already attempted"

// popOldestFork pops the oldest (lowest depth, then insertion order)
// fork, or reports none remain.
func (g *searchGraph) popOldestFork() (State, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.forks.Len() == 0 {
		return State{}, false
	}
	g.stepBacks++
	entry := heap.Pop(&g.forks).(*forkEntry)
	return entry.state, true
}

type forkEntry struct {
	state State
	depth int
	seq   int
}

type forkQueue []*forkEntry

func (q forkQueue) Len() int { return len(q) }
func (q forkQueue) Less(i, j int) bool {
	if q[i].depth != q[j].depth {
		return q[i].depth < q[j].depth
	}
	return q[i].seq < q[j].seq
}
func (q forkQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *forkQueue) Push(x interface{}) {
	e := x.(*forkEntry)
	*q = append(*q, e)
}
func (q *forkQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}
