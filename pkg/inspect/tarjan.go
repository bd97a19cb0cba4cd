package inspect

import (
	"gonum.org/v1/gonum/graph"
)

// stronglyConnected finds all strongly connected components with more than
// one node using an iterative Tarjan's algorithm over a gonum directed
// graph. Single-node components are not cycles (self-loops are reported
// separately from the edge list) and are skipped.
func stronglyConnected(g graph.Directed) [][]int64 {
	t := &tarjanState{
		g:       g,
		indices: make(map[int64]int),
		lowLink: make(map[int64]int),
		onStack: make(map[int64]bool),
	}

	nodes := g.Nodes()
	for nodes.Next() {
		id := nodes.Node().ID()
		if _, visited := t.indices[id]; !visited {
			t.connect(id)
		}
	}
	return t.sccs
}

type tarjanState struct {
	g       graph.Directed
	index   int
	stack   []int64
	onStack map[int64]bool
	indices map[int64]int
	lowLink map[int64]int
	sccs    [][]int64
}

// frame holds the explicit recursion state for one node.
type frame struct {
	id         int64
	successors []int64
	next       int
}

func (t *tarjanState) connect(root int64) {
	frames := []frame{t.newFrame(root)}

	for len(frames) > 0 {
		f := &frames[len(frames)-1]

		if f.next == 0 {
			t.indices[f.id] = t.index
			t.lowLink[f.id] = t.index
			t.index++
			t.stack = append(t.stack, f.id)
			t.onStack[f.id] = true
		}

		advanced := false
		for f.next < len(f.successors) {
			succ := f.successors[f.next]
			f.next++
			if _, visited := t.indices[succ]; !visited {
				frames = append(frames, t.newFrame(succ))
				advanced = true
				break
			}
			if t.onStack[succ] {
				t.lowLink[f.id] = min(t.lowLink[f.id], t.indices[succ])
			}
		}
		if advanced {
			continue
		}

		// All successors handled; pop a component if this is its root.
		if t.lowLink[f.id] == t.indices[f.id] {
			var scc []int64
			for {
				w := t.stack[len(t.stack)-1]
				t.stack = t.stack[:len(t.stack)-1]
				t.onStack[w] = false
				scc = append(scc, w)
				if w == f.id {
					break
				}
			}
			if len(scc) > 1 {
				t.sccs = append(t.sccs, scc)
			}
		}

		finished := *f
		frames = frames[:len(frames)-1]
		if len(frames) > 0 {
			parent := &frames[len(frames)-1]
			parent.lowLinkMerge(t, finished.id)
		}
	}
}

func (t *tarjanState) newFrame(id int64) frame {
	var successors []int64
	iter := t.g.From(id)
	for iter.Next() {
		successors = append(successors, iter.Node().ID())
	}
	return frame{id: id, successors: successors}
}

func (f *frame) lowLinkMerge(t *tarjanState, child int64) {
	t.lowLink[f.id] = min(t.lowLink[f.id], t.lowLink[child])
}
