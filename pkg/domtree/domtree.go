// Package domtree computes dominator and post-dominator trees over a
// refir.Function's control-flow graph. The refprune passes treat both as
// externally supplied analyses (spec's Dominance Providers): they query
// this package, they never recompute dominance themselves.
//
// The algorithm is the iterative postorder-intersection method (Cooper,
// Harvey & Kennedy, "A Simple, Fast Dominance Algorithm"), grounded on
// the postorder/intersect pair used by Go's own SSA backend for the same
// job — small per-function CFGs don't need Lengauer-Tarjan's asymptotics.
package domtree

import (
	"github.com/crankshaft/refprune/pkg/refir"
	"github.com/oleiade/lane"
)

// Tree is a dominator tree, built over either the forward CFG (a
// dominator tree proper) or the reverse CFG with a synthetic root merging
// all exits (a post-dominator tree). Both are queried the same way.
type Tree struct {
	entry    *refir.Block
	idom     map[*refir.Block]*refir.Block
	children map[*refir.Block][]*refir.Block
	order    map[*refir.Block]int // postorder index, used by Dominates
}

// succFn/predFn let the same Build serve DT (succs=forward, preds=reverse)
// and PDT (succs=reverse, preds=forward) without duplicating the walk.
type edgeFn func(*refir.Block) []*refir.Block

// Build computes a dominator tree rooted at entry, using succFn/predFn to
// find successors/predecessors of a block. Unreachable blocks (from
// entry, via succFn) are omitted, matching spec's postorder semantics.
//
// Build is the generic primitive both DT and PDT are built from: DT is
// Build(fn.Entry, forward, backward), valid as-is since a function has
// exactly one entry. A post-dominator tree has no single real block to
// play the same role once a function has more than one return — use
// BuildPostDominatorTree for that case rather than calling Build
// directly with one real exit as the root.
func Build(entry *refir.Block, succFn, predFn edgeFn) *Tree {
	po, order := postorder(entry, succFn)

	// idom is computed over reverse-postorder, skipping the root.
	rpo := make([]*refir.Block, len(po))
	for i, b := range po {
		rpo[len(po)-1-i] = b
	}

	idom := make(map[*refir.Block]*refir.Block, len(rpo))
	idom[entry] = entry

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == entry {
				continue
			}
			var newIdom *refir.Block
			for _, p := range predFn(b) {
				if _, ok := order[p]; !ok {
					continue // unreachable predecessor
				}
				if idom[p] == nil {
					continue // not yet processed this round
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersect(p, newIdom, order, idom)
			}
			if newIdom != nil && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	t := &Tree{
		entry:    entry,
		idom:     idom,
		children: make(map[*refir.Block][]*refir.Block),
		order:    order,
	}
	for _, b := range po {
		if b == entry {
			continue
		}
		p := idom[b]
		t.children[p] = append(t.children[p], b)
	}
	return t
}

// postorder returns a postorder traversal of the blocks reachable from
// entry via succFn, plus a map from block to its postorder index
// (entry's successors visited first, entry itself last).
// frame tracks a block and how many of its successor edges have already
// been explored, the way Go's own SSA backend walks postorder with an
// explicit stack instead of native recursion.
type frame struct {
	b   *refir.Block
	idx int
}

func postorder(entry *refir.Block, succFn edgeFn) ([]*refir.Block, map[*refir.Block]int) {
	seen := map[*refir.Block]bool{entry: true}
	order := make([]*refir.Block, 0, 16)

	stack := lane.NewStack()
	stack.Push(&frame{b: entry})
	for !stack.Empty() {
		top := stack.Head().(*frame)
		succs := succFn(top.b)
		if top.idx < len(succs) {
			next := succs[top.idx]
			top.idx++
			if !seen[next] {
				seen[next] = true
				stack.Push(&frame{b: next})
			}
			continue
		}
		stack.Pop()
		order = append(order, top.b)
	}

	numbering := make(map[*refir.Block]int, len(order))
	for i, b := range order {
		numbering[b] = i
	}
	return order, numbering
}

// intersect finds the closest common dominator of b and c, walking up
// idom using postorder numbers as a cheap "depth" proxy.
func intersect(b, c *refir.Block, order map[*refir.Block]int, idom map[*refir.Block]*refir.Block) *refir.Block {
	for b != c {
		for order[b] < order[c] {
			b = idom[b]
		}
		for order[c] < order[b] {
			c = idom[c]
		}
	}
	return b
}

// Dominates reports whether a dominates b (a == b counts as dominating).
// Unreachable blocks dominate nothing and are dominated by nothing.
func (t *Tree) Dominates(a, b *refir.Block) bool {
	if _, ok := t.order[a]; !ok {
		return false
	}
	if _, ok := t.order[b]; !ok {
		return false
	}
	for cur := b; ; cur = t.idom[cur] {
		if cur == a {
			return true
		}
		if cur == t.entry {
			return false
		}
	}
}

// DominatesInstr decomposes instruction-level dominance into block
// dominance plus, within the same block, source-order index comparison.
func (t *Tree) DominatesInstr(a, b refir.Instr) bool {
	ba, bb := a.Block(), b.Block()
	if ba == nil || bb == nil {
		return false
	}
	if ba == bb {
		return ba.Index(a) <= bb.Index(b)
	}
	return t.Dominates(ba, bb)
}

// BuildPostDominatorTree computes fn's post-dominator tree: the
// dominator tree of fn's reverse CFG, rooted at a synthetic exit that
// every Ret block flows into, per spec's "reverse CFG with a synthetic
// exit merging all Ret blocks". A function with more than one return
// block has no single real block that can stand in for that root —
// rooting at one real exit omits every block that only reaches a
// *different* exit from the tree entirely, and Dominates/DominatesInstr
// answer false for them instead of a meaningful post-dominance verdict.
// The synthetic block is never attached to fn and carries no
// instructions; it exists purely as the tree's root.
func BuildPostDominatorTree(fn *refir.Function) *Tree {
	exits := fn.ExitBlocks()
	se := refir.NewBlock(-1)

	succFn := func(b *refir.Block) []*refir.Block {
		if b == se {
			return exits
		}
		return b.Preds
	}
	predFn := func(b *refir.Block) []*refir.Block {
		if isExitBlock(b, exits) {
			return []*refir.Block{se}
		}
		return b.Succs
	}
	return Build(se, succFn, predFn)
}

func isExitBlock(b *refir.Block, exits []*refir.Block) bool {
	for _, e := range exits {
		if e == b {
			return true
		}
	}
	return false
}

// Children returns b's immediate children in the tree, in the order
// the postorder walk finished them.
func (t *Tree) Children(b *refir.Block) []*refir.Block {
	return t.children[b]
}

// Descendants returns every strict descendant of b in the tree
// (pre-order, children-list order).
func (t *Tree) Descendants(b *refir.Block) []*refir.Block {
	var out []*refir.Block
	var walk func(*refir.Block)
	walk = func(cur *refir.Block) {
		for _, c := range t.children[cur] {
			out = append(out, c)
			walk(c)
		}
	}
	walk(b)
	return out
}
