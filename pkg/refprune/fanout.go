package refprune

import (
	"github.com/crankshaft/refprune/pkg/refir"
	"github.com/oleiade/lane"
)

// maxFanoutDepth bounds the forward walk's path stack. Exceeding it
// silently abandons the candidate; it is a pragmatic cutoff, not a
// soundness boundary.
const maxFanoutDepth = 15

// Fanout eliminates a single incref whose protected value is released
// by exactly one matching decref on every forward path, across a
// bounded subgraph — spec §4.5. Candidates are tried in source order;
// an eliminated incref is removed from further consideration.
func (p *Pruner) Fanout(fn *refir.Function) bool {
	var increfs []refir.Instr
	for _, b := range fn.Blocks {
		for _, i := range b.Instrs {
			if refir.IsIncref(i) {
				increfs = append(increfs, i)
			}
		}
	}

	mutated := false
	for _, inc := range increfs {
		if inc.Block() == nil {
			continue // already eliminated by an earlier candidate this pass
		}
		head := inc.Block()
		if refir.HasDecref(head) {
			continue
		}

		tails, ok := p.forwardDiscoverTails(inc, head)
		if !ok {
			continue
		}
		if !verifyNonOverlapping(fn, head, tails) {
			continue
		}

		// usesRaise is a per-candidate verdict, not per-tail: a candidate
		// whose tails mix a real decref with a bare raise exit still
		// attributes every removal it makes, real decref included, to
		// FanoutRaise. The alternative is splitting one candidate's bump
		// calls across both counters, which would double-count the head
		// incref removal against neither tail. Counters stay a rough
		// per-candidate tally, not a strict per-refop ledger.
		usesRaise := false
		for _, t := range tails {
			if isRaiseTail(t) && refir.FirstRelatedDecref(t, inc) == nil {
				usesRaise = true
				break
			}
		}

		for _, t := range tails {
			if d := refir.FirstRelatedDecref(t, inc); d != nil {
				t.Remove(d)
				bump(p, usesRaise)
			}
		}
		head.Remove(inc)
		bump(p, usesRaise)
		mutated = true
	}
	return mutated
}

func bump(p *Pruner, raise bool) {
	if raise {
		p.Stats.FanoutRaise++
	} else {
		p.Stats.Fanout++
	}
}

// isRaiseTail reports whether b is a Ret block flagged as a raise exit.
// When EnableFanoutRaise is set, such a block is treated as an implicit
// tail even without a matching decref present.
func isRaiseTail(b *refir.Block) bool {
	ret, ok := b.Terminator().(*refir.Ret)
	return ok && ret.RaiseExit
}

// forwardDiscoverTails walks forward from head's successors, looking for
// the first block on each branch that either contains a decref related
// to inc or (if EnableFanoutRaise) is a raise-exit return block. It
// returns the insertion-ordered set of tail blocks and whether every
// branch of the walked subgraph found one. The path stack is an
// explicit slice, mirroring the original's depth-bounded SmallVector
// rather than native recursion depth.
func (p *Pruner) forwardDiscoverTails(inc refir.Instr, head *refir.Block) ([]*refir.Block, bool) {
	path := []*refir.Block{head}

	var tails []*refir.Block
	seenTail := map[*refir.Block]bool{}
	addTail := func(b *refir.Block) {
		if !seenTail[b] {
			seenTail[b] = true
			tails = append(tails, b)
		}
	}

	for _, succ := range head.Succs {
		if !p.walkForTail(inc, succ, &path, addTail) {
			return nil, false
		}
	}
	return tails, true
}

// walkForTail is the recursive per-branch walk (spec §4.5 "Forward
// discovery"). path is the current DFS path stack, used both for the
// depth bound and to detect benign re-entry into an already-walked
// branch versus a back-edge to the head.
func (p *Pruner) walkForTail(inc refir.Instr, cur *refir.Block, path *[]*refir.Block, addTail func(*refir.Block)) bool {
	if len(*path) >= maxFanoutDepth {
		return false
	}
	if onStack(*path, cur) {
		if cur == (*path)[0] {
			return false // back-edge to head: reject the whole candidate
		}
		return true // re-entry into an already-covered branch: benign
	}

	if d := refir.FirstRelatedDecref(cur, inc); d != nil {
		addTail(cur)
		return true
	}
	if p.EnableFanoutRaise && isRaiseTail(cur) {
		addTail(cur)
		return true
	}

	*path = append(*path, cur)
	defer func() { *path = (*path)[:len(*path)-1] }()

	if len(cur.Succs) == 0 {
		// a return block with no matching decref (and not a raise exit):
		// this branch never releases the value, so the candidate fails.
		return false
	}
	for _, succ := range cur.Succs {
		if !p.walkForTail(inc, succ, path, addTail) {
			return false
		}
	}
	return true
}

func onStack(path []*refir.Block, b *refir.Block) bool {
	for _, cur := range path {
		if cur == b {
			return true
		}
	}
	return false
}

// verifyNonOverlapping confirms tails form an antichain under backward
// reachability stopping at head — spec §4.5 "Non-overlap verification".
// Each tail gets its own reverse walk over predecessors using an
// explicit worklist, matching the original's per-tail SmallVector
// workstack.
func verifyNonOverlapping(fn *refir.Function, head *refir.Block, tails []*refir.Block) bool {
	tailSet := make(map[*refir.Block]bool, len(tails))
	for _, t := range tails {
		tailSet[t] = true
	}

	for _, start := range tails {
		visited := map[*refir.Block]bool{}
		work := lane.NewStack()
		work.Push(start)

		for !work.Empty() {
			cur := work.Pop().(*refir.Block)
			if visited[cur] {
				continue
			}
			if cur == fn.Entry {
				return false
			}
			visited[cur] = true

			for _, pred := range cur.Preds {
				if tailSet[pred] {
					return false
				}
				if pred != head {
					work.Push(pred)
				}
			}
		}
	}
	return true
}
