package refprune

import "github.com/crankshaft/refprune/pkg/refir"

// Diamond eliminates pairs (incref I, decref D) in different blocks
// where I dominates D, D post-dominates I, and no decref on any pointer
// lies on a path between them — the single-entry/single-exit subgraph
// case of spec §4.4.
func (p *Pruner) Diamond(fn *refir.Function) bool {
	var increfs, decrefs []refir.Instr
	for _, b := range fn.Blocks {
		for _, i := range b.Instrs {
			switch {
			case refir.IsIncref(i):
				increfs = append(increfs, i)
			case refir.IsDecref(i):
				decrefs = append(decrefs, i)
			}
		}
	}

	consumedIncref := make(map[refir.Instr]bool)
	consumedDecref := make(map[refir.Instr]bool)
	mutated := false

	for _, inc := range increfs {
		if consumedIncref[inc] {
			continue
		}
		for _, dec := range decrefs {
			if consumedDecref[dec] {
				continue
			}
			if inc.Block() == dec.Block() {
				continue
			}
			if !refir.Related(inc, dec) {
				continue
			}
			if !p.DT.DominatesInstr(inc, dec) || !p.PDT.DominatesInstr(dec, inc) {
				continue
			}
			if hasDecrefBetween(inc.Block(), dec.Block(), map[*refir.Block]bool{}) {
				continue
			}

			consumedIncref[inc] = true
			consumedDecref[dec] = true
			inc.Block().Remove(inc)
			dec.Block().Remove(dec)
			p.Stats.Diamond += 2
			mutated = true
			break
		}
	}
	return mutated
}

// hasDecrefBetween reports whether any block reachable from head via CFG
// successors (not descending into tail, not revisiting a block) contains
// a decref on any pointer. Precondition: head dominates tail, so the
// walk need not consider edges back into head.
func hasDecrefBetween(head, tail *refir.Block, visited map[*refir.Block]bool) bool {
	if visited[head] {
		return false
	}
	if refir.HasDecref(head) {
		return true
	}
	visited[head] = true
	for _, succ := range head.Succs {
		if succ == tail {
			continue
		}
		if hasDecrefBetween(succ, tail, visited) {
			return true
		}
	}
	return false
}
