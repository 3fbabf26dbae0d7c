package refprune

import "github.com/crankshaft/refprune/pkg/refir"

// PerBlock eliminates, within each block independently, every null-
// argument refop and every incref/decref pair related by pointer
// identity. It assumes Normalize has already run (all decrefs in a
// block trail all increfs), though the pairing logic below holds
// regardless of ordering within the block.
func (p *Pruner) PerBlock(fn *refir.Function) bool {
	mutated := false
	for _, b := range fn.Blocks {
		mutated = p.perBlock(b) || mutated
	}
	return mutated
}

func (p *Pruner) perBlock(b *refir.Block) bool {
	mutated := false

	// Step 1: drop every refop whose first argument is a null constant.
	var null []refir.Instr
	for _, i := range b.Instrs {
		if refir.IsNullRefop(i) {
			null = append(null, i)
		}
	}
	for _, i := range null {
		b.Remove(i)
		p.Stats.BasicBlock++
		mutated = true
	}

	// Step 2: classify what's left into increfs and decrefs, in source
	// order, then match each incref (from the end) against the earliest
	// still-live related decref.
	var increfs, decrefs []refir.Instr
	for _, i := range b.Instrs {
		switch {
		case refir.IsIncref(i):
			increfs = append(increfs, i)
		case refir.IsDecref(i):
			decrefs = append(decrefs, i)
		}
	}

	consumed := make(map[refir.Instr]bool, len(decrefs))
	for len(increfs) > 0 {
		inc := increfs[len(increfs)-1]
		increfs = increfs[:len(increfs)-1]

		var match refir.Instr
		for _, d := range decrefs {
			if consumed[d] {
				continue
			}
			if refir.Related(inc, d) {
				match = d
				break
			}
		}
		if match == nil {
			continue // no matching decref; incref is retained
		}
		consumed[match] = true
		b.Remove(inc)
		b.Remove(match)
		p.Stats.BasicBlock += 2
		mutated = true
	}

	return mutated
}
