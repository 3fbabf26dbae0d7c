// Package refprune implements the two-pass refcount pruning core: block
// normalization followed by iterative per-block, diamond, and fanout
// elimination of redundant NRT_incref/NRT_decref pairs.
package refprune

import "github.com/crankshaft/refprune/pkg/refir"

// Normalize hoists every decref in a block to immediately before that
// block's terminator, for every block that contains at least one incref.
// It establishes the precondition every pruner below depends on: within
// a normalized block no decref precedes an incref.
//
// This reordering is sound because incref/decref calls are pure with
// respect to SSA values and the runtime guarantees a block is never
// interrupted mid-sequence; reordering decrefs after increfs on
// possibly-distinct pointers doesn't change observable behavior.
func Normalize(fn *refir.Function) bool {
	mutated := false
	for _, b := range fn.Blocks {
		if !blockHasIncref(b) {
			continue
		}
		var decrefs []refir.Instr
		for _, i := range b.Instrs {
			if refir.IsDecref(i) {
				decrefs = append(decrefs, i)
			}
		}
		if len(decrefs) == 0 {
			continue
		}
		term := b.Terminator()
		for _, d := range decrefs {
			b.MoveBefore(d, term)
		}
		mutated = true
	}
	return mutated
}

func blockHasIncref(b *refir.Block) bool {
	for _, i := range b.Instrs {
		if refir.IsIncref(i) {
			return true
		}
	}
	return false
}
