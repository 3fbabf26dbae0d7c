package refprune

import "github.com/crankshaft/refprune/pkg/refir"

// singleBlockFunc builds a one-block function whose body is built before
// the terminator is appended by build, then finalizes it.
func singleBlockFunc(name string, build func(b *refir.Block)) (*refir.Function, *refir.Block) {
	fn := refir.NewFunction(name)
	b := refir.NewBlock(0)
	build(b)
	fn.AddBlock(b)
	fn.Finalize()
	return fn, b
}

// countRefops counts remaining incref/decref calls across every block.
func countRefops(fn *refir.Function) int {
	n := 0
	for _, b := range fn.Blocks {
		for _, i := range b.Instrs {
			if refir.IsIncref(i) || refir.IsDecref(i) {
				n++
			}
		}
	}
	return n
}

// noopPruner returns a Pruner whose DT/PDT are never consulted, for
// tests exercising PerBlock alone.
func noopPruner() *Pruner {
	return &Pruner{}
}
