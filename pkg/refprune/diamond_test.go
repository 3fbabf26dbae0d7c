package refprune

import (
	"testing"

	"github.com/crankshaft/refprune/pkg/domtree"
	"github.com/crankshaft/refprune/pkg/refir"
	"github.com/stretchr/testify/assert"
)

func forwardSucc(b *refir.Block) []*refir.Block { return b.Succs }
func backwardPred(b *refir.Block) []*refir.Block { return b.Preds }

func buildDiamondPruner(fn *refir.Function) *Pruner {
	dt := domtree.Build(fn.Entry, forwardSucc, backwardPred)
	pdt := domtree.BuildPostDominatorTree(fn)
	return New(dt, pdt)
}

// TestDiamondEliminatesPair is spec scenario 3.
func TestDiamondEliminatesPair(t *testing.T) {
	p := &refir.Temp{Name: "p"}
	fn := refir.NewFunction("diamond")
	a, b, c, d := refir.NewBlock(0), refir.NewBlock(1), refir.NewBlock(2), refir.NewBlock(3)
	a.Append(refir.NewCall(refir.IncrefCallee, p))
	a.Append(&refir.CondBr{True: b, False: c})
	b.Append(&refir.Br{Target: d})
	c.Append(&refir.Br{Target: d})
	d.Append(refir.NewCall(refir.DecrefCallee, p))
	d.Append(&refir.Ret{})
	fn.AddBlock(a)
	fn.AddBlock(b)
	fn.AddBlock(c)
	fn.AddBlock(d)
	fn.Finalize()

	pr := buildDiamondPruner(fn)
	mutated := pr.Diamond(fn)

	assert.True(t, mutated)
	assert.EqualValues(t, 2, pr.Stats.Diamond)
	assert.Equal(t, 0, countRefops(fn))
}

// TestDiamondRejectsOnNonPostDominatingExit reproduces the counterexample
// a PDT rooted at one real exit gets wrong: E increfs and branches to A
// (which decrefs and returns) or B (which returns directly). A does not
// post-dominate E — the E->B path reaches a return without ever touching
// A — so Diamond must leave both refops alone rather than pair them.
func TestDiamondRejectsOnNonPostDominatingExit(t *testing.T) {
	p := &refir.Temp{Name: "p"}
	fn := refir.NewFunction("diamond")
	e, a, b := refir.NewBlock(0), refir.NewBlock(1), refir.NewBlock(2)
	e.Append(refir.NewCall(refir.IncrefCallee, p))
	e.Append(&refir.CondBr{True: a, False: b})
	a.Append(refir.NewCall(refir.DecrefCallee, p))
	a.Append(&refir.Ret{})
	b.Append(&refir.Ret{})
	fn.AddBlock(e)
	fn.AddBlock(a)
	fn.AddBlock(b)
	fn.Finalize()

	pr := buildDiamondPruner(fn)
	mutated := pr.Diamond(fn)

	assert.False(t, mutated)
	assert.EqualValues(t, 0, pr.Stats.Diamond)
	assert.Equal(t, 2, countRefops(fn))
}

// TestDiamondRejectsOnInterference is spec scenario 4: B contains a
// decref on a different pointer, which still blocks the diamond rule
// (interference is on any pointer).
func TestDiamondRejectsOnInterference(t *testing.T) {
	p, q := &refir.Temp{Name: "p"}, &refir.Temp{Name: "q"}
	fn := refir.NewFunction("diamond")
	a, b, c, d := refir.NewBlock(0), refir.NewBlock(1), refir.NewBlock(2), refir.NewBlock(3)
	a.Append(refir.NewCall(refir.IncrefCallee, p))
	a.Append(&refir.CondBr{True: b, False: c})
	b.Append(refir.NewCall(refir.DecrefCallee, q))
	b.Append(&refir.Br{Target: d})
	c.Append(&refir.Br{Target: d})
	d.Append(refir.NewCall(refir.DecrefCallee, p))
	d.Append(&refir.Ret{})
	fn.AddBlock(a)
	fn.AddBlock(b)
	fn.AddBlock(c)
	fn.AddBlock(d)
	fn.Finalize()

	pr := buildDiamondPruner(fn)
	mutated := pr.Diamond(fn)

	assert.False(t, mutated)
	assert.EqualValues(t, 0, pr.Stats.Diamond)
	assert.Equal(t, 2, countRefops(fn))
}
