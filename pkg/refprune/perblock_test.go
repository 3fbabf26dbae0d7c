package refprune

import (
	"testing"

	"github.com/crankshaft/refprune/pkg/refir"
	"github.com/stretchr/testify/assert"
)

// TestPerBlockSingleBlockPair is spec scenario 1: incref %p; use %p;
// decref %p; ret. Both refops are removed, the opaque use and ret stay.
func TestPerBlockSingleBlockPair(t *testing.T) {
	p := &refir.Temp{Name: "p"}
	fn, b := singleBlockFunc("f", func(b *refir.Block) {
		b.Append(refir.NewCall(refir.IncrefCallee, p))
		b.Append(&refir.Opaque{Label: "use %p"})
		b.Append(refir.NewCall(refir.DecrefCallee, p))
		b.Append(&refir.Ret{})
	})

	pr := noopPruner()
	mutated := pr.PerBlock(fn)

	assert.True(t, mutated)
	assert.EqualValues(t, 2, pr.Stats.BasicBlock)
	assert.Equal(t, 0, countRefops(fn))
	assert.Len(t, b.Instrs, 2)
	_, isOpaque := b.Instrs[0].(*refir.Opaque)
	assert.True(t, isOpaque)
	_, isRet := b.Instrs[1].(*refir.Ret)
	assert.True(t, isRet)
}

// TestPerBlockNullDecref is spec scenario 2: decref null is deleted.
func TestPerBlockNullDecref(t *testing.T) {
	fn, b := singleBlockFunc("f", func(b *refir.Block) {
		b.Append(refir.NewCall(refir.DecrefCallee, refir.NullConst{}))
		b.Append(&refir.Ret{})
	})

	pr := noopPruner()
	mutated := pr.PerBlock(fn)

	assert.True(t, mutated)
	assert.EqualValues(t, 1, pr.Stats.BasicBlock)
	assert.Len(t, b.Instrs, 1)
}

func TestPerBlockUnmatchedIncrefRetained(t *testing.T) {
	p := &refir.Temp{Name: "p"}
	fn, b := singleBlockFunc("f", func(b *refir.Block) {
		b.Append(refir.NewCall(refir.IncrefCallee, p))
		b.Append(&refir.Ret{})
	})

	pr := noopPruner()
	mutated := pr.PerBlock(fn)

	assert.False(t, mutated)
	assert.Len(t, b.Instrs, 2)
}

func TestPerBlockEarliestDecrefWins(t *testing.T) {
	p := &refir.Temp{Name: "p"}
	dec1 := refir.NewCall(refir.DecrefCallee, p)
	dec2 := refir.NewCall(refir.DecrefCallee, p)
	fn, b := singleBlockFunc("f", func(b *refir.Block) {
		b.Append(dec1)
		b.Append(refir.NewCall(refir.IncrefCallee, p))
		b.Append(dec2)
		b.Append(&refir.Ret{})
	})
	_ = fn

	pr := noopPruner()
	pr.PerBlock(fn)

	// Decrefs are collected in source order regardless of position
	// relative to the incref, and the earliest remaining one wins the
	// tie-break: dec1 (textually first) is consumed, dec2 survives.
	assert.Equal(t, -1, b.Index(dec1))
	assert.NotEqual(t, -1, b.Index(dec2))
}
