package refir

// Instr is any instruction in a Block. The core only ever classifies and
// deletes Call instructions whose callee matches a refop name; everything
// else is opaque to it.
type Instr interface {
	instrMarker()
	// Block returns the block currently containing this instruction, or
	// nil if it has been removed.
	Block() *Block
	setBlock(*Block)
}

type base struct {
	block *Block
}

func (b *base) Block() *Block      { return b.block }
func (b *base) setBlock(bb *Block) { b.block = bb }

// Call is a direct call instruction. Callee is matched by textual name
// only (no demangling, no indirect calls) per the intrinsic-name
// contract: a refop is a Call whose Callee is exactly "NRT_incref" or
// "NRT_decref".
type Call struct {
	base
	Callee string
	Args   []Value
}

func (*Call) instrMarker() {}

// NewCall builds a Call instruction with the given callee and arguments.
// It is not yet attached to any block; Block.Append/InsertBefore does
// that.
func NewCall(callee string, args ...Value) *Call {
	return &Call{Callee: callee, Args: args}
}

// Opaque stands in for any instruction the core never inspects: loads,
// stores, arithmetic, user calls that aren't refops, phi nodes, etc. Label
// is free-form and exists only so tests and the text printer have
// something to render.
type Opaque struct {
	base
	Label string
}

func (*Opaque) instrMarker() {}

// Terminator is implemented by every block-ending instruction. The core
// never moves or deletes a terminator; it finds a block's successors
// through Block.Succs, which Function.Finalize derives from the
// terminator's targets.
type Terminator interface {
	Instr
	terminatorMarker()
}

// Ret ends a block with no successors. RaiseExit marks a return block as
// the original's "ret_is_raise" case: fanout-through-raise treats such a
// block as if it contained a matching decref, even with none present.
type Ret struct {
	base
	RaiseExit bool
}

func (*Ret) instrMarker()      {}
func (*Ret) terminatorMarker() {}

// Br is an unconditional branch to a single successor block.
type Br struct {
	base
	Target *Block
}

func (*Br) instrMarker()      {}
func (*Br) terminatorMarker() {}

// CondBr is a conditional branch to one of two successor blocks. Cond is
// opaque to the core; only the successor set matters here.
type CondBr struct {
	base
	Cond        Value
	True, False *Block
}

func (*CondBr) instrMarker()      {}
func (*CondBr) terminatorMarker() {}
