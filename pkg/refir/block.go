package refir

// Block is an ordered sequence of instructions ending in a Terminator.
// Preds and Succs are insertion-ordered and fixed once the owning
// Function has been finalized: the core only ever deletes refop Call
// instructions, never a terminator, so block-level edges never change
// across a pass run.
type Block struct {
	ID     int
	Instrs []Instr
	Preds  []*Block
	Succs  []*Block
}

// NewBlock creates an empty block with the given ID. Use Append to add
// instructions, ending with exactly one Terminator.
func NewBlock(id int) *Block {
	return &Block{ID: id}
}

// Append adds an instruction to the end of the block and attaches it.
func (b *Block) Append(i Instr) {
	i.setBlock(b)
	b.Instrs = append(b.Instrs, i)
}

// Terminator returns the block's terminating instruction, or nil if the
// block is empty (malformed input; the core never constructs such a
// block itself).
func (b *Block) Terminator() Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	return b.Instrs[len(b.Instrs)-1]
}

// Index returns the position of i within the block's instruction list,
// or -1 if i is not (or no longer) in this block.
func (b *Block) Index(i Instr) int {
	for idx, cur := range b.Instrs {
		if cur == i {
			return idx
		}
	}
	return -1
}

// Remove deletes an instruction from the block. It is the only mutation
// primitive the pruners use to eliminate refops.
func (b *Block) Remove(i Instr) {
	idx := b.Index(i)
	if idx < 0 {
		return
	}
	b.Instrs = append(b.Instrs[:idx], b.Instrs[idx+1:]...)
	i.setBlock(nil)
}

// InsertBefore inserts i immediately before mark in the block, attaching
// i to the block. Used by Normalize to hoist decrefs to the tail.
func (b *Block) InsertBefore(i Instr, mark Instr) {
	idx := b.Index(mark)
	if idx < 0 {
		b.Append(i)
		return
	}
	i.setBlock(b)
	b.Instrs = append(b.Instrs, nil)
	copy(b.Instrs[idx+1:], b.Instrs[idx:])
	b.Instrs[idx] = i
}

// MoveBefore relocates an already-present instruction to immediately
// before mark, preserving relative order among other moved instructions
// when called in sequence. This is Normalize's core primitive, mirroring
// CallInst::moveBefore in the original LLVM pass.
func (b *Block) MoveBefore(i Instr, mark Instr) {
	if i.Block() != b {
		return
	}
	b.Remove(i)
	b.InsertBefore(i, mark)
}

// Calls returns every Call instruction in the block, in source order.
func (b *Block) Calls() []*Call {
	var out []*Call
	for _, i := range b.Instrs {
		if c, ok := i.(*Call); ok {
			out = append(out, c)
		}
	}
	return out
}
