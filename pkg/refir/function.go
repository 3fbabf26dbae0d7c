package refir

// Function is an ordered collection of basic blocks with a designated
// entry block. Blocks is kept in source/insertion order; that order
// drives every core traversal that claims to be deterministic.
type Function struct {
	Name   string
	Blocks []*Block
	Entry  *Block
}

// NewFunction creates an empty function. Call AddBlock to populate it,
// then Finalize once all terminators are in place.
func NewFunction(name string) *Function {
	return &Function{Name: name}
}

// AddBlock appends a block to the function. The first block added becomes
// the entry block unless Entry is set explicitly afterwards.
func (f *Function) AddBlock(b *Block) {
	f.Blocks = append(f.Blocks, b)
	if f.Entry == nil {
		f.Entry = b
	}
}

// Finalize derives each block's Succs/Preds from its terminator. It must
// be called once after a function's blocks and terminators are fully
// built (the text assembler and any direct test construction both call
// it) and must be called again if a terminator's target set changes —
// the core itself never does that, it only deletes refop Calls.
func (f *Function) Finalize() {
	for _, b := range f.Blocks {
		b.Succs = nil
	}
	for _, b := range f.Blocks {
		switch t := b.Terminator().(type) {
		case *Br:
			b.Succs = append(b.Succs, t.Target)
		case *CondBr:
			b.Succs = append(b.Succs, t.True, t.False)
		case *Ret:
			// no successors
		}
	}
	for _, b := range f.Blocks {
		b.Preds = nil
	}
	for _, b := range f.Blocks {
		for _, s := range b.Succs {
			s.Preds = append(s.Preds, b)
		}
	}
}

// ExitBlocks returns every block ending in Ret, in block order.
func (f *Function) ExitBlocks() []*Block {
	var out []*Block
	for _, b := range f.Blocks {
		if _, ok := b.Terminator().(*Ret); ok {
			out = append(out, b)
		}
	}
	return out
}
