package refir

import "testing"

func TestAppendAndIndex(t *testing.T) {
	b := NewBlock(0)
	c1 := &Opaque{Label: "a"}
	c2 := &Opaque{Label: "b"}
	b.Append(c1)
	b.Append(c2)

	if b.Index(c1) != 0 || b.Index(c2) != 1 {
		t.Fatalf("unexpected indices after append")
	}
	if c1.Block() != b || c2.Block() != b {
		t.Fatalf("expected both instructions to report b as their block")
	}
}

func TestTerminatorOfEmptyBlockIsNil(t *testing.T) {
	b := NewBlock(0)
	if b.Terminator() != nil {
		t.Fatalf("expected nil terminator for an empty block")
	}
}

func TestRemove(t *testing.T) {
	b := NewBlock(0)
	c1 := &Opaque{Label: "a"}
	c2 := &Opaque{Label: "b"}
	b.Append(c1)
	b.Append(c2)

	b.Remove(c1)
	if b.Index(c1) != -1 {
		t.Fatalf("expected c1 to be gone")
	}
	if c1.Block() != nil {
		t.Fatalf("expected removed instruction to report a nil block")
	}
	if len(b.Instrs) != 1 || b.Instrs[0] != Instr(c2) {
		t.Fatalf("expected only c2 to remain")
	}
}

func TestRemoveOfAbsentInstructionIsNoop(t *testing.T) {
	b := NewBlock(0)
	c := &Opaque{Label: "a"}
	b.Remove(c) // never appended
}

func TestInsertBefore(t *testing.T) {
	b := NewBlock(0)
	term := &Ret{}
	b.Append(term)
	mid := &Opaque{Label: "mid"}
	b.InsertBefore(mid, term)

	if b.Index(mid) != 0 || b.Index(term) != 1 {
		t.Fatalf("expected mid inserted before the terminator")
	}
}

func TestMoveBeforePreservesRelativeOrder(t *testing.T) {
	b := NewBlock(0)
	term := &Ret{}
	i1 := &Opaque{Label: "1"}
	i2 := &Opaque{Label: "2"}
	i3 := &Opaque{Label: "3"}
	b.Append(i1)
	b.Append(i2)
	b.Append(i3)
	b.Append(term)

	b.MoveBefore(i1, term)
	b.MoveBefore(i3, term)

	if b.Index(i2) != 0 {
		t.Fatalf("expected i2 to stay in place at index 0")
	}
	if b.Index(i1) >= b.Index(i3) {
		t.Fatalf("expected i1 to remain before i3 after both were moved")
	}
	if b.Index(term) != len(b.Instrs)-1 {
		t.Fatalf("terminator must remain last")
	}
}

func TestMoveBeforeOfInstructionInAnotherBlockIsNoop(t *testing.T) {
	b1 := NewBlock(0)
	b2 := NewBlock(1)
	term := &Ret{}
	b2.Append(term)
	i := &Opaque{Label: "x"}
	b1.Append(i)

	b2.MoveBefore(i, term)
	if i.Block() != b1 {
		t.Fatalf("expected instruction from a foreign block to be left untouched")
	}
}

func TestCalls(t *testing.T) {
	b := NewBlock(0)
	p := &Temp{Name: "p"}
	call := NewCall(IncrefCallee, p)
	b.Append(&Opaque{Label: "noop"})
	b.Append(call)
	b.Append(&Ret{})

	calls := b.Calls()
	if len(calls) != 1 || calls[0] != call {
		t.Fatalf("expected Calls to return exactly the one Call instruction")
	}
}
