package refprune

import (
	"fmt"
	"io"
)

// Stats holds the four process-wide counters the core maintains. They
// are monotonically increasing for the process lifetime; resetting is
// not supported.
type Stats struct {
	BasicBlock  uint64
	Diamond     uint64
	Fanout      uint64
	FanoutRaise uint64
}

// Snapshot returns a copy of s, safe to read after the pass has moved on.
func (s *Stats) Snapshot() Stats {
	return *s
}

// DumpStats is the host-facing dump_refprune_stats entry point: it
// copies the current counters into out and, if doPrint is true,
// additionally writes one line to w in the fixed wire format:
//
//	refprune stats per-BB <b> diamond <d> fanout <f> fanout+raise <r>
func (p *Pruner) DumpStats(out *Stats, w io.Writer, doPrint bool) {
	*out = p.Stats.Snapshot()
	if !doPrint {
		return
	}
	fmt.Fprintf(w, "refprune stats per-BB %d diamond %d fanout %d fanout+raise %d\n",
		out.BasicBlock, out.Diamond, out.Fanout, out.FanoutRaise)
}
