package refprune

import "github.com/crankshaft/refprune/pkg/refir"

// DomProvider is the abstract interface the diamond and fanout pruners
// query for dominance; domtree.Tree satisfies it for both the dominator
// tree and (built over the reverse CFG) the post-dominator tree. The
// core never recomputes either; the host — here, Pruner's caller —
// supplies fresh ones per Run.
type DomProvider interface {
	Dominates(a, b *refir.Block) bool
	DominatesInstr(a, b refir.Instr) bool
}

// Pruner owns one function-pass invocation's dominance analyses,
// accumulated statistics, and configuration. Statistics persist across
// Run calls on the same Pruner, matching the core's "process-wide,
// monotone" counter contract; callers that want per-process semantics
// keep one Pruner per process, as spec's design notes recommend.
type Pruner struct {
	DT, PDT DomProvider
	Stats   Stats

	// EnableFanoutRaise turns on the fanout-through-raise variant
	// (spec §4.5/§9): a Ret block with RaiseExit set counts as a tail
	// even without a decref. Disabled by default, matching the
	// original design's "present but disabled" hook.
	EnableFanoutRaise bool
}

// Option configures a Pruner at construction time.
type Option func(*Pruner)

// WithFanoutRaise enables the fanout-through-raise variant.
func WithFanoutRaise(enabled bool) Option {
	return func(p *Pruner) { p.EnableFanoutRaise = enabled }
}

// New creates a Pruner from dominance providers the caller has already
// built for the function it will run on, the way a host pass manager
// would build DT/PDT before scheduling the pruning pass (spec §6's
// "analysis dependencies"). The DT/PDT supplied here become stale the
// moment a block's terminator changes; the core never does that, so
// they remain valid for that function's lifetime.
func New(dt, pdt DomProvider, opts ...Option) *Pruner {
	p := &Pruner{DT: dt, PDT: pdt}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes Normalize once, then loops {PerBlock, Diamond, Fanout}
// until a full iteration produces no mutation — the Pass Driver of
// spec §4.6. It returns the number of iterations of the pruning loop
// that ran (at least 1).
func (p *Pruner) Run(fn *refir.Function) int {
	Normalize(fn)

	iterations := 0
	for {
		iterations++
		mutated := p.PerBlock(fn)
		mutated = p.Diamond(fn) || mutated
		mutated = p.Fanout(fn) || mutated
		if !mutated {
			return iterations
		}
	}
}
