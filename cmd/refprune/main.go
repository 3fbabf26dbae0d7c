package main

import (
	"fmt"
	"io"
	"os"

	"github.com/crankshaft/refprune/pkg/domtree"
	"github.com/crankshaft/refprune/pkg/irtext"
	"github.com/crankshaft/refprune/pkg/refir"
	"github.com/crankshaft/refprune/pkg/refprune"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// Flags mirror refprune.Pruner's own configuration surface plus the
// host-level reporting toggles; there is no config file, just package
// variables bound directly to pflag.
var (
	printStats        bool
	dumpIR            bool
	enableFanoutRaise bool
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "refprune [file]",
		Short: "refprune eliminates redundant incref/decref pairs from a textual CFG",
		Long: `refprune reads one or more function definitions in the textual IR
format from a file, runs the normalization and pruning passes over each,
and, with --print-stats, reports how many refcount operations were
eliminated.`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0], out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVar(&printStats, "print-stats", false, "print dump_refprune_stats-style counters after pruning")
	rootCmd.Flags().BoolVar(&dumpIR, "dump-ir", false, "dump the pruned IR of every function")
	rootCmd.Flags().BoolVar(&enableFanoutRaise, "enable-fanout-raise", false, "treat raise-exit returns as implicit fanout tails")

	return rootCmd
}

func runFile(filename string, out, errOut io.Writer) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "refprune: error reading %s: %v\n", filename, err)
		return err
	}

	fns, err := irtext.ParseProgram(string(content))
	if err != nil {
		fmt.Fprintf(errOut, "refprune: %s: %v\n", filename, err)
		return err
	}

	var opts []refprune.Option
	if enableFanoutRaise {
		opts = append(opts, refprune.WithFanoutRaise(true))
	}

	total := refprune.Stats{}
	for _, fn := range fns {
		pr := newPruner(fn, opts...)
		pr.Run(fn)
		total.BasicBlock += pr.Stats.BasicBlock
		total.Diamond += pr.Stats.Diamond
		total.Fanout += pr.Stats.Fanout
		total.FanoutRaise += pr.Stats.FanoutRaise

		if dumpIR {
			fmt.Fprintf(out, "%s", irtext.Print(fn))
			spew.Fdump(out, fn)
		}
	}

	if printStats {
		fmt.Fprintf(errOut, "refprune stats per-BB %d diamond %d fanout %d fanout+raise %d\n",
			total.BasicBlock, total.Diamond, total.Fanout, total.FanoutRaise)
	}
	return nil
}

// newPruner builds the dominator and post-dominator trees fn needs and
// hands them to a fresh Pruner — the host-level analogue of a pass
// manager scheduling dominance analyses ahead of the pruning pass.
func newPruner(fn *refir.Function, opts ...refprune.Option) *refprune.Pruner {
	forward := func(b *refir.Block) []*refir.Block { return b.Succs }
	backward := func(b *refir.Block) []*refir.Block { return b.Preds }

	dt := domtree.Build(fn.Entry, forward, backward)
	pdt := domtree.BuildPostDominatorTree(fn)

	return refprune.New(dt, pdt, opts...)
}
