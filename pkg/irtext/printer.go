package irtext

import (
	"fmt"
	"strings"

	"github.com/crankshaft/refprune/pkg/refir"
)

// Print renders fn in the textual IR format, suitable for re-parsing
// with ParseProgram and for the CLI's --dump-ir output.
func Print(fn *refir.Function) string {
	var sb strings.Builder
	labels := blockLabels(fn)

	fmt.Fprintf(&sb, "func %s {\n", fn.Name)
	for _, b := range fn.Blocks {
		fmt.Fprintf(&sb, "%s:\n", labels[b])
		for _, instr := range b.Instrs {
			sb.WriteString("  ")
			sb.WriteString(printInstr(instr, labels))
			sb.WriteString("\n")
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

// blockLabels assigns each block in fn a stable "bb<N>" label in
// function order, independent of Block.ID (which the parser only uses
// for display and never relies on for identity).
func blockLabels(fn *refir.Function) map[*refir.Block]string {
	labels := make(map[*refir.Block]string, len(fn.Blocks))
	for i, b := range fn.Blocks {
		labels[b] = fmt.Sprintf("bb%d", i)
	}
	return labels
}

func printInstr(i refir.Instr, labels map[*refir.Block]string) string {
	switch v := i.(type) {
	case *refir.Call:
		switch v.Callee {
		case refir.IncrefCallee:
			return "incref " + printOperand(refir.FirstArg(v))
		case refir.DecrefCallee:
			return "decref " + printOperand(refir.FirstArg(v))
		default:
			args := make([]string, len(v.Args))
			for i, a := range v.Args {
				args[i] = printOperand(a)
			}
			return fmt.Sprintf("call %s(%s)", v.Callee, strings.Join(args, ", "))
		}
	case *refir.Opaque:
		return fmt.Sprintf("opaque %q", v.Label)
	case *refir.Br:
		return "br " + labels[v.Target]
	case *refir.CondBr:
		return fmt.Sprintf("condbr %s, %s, %s", printOperand(v.Cond), labels[v.True], labels[v.False])
	case *refir.Ret:
		if v.RaiseExit {
			return "ret raise"
		}
		return "ret"
	default:
		return fmt.Sprintf("<unknown instr %T>", v)
	}
}

func printOperand(v refir.Value) string {
	switch t := v.(type) {
	case *refir.Temp:
		return "%" + t.Name
	case refir.NullConst:
		return "null"
	case nil:
		return "%<nil>"
	default:
		return fmt.Sprintf("%%<%T>", t)
	}
}
