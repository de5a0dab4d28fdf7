package ir

import (
	"fmt"
	"strings"
)

// Print renders the module in its textual form. Output is deterministic for
// a given construction order, which is what the golden tests rely on.
func (m *Module) Print() string {
	var b strings.Builder
	for i, f := range m.Funcs() {
		if i > 0 {
			b.WriteString("\n")
		}
		m.printOp(&b, f, 0)
	}
	return b.String()
}

func (m *Module) printOp(b *strings.Builder, r OpRef, depth int) {
	op := m.Get(r)
	if op == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)

	switch op.Kind {
	case KindFunc:
		fmt.Fprintf(b, "func @%s(%s) {\n", op.Name, valueList(op.Params))
		m.printBody(b, op, depth)
		b.WriteString(indent + "}\n")

	case KindLoop:
		fmt.Fprintf(b, "loop %s = %s to %s step %s",
			valueName(op.IndVar), m.bound(op.Lower), m.bound(op.Upper), m.bound(op.Step))
		if len(op.IterArgs) > 0 {
			pairs := make([]string, len(op.IterArgs))
			for i := range op.IterArgs {
				pairs[i] = fmt.Sprintf("%s = %s", valueName(op.IterArgs[i]), valueName(op.IterInits[i]))
			}
			fmt.Fprintf(b, " iter(%s) -> (%s)", strings.Join(pairs, ", "), valueList(op.Results))
		}
		b.WriteString(" {\n")
		m.printBody(b, op, depth)
		b.WriteString(indent + "}\n")

	case KindArith:
		fmt.Fprintf(b, "%s = arith %q", valueName(op.Results[0]), op.Name)
		if len(op.Operands) > 0 {
			fmt.Fprintf(b, " %s", valueList(op.Operands))
		}
		b.WriteString("\n")

	case KindMemRead:
		fmt.Fprintf(b, "%s = read %s\n", valueName(op.Results[0]), m.address(op))

	case KindMemGather:
		fmt.Fprintf(b, "%s = gather %s[%s]\n",
			valueName(op.Results[0]), valueName(op.Base), valueName(op.Index))

	case KindMemWrite:
		fmt.Fprintf(b, "write %s, %s\n", m.address(op), valueName(op.Operands[0]))

	case KindCall:
		if len(op.Results) > 0 {
			fmt.Fprintf(b, "%s = ", valueList(op.Results))
		}
		fmt.Fprintf(b, "call @%s(%s)\n", op.Name, valueList(op.Operands))

	case KindYield:
		b.WriteString(terminator("yield", op.Operands))

	case KindReturn:
		b.WriteString(terminator("return", op.Operands))
	}
}

func (m *Module) printBody(b *strings.Builder, op *Operation, depth int) {
	// op's body slice is copied first: printOp only reads, but keeping the
	// iteration independent of the arena backing array is cheap.
	body := append([]OpRef(nil), op.Body...)
	for _, child := range body {
		m.printOp(b, child, depth+1)
	}
}

func (m *Module) address(op *Operation) string {
	if op.Offset != 0 {
		return fmt.Sprintf("%s[%s + %d]", valueName(op.Base), valueName(op.Index), op.Offset)
	}
	return fmt.Sprintf("%s[%s]", valueName(op.Base), valueName(op.Index))
}

func (m *Module) bound(b Bound) string {
	if b.Known {
		return fmt.Sprintf("%d", b.Const)
	}
	return valueName(b.Sym)
}

func terminator(mnemonic string, operands []ValueID) string {
	if len(operands) == 0 {
		return mnemonic + "\n"
	}
	return fmt.Sprintf("%s %s\n", mnemonic, valueList(operands))
}

func valueName(v ValueID) string {
	return fmt.Sprintf("%%%d", int(v))
}

func valueList(vs []ValueID) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = valueName(v)
	}
	return strings.Join(parts, ", ")
}
