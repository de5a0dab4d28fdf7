package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/looptx/looptx/internal/ir"
)

// Func creates an empty func with the given number of parameters.
func Func(t *testing.T, m *ir.Module, name string, nparams int) ir.OpRef {
	t.Helper()
	f, err := m.NewFunc(name, nparams)
	require.NoError(t, err)
	return f
}

// StreamLoop appends to parent a loop that reads src, writes dst and yields
// nothing:
//
//	loop %i = lb to ub step st {
//	  %v = read %src[%i]
//	  write %dst[%i], %v
//	  yield
//	}
func StreamLoop(t *testing.T, m *ir.Module, parent ir.OpRef, src, dst ir.ValueID, lb, ub, st int64) ir.OpRef {
	t.Helper()
	l := m.NewLoop(ir.ConstBound(lb), ir.ConstBound(ub), ir.ConstBound(st), nil)
	m.AppendToBody(parent, l)
	iv := m.Get(l).IndVar

	rd := m.NewRead(src, iv, 0)
	m.AppendToBody(l, rd)
	wr := m.NewWrite(dst, iv, 0, m.Get(rd).Results[0])
	m.AppendToBody(l, wr)
	m.AppendToBody(l, m.NewYield())
	return l
}

// AccLoop appends to parent a loop carrying one accumulator seeded by a
// fresh constant:
//
//	%c = arith "const 0"
//	loop %i = lb to ub step st iter(%acc = %c) -> (%sum) {
//	  %n = arith "add" %acc, %x
//	  yield %n
//	}
//
// where %x is the given captured operand.
func AccLoop(t *testing.T, m *ir.Module, parent ir.OpRef, captured ir.ValueID, lb, ub, st int64) ir.OpRef {
	t.Helper()
	c := m.NewArith("const 0")
	m.AppendToBody(parent, c)
	init := m.Get(c).Results[0]

	l := m.NewLoop(ir.ConstBound(lb), ir.ConstBound(ub), ir.ConstBound(st), []ir.ValueID{init})
	m.AppendToBody(parent, l)
	acc := m.Get(l).IterArgs[0]

	add := m.NewArith("add", acc, captured)
	m.AppendToBody(l, add)
	m.AppendToBody(l, m.NewYield(m.Get(add).Results[0]))
	return l
}

// Nest appends to parent a nest of depth counted loops and returns them from
// outermost to innermost. The innermost loop carries a single arith op so
// the nest has a non-loop leaf to anchor ancestor walks on.
func Nest(t *testing.T, m *ir.Module, parent ir.OpRef, depth int) []ir.OpRef {
	t.Helper()
	require.Positive(t, depth)

	loops := make([]ir.OpRef, 0, depth)
	cur := parent
	for i := 0; i < depth; i++ {
		l := m.NewLoop(ir.ConstBound(0), ir.ConstBound(4), ir.ConstBound(1), nil)
		m.AppendToBody(cur, l)
		loops = append(loops, l)
		cur = l
	}
	leaf := m.NewArith("const 1")
	m.AppendToBody(cur, leaf)
	for i := len(loops) - 1; i >= 0; i-- {
		m.AppendToBody(loops[i], m.NewYield())
	}
	return loops
}

// Leaf returns the first non-loop operation in the body of l.
func Leaf(t *testing.T, m *ir.Module, l ir.OpRef) ir.OpRef {
	t.Helper()
	for _, c := range m.Get(l).Body {
		if m.Get(c).Kind != ir.KindLoop && m.Get(c).Kind != ir.KindYield {
			return c
		}
	}
	t.Fatal("loop has no non-loop leaf")
	return ir.NilRef
}
