package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looptx/looptx/internal/ir"
	"github.com/looptx/looptx/internal/testutil"
	"github.com/looptx/looptx/internal/transform"
)

func TestPeel_EmptyInput(t *testing.T) {
	m := ir.NewModule()
	out, err := transform.Peel(m, nil, false)
	require.NoError(t, err)
	assert.Empty(t, out.Outputs)
	assert.Empty(t, out.Statuses)
}

func TestPeel_AlreadyDivisibleForwardsUnchanged(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 2)
	src, dst := m.Get(f).Params[0], m.Get(f).Params[1]
	l := testutil.StreamLoop(t, m, f, src, dst, 0, 10, 2)

	out, err := transform.Peel(m, []ir.OpRef{l}, false)
	require.NoError(t, err)
	require.Equal(t, []ir.OpRef{l}, out.Outputs)
	assert.True(t, m.Alive(l))
	assert.Equal(t, ir.ConstBound(10), m.Get(l).Upper)
}

func TestPeel_AlreadyDivisibleFails(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 2)
	src, dst := m.Get(f).Params[0], m.Get(f).Params[1]
	l := testutil.StreamLoop(t, m, f, src, dst, 0, 10, 2)

	out, err := transform.Peel(m, []ir.OpRef{l}, true)
	require.Error(t, err)
	assert.True(t, transform.IsCode(err, transform.CodeAlreadyDivisible))
	assert.Empty(t, out.Outputs)
	require.Len(t, out.Statuses, 1)
	require.NotNil(t, out.Statuses[0].Err)
	assert.Equal(t, transform.CodeAlreadyDivisible, out.Statuses[0].Err.Code)
	assert.True(t, m.Alive(l))
}

func TestPeel_StaticRemainder(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 1)
	x := m.Get(f).Params[0]
	l := testutil.AccLoop(t, m, f, x, 0, 10, 3)
	sum := m.Get(l).Results[0]

	out, err := transform.Peel(m, []ir.OpRef{l}, false)
	require.NoError(t, err)
	require.Len(t, out.Outputs, 1)
	assert.False(t, m.Alive(l))

	main := out.Outputs[0]
	mainOp := m.Get(main)
	assert.Equal(t, ir.ConstBound(0), mainOp.Lower)
	assert.Equal(t, ir.ConstBound(9), mainOp.Upper)
	assert.Equal(t, ir.ConstBound(3), mainOp.Step)

	// The epilogue sits right behind the main loop, starts where it stopped,
	// and continues its carried state.
	body := m.Get(f).Body
	idx := -1
	for i, c := range body {
		if c == main {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	require.Less(t, idx+1, len(body))
	epi := m.Get(body[idx+1])
	assert.Equal(t, ir.KindLoop, epi.Kind)
	assert.Equal(t, ir.ConstBound(9), epi.Lower)
	assert.Equal(t, ir.ConstBound(10), epi.Upper)
	assert.Equal(t, mainOp.Results, epi.IterInits)

	// External uses of the original result resolve to the epilogue.
	assert.Equal(t, body[idx+1], m.DefOf(sum))
}

func TestPeel_SymbolicBoundsPeelPessimistically(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 1)
	ub := m.Get(f).Params[0]
	l := m.NewLoop(ir.ConstBound(0), ir.SymBound(ub), ir.ConstBound(2), nil)
	m.AppendToBody(f, l)
	m.AppendToBody(l, m.NewYield())

	out, err := transform.Peel(m, []ir.OpRef{l}, false)
	require.NoError(t, err)
	require.Len(t, out.Outputs, 1)
	assert.False(t, m.Alive(l))

	main := m.Get(out.Outputs[0])
	require.False(t, main.Upper.Known)

	// The split bound is computed from the symbolic bounds ahead of the loop.
	splitOp := m.DefOf(main.Upper.Sym)
	require.NotEqual(t, ir.NilRef, splitOp)
	assert.Equal(t, ir.KindArith, m.Get(splitOp).Kind)
	assert.Equal(t, "peel.split", m.Get(splitOp).Name)
	assert.Equal(t, []ir.ValueID{ub}, m.Get(splitOp).Operands)

	body := m.Get(f).Body
	require.Len(t, body, 3)
	assert.Equal(t, splitOp, body[0])
	epi := m.Get(body[2])
	assert.Equal(t, ir.KindLoop, epi.Kind)
	assert.Equal(t, main.Upper, epi.Lower)
	assert.Equal(t, ir.SymBound(ub), epi.Upper)
}

func TestPeel_StopsAtFirstFailureKeepingCommittedWork(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 2)
	src, dst := m.Get(f).Params[0], m.Get(f).Params[1]
	ragged := testutil.StreamLoop(t, m, f, src, dst, 0, 10, 3)
	even := testutil.StreamLoop(t, m, f, src, dst, 0, 10, 2)

	out, err := transform.Peel(m, []ir.OpRef{ragged, even}, true)
	require.Error(t, err)
	assert.True(t, transform.IsCode(err, transform.CodeAlreadyDivisible))

	// Element 0 committed before element 1 failed.
	require.Len(t, out.Statuses, 2)
	assert.Nil(t, out.Statuses[0].Err)
	require.NotNil(t, out.Statuses[1].Err)
	assert.Equal(t, 1, out.Statuses[1].Err.Element)
	require.Len(t, out.Outputs, 1)
	assert.False(t, m.Alive(ragged))
	assert.True(t, m.Alive(even))
}

func TestPeel_RejectsNonLoop(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 0)
	c := m.NewArith("const 1")
	m.AppendToBody(f, c)

	out, err := transform.Peel(m, []ir.OpRef{c}, false)
	require.Error(t, err)
	assert.True(t, transform.IsCode(err, transform.CodeInvalidAttribute))
	assert.Empty(t, out.Outputs)
}

func TestPeel_DeadElement(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 2)
	src, dst := m.Get(f).Params[0], m.Get(f).Params[1]
	l := testutil.StreamLoop(t, m, f, src, dst, 0, 10, 3)
	m.Kill(l)

	_, err := transform.Peel(m, []ir.OpRef{l}, false)
	require.Error(t, err)
	assert.True(t, transform.IsCode(err, transform.CodeUnknownHandle))
}
