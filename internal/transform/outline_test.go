package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looptx/looptx/internal/ir"
	"github.com/looptx/looptx/internal/testutil"
	"github.com/looptx/looptx/internal/transform"
)

func TestOutline_EmptyInput(t *testing.T) {
	m := ir.NewModule()
	out, err := transform.Outline(m, nil, "body")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOutline_TwoLoopsSharingACapture(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 1)
	x := m.Get(f).Params[0]
	l1 := testutil.AccLoop(t, m, f, x, 0, 8, 1)
	l2 := testutil.AccLoop(t, m, f, x, 0, 4, 1)
	sum1 := m.Get(l1).Results[0]
	sum2 := m.Get(l2).Results[0]

	out, err := transform.Outline(m, []ir.OpRef{l1, l2}, "body")
	require.NoError(t, err)
	require.Len(t, out, 2)

	// First come, first named.
	assert.Equal(t, "body", m.Get(out[0]).Name)
	assert.Equal(t, "body_0", m.Get(out[1]).Name)
	got, ok := m.Symbol("body")
	require.True(t, ok)
	assert.Equal(t, out[0], got)

	// Each unit takes the loop's captured values as parameters: the
	// accumulator seed and the shared operand.
	assert.Len(t, m.Get(out[0]).Params, 2)
	assert.Len(t, m.Get(out[1]).Params, 2)

	// Originals are gone; the call sites adopted their result IDs.
	assert.False(t, m.Alive(l1))
	assert.False(t, m.Alive(l2))
	call1 := m.DefOf(sum1)
	require.NotEqual(t, ir.NilRef, call1)
	assert.Equal(t, ir.KindCall, m.Get(call1).Kind)
	assert.Equal(t, "body", m.Get(call1).Name)
	call2 := m.DefOf(sum2)
	require.NotEqual(t, ir.NilRef, call2)
	assert.Equal(t, "body_0", m.Get(call2).Name)

	// The outlined unit ends in a return of the cloned loop's results.
	unit := m.Get(out[0])
	require.Len(t, unit.Body, 2)
	assert.Equal(t, ir.KindLoop, m.Get(unit.Body[0]).Kind)
	ret := m.Get(unit.Body[1])
	assert.Equal(t, ir.KindReturn, ret.Kind)
	assert.Equal(t, m.Get(unit.Body[0]).Results, ret.Operands)
}

func TestOutline_NormalizesName(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 0)
	nest := testutil.Nest(t, m, f, 1)

	// Decomposed input, composed symbol.
	out, err := transform.Outline(m, []ir.OpRef{nest[0]}, "café")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "café", m.Get(out[0]).Name)
	_, ok := m.Symbol("café")
	assert.True(t, ok)
}

func TestOutline_NoSymbolTableAncestor(t *testing.T) {
	m := ir.NewModule()
	// A detached loop has no func root to allocate the name in.
	l := m.NewLoop(ir.ConstBound(0), ir.ConstBound(4), ir.ConstBound(1), nil)
	m.AppendToBody(l, m.NewYield())

	_, err := transform.Outline(m, []ir.OpRef{l}, "body")
	require.Error(t, err)
	assert.True(t, transform.IsCode(err, transform.CodeNoSymbolTableAncestor))
	assert.True(t, m.Alive(l))
}

func TestOutline_RejectsNestedElements(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 0)
	nest := testutil.Nest(t, m, f, 2)

	_, err := transform.Outline(m, []ir.OpRef{nest[0], nest[1]}, "body")
	require.Error(t, err)
	assert.True(t, transform.IsCode(err, transform.CodeInvalidAttribute))

	// All-or-nothing: nothing was touched.
	assert.True(t, m.Alive(nest[0]))
	assert.True(t, m.Alive(nest[1]))
	_, ok := m.Symbol("body")
	assert.False(t, ok)
}

func TestOutline_RejectsDuplicates(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 0)
	nest := testutil.Nest(t, m, f, 1)

	_, err := transform.Outline(m, []ir.OpRef{nest[0], nest[0]}, "body")
	require.Error(t, err)
	assert.True(t, transform.IsCode(err, transform.CodeInvalidAttribute))
	assert.True(t, m.Alive(nest[0]))
}

func TestOutline_RejectsEmptyName(t *testing.T) {
	m := ir.NewModule()
	_, err := transform.Outline(m, nil, "")
	require.Error(t, err)
	assert.True(t, transform.IsCode(err, transform.CodeInvalidAttribute))
}

func TestOutline_RejectsNonLoop(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 0)
	c := m.NewArith("const 1")
	m.AppendToBody(f, c)

	_, err := transform.Outline(m, []ir.OpRef{c}, "body")
	require.Error(t, err)
	assert.True(t, transform.IsCode(err, transform.CodeInvalidAttribute))
}
