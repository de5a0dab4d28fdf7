package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModule_PushAndGet(t *testing.T) {
	m := NewModule()
	f, err := m.NewFunc("main", 2)
	require.NoError(t, err)

	op := m.Get(f)
	require.NotNil(t, op)
	assert.Equal(t, KindFunc, op.Kind)
	assert.Equal(t, "main", op.Name)
	assert.Len(t, op.Params, 2)

	// Params are defined by the func.
	for _, p := range op.Params {
		assert.Equal(t, f, m.DefOf(p))
	}
}

func TestModule_NewFuncRejectsDuplicates(t *testing.T) {
	m := NewModule()
	_, err := m.NewFunc("main", 0)
	require.NoError(t, err)

	_, err = m.NewFunc("main", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already defined")
}

func TestModule_KillTombstonesSubtree(t *testing.T) {
	m := NewModule()
	f, err := m.NewFunc("main", 0)
	require.NoError(t, err)

	l := m.NewLoop(ConstBound(0), ConstBound(10), ConstBound(1), nil)
	m.AppendToBody(f, l)
	body := m.NewArith("const 1")
	m.AppendToBody(l, body)

	m.Kill(l)

	assert.False(t, m.Alive(l))
	assert.False(t, m.Alive(body), "killing a loop must tombstone its body")
	assert.True(t, m.Alive(f))
	assert.Nil(t, m.Get(l))
}

func TestModule_ParentOf(t *testing.T) {
	m := NewModule()
	f, err := m.NewFunc("main", 0)
	require.NoError(t, err)
	l := m.NewLoop(ConstBound(0), ConstBound(4), ConstBound(1), nil)
	m.AppendToBody(f, l)

	p, ok := m.ParentOf(l)
	require.True(t, ok)
	assert.Equal(t, f, p)

	_, ok = m.ParentOf(f)
	assert.False(t, ok, "roots have no parent")
}

func TestModule_UniqueName(t *testing.T) {
	m := NewModule()
	assert.Equal(t, "body", m.UniqueName("body"))

	_, err := m.NewFunc("body", 0)
	require.NoError(t, err)
	assert.Equal(t, "body_0", m.UniqueName("body"))

	_, err = m.NewFunc("body_0", 0)
	require.NoError(t, err)
	assert.Equal(t, "body_1", m.UniqueName("body"))
}

func TestModule_LoopCarriedPlumbing(t *testing.T) {
	m := NewModule()
	f, err := m.NewFunc("main", 0)
	require.NoError(t, err)
	c := m.NewArith("const 0")
	m.AppendToBody(f, c)
	init := m.Get(c).Results[0]

	l := m.NewLoop(ConstBound(0), ConstBound(8), ConstBound(2), []ValueID{init})
	m.AppendToBody(f, l)

	op := m.Get(l)
	require.Len(t, op.IterArgs, 1)
	require.Len(t, op.IterInits, 1)
	require.Len(t, op.Results, 1)
	assert.Equal(t, init, op.IterInits[0])
	assert.Equal(t, l, m.DefOf(op.IterArgs[0]))
	assert.Equal(t, l, m.DefOf(op.IndVar))
	assert.Equal(t, l, m.DefOf(op.Results[0]))
}

func TestModule_ReplaceOpSplices(t *testing.T) {
	m := NewModule()
	f, err := m.NewFunc("main", 0)
	require.NoError(t, err)
	a := m.NewArith("a")
	b := m.NewArith("b")
	c := m.NewArith("c")
	m.AppendToBody(f, a)
	m.AppendToBody(f, b)

	m.ReplaceOp(f, a, c)

	assert.Equal(t, []OpRef{c, b}, m.Get(f).Body)
	assert.Equal(t, f, m.Get(c).Parent)
	assert.Equal(t, NilRef, m.Get(a).Parent, "replaced op is detached but not killed")
}

func TestModule_InsertBefore(t *testing.T) {
	m := NewModule()
	f, err := m.NewFunc("main", 0)
	require.NoError(t, err)
	a := m.NewArith("a")
	b := m.NewArith("b")
	m.AppendToBody(f, a)

	m.InsertBefore(f, a, b)

	assert.Equal(t, []OpRef{b, a}, m.Get(f).Body)
}
