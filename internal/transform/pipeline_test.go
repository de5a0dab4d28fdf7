package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looptx/looptx/internal/ir"
	"github.com/looptx/looptx/internal/testutil"
	"github.com/looptx/looptx/internal/transform"
)

func TestPipeline_EmptyInput(t *testing.T) {
	m := ir.NewModule()
	out, err := transform.Pipeline(m, nil, transform.PipelineOptions{})
	require.NoError(t, err)
	assert.Empty(t, out.Outputs)
}

func TestPipeline_StreamLoopWithDefaults(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 2)
	src, dst := m.Get(f).Params[0], m.Get(f).Params[1]
	l := testutil.StreamLoop(t, m, f, src, dst, 0, 16, 1)

	out, err := transform.Pipeline(m, []ir.OpRef{l}, transform.PipelineOptions{})
	require.NoError(t, err)
	require.Equal(t, []ir.OpRef{l}, out.Outputs)

	// Default read latency 10 at interval 1: 10 iterations in flight.
	lop := m.Get(l)
	assert.Equal(t, ir.ConstBound(6), lop.Upper)
	assert.Len(t, lop.IterInits, 10)
	assert.Len(t, lop.IterArgs, 10)
	assert.Len(t, lop.Results, 10)

	// The in-loop read prefetches 10 iterations ahead.
	var rd *ir.Operation
	for _, c := range lop.Body {
		if op := m.Get(c); op.Kind == ir.KindMemRead {
			rd = op
		}
	}
	require.NotNil(t, rd)
	assert.Equal(t, int64(10), rd.Offset)

	// The yield shifts each lane down one slot and feeds the new read in at
	// the tail.
	var yield *ir.Operation
	for _, c := range lop.Body {
		if op := m.Get(c); op.Kind == ir.KindYield {
			yield = op
		}
	}
	require.NotNil(t, yield)
	require.Len(t, yield.Operands, 10)
	assert.Equal(t, lop.IterArgs[1:], yield.Operands[:9])
	assert.Equal(t, rd.Results[0], yield.Operands[9])

	// Prologue ahead of the loop: an index constant plus a read per in-flight
	// iteration. Epilogue behind it: an index constant plus the replayed
	// write per drained iteration.
	body := m.Get(f).Body
	idx := -1
	for i, c := range body {
		if c == l {
			idx = i
		}
	}
	require.Equal(t, 20, idx)
	preReads := 0
	for _, c := range body[:idx] {
		if m.Get(c).Kind == ir.KindMemRead {
			preReads++
		}
	}
	assert.Equal(t, 10, preReads)
	postWrites := 0
	for _, c := range body[idx+1:] {
		if m.Get(c).Kind == ir.KindMemWrite {
			postWrites++
		}
	}
	assert.Equal(t, 10, postWrites)

	// The prologue seeds the lanes in iteration order.
	firstRead := m.Get(body[1])
	require.Equal(t, ir.KindMemRead, firstRead.Kind)
	assert.Equal(t, firstRead.Results[0], lop.IterInits[0])
}

func TestPipeline_DepthFollowsIterationInterval(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 2)
	src, dst := m.Get(f).Params[0], m.Get(f).Params[1]
	l := testutil.StreamLoop(t, m, f, src, dst, 0, 8, 1)

	opts := transform.PipelineOptions{IterationInterval: 2, ReadLatency: 4}
	_, err := transform.Pipeline(m, []ir.OpRef{l}, opts)
	require.NoError(t, err)

	// ceil(4/2) = 2 iterations in flight.
	lop := m.Get(l)
	assert.Equal(t, ir.ConstBound(6), lop.Upper)
	assert.Len(t, lop.IterArgs, 2)
}

func TestPipeline_TooShortDoesNotAffectSiblings(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 2)
	src, dst := m.Get(f).Params[0], m.Get(f).Params[1]
	short := testutil.StreamLoop(t, m, f, src, dst, 0, 3, 1)
	long := testutil.StreamLoop(t, m, f, src, dst, 0, 16, 1)

	out, err := transform.Pipeline(m, []ir.OpRef{short, long}, transform.PipelineOptions{})
	require.Error(t, err)
	assert.True(t, transform.IsCode(err, transform.CodeLoopTooShortToPipeline))

	require.Len(t, out.Statuses, 2)
	require.NotNil(t, out.Statuses[0].Err)
	assert.Equal(t, transform.CodeLoopTooShortToPipeline, out.Statuses[0].Err.Code)
	assert.Nil(t, out.Statuses[1].Err)
	assert.Equal(t, []ir.OpRef{long}, out.Outputs)

	// The failing loop is untouched, the sibling is transformed.
	assert.Equal(t, ir.ConstBound(3), m.Get(short).Upper)
	assert.Empty(t, m.Get(short).IterArgs)
	assert.Equal(t, ir.ConstBound(6), m.Get(long).Upper)
}

func TestPipeline_SymbolicTripIsTooShort(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 1)
	ub := m.Get(f).Params[0]
	l := m.NewLoop(ir.ConstBound(0), ir.SymBound(ub), ir.ConstBound(1), nil)
	m.AppendToBody(f, l)
	m.AppendToBody(l, m.NewYield())

	_, err := transform.Pipeline(m, []ir.OpRef{l}, transform.PipelineOptions{})
	require.Error(t, err)
	assert.True(t, transform.IsCode(err, transform.CodeLoopTooShortToPipeline))
}

func TestPipeline_GatherUnsupported(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 2)
	base, idxBuf := m.Get(f).Params[0], m.Get(f).Params[1]
	l := m.NewLoop(ir.ConstBound(0), ir.ConstBound(16), ir.ConstBound(1), nil)
	m.AppendToBody(f, l)
	iv := m.Get(l).IndVar
	ix := m.NewRead(idxBuf, iv, 0)
	m.AppendToBody(l, ix)
	g := m.NewGather(base, m.Get(ix).Results[0])
	m.AppendToBody(l, g)
	m.AppendToBody(l, m.NewYield())

	out, err := transform.Pipeline(m, []ir.OpRef{l}, transform.PipelineOptions{})
	require.Error(t, err)
	assert.True(t, transform.IsCode(err, transform.CodeUnsupportedMemoryOp))
	assert.Empty(t, out.Outputs)
	assert.Equal(t, ir.ConstBound(16), m.Get(l).Upper)
}

func TestPipeline_InnerLoopUnsupported(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 0)
	nest := testutil.Nest(t, m, f, 2)

	_, err := transform.Pipeline(m, []ir.OpRef{nest[0]}, transform.PipelineOptions{})
	require.Error(t, err)
	assert.True(t, transform.IsCode(err, transform.CodeUnsupportedMemoryOp))
}

func TestPipeline_NoReadsForwardsUnchanged(t *testing.T) {
	m := ir.NewModule()
	f := testutil.Func(t, m, "main", 1)
	x := m.Get(f).Params[0]
	l := testutil.AccLoop(t, m, f, x, 0, 32, 1)

	out, err := transform.Pipeline(m, []ir.OpRef{l}, transform.PipelineOptions{})
	require.NoError(t, err)
	require.Equal(t, []ir.OpRef{l}, out.Outputs)
	assert.Equal(t, ir.ConstBound(32), m.Get(l).Upper)
	assert.Len(t, m.Get(l).IterArgs, 1)
}

func TestPipeline_RejectsBadOptions(t *testing.T) {
	m := ir.NewModule()
	_, err := transform.Pipeline(m, nil, transform.PipelineOptions{IterationInterval: -1})
	require.Error(t, err)
	assert.True(t, transform.IsCode(err, transform.CodeInvalidAttribute))

	_, err = transform.Pipeline(m, nil, transform.PipelineOptions{ReadLatency: -3})
	require.Error(t, err)
	assert.True(t, transform.IsCode(err, transform.CodeInvalidAttribute))
}
