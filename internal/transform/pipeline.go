package transform

import "github.com/looptx/looptx/internal/ir"

// PipelineOptions control the software-pipelining schedule.
type PipelineOptions struct {
	// IterationInterval is the number of cycles between successive iteration
	// starts. Default 1.
	IterationInterval int

	// ReadLatency is the number of cycles a structured read takes to land.
	// Default 10.
	ReadLatency int
}

func (o PipelineOptions) withDefaults() PipelineOptions {
	if o.IterationInterval == 0 {
		o.IterationInterval = 1
	}
	if o.ReadLatency == 0 {
		o.ReadLatency = 10
	}
	return o
}

// Pipeline re-schedules each referenced loop's memory traffic across
// iteration boundaries: reads are hoisted ahead of the loop entry, writes
// (with the rest of the trailing compute) are delayed past the loop exit,
// and the in-flight values thread through new loop-carried iteration
// arguments so that iteration i consumes data fetched read_latency cycles
// earlier.
//
// The supported class is structured reads and writes whose address is the
// induction variable plus a constant. Indirect gathers — and anything else
// that cannot be re-scheduled across iterations — fail that element with
// UNSUPPORTED_MEMORY_OP. The trip count must be statically provable and at
// least the read latency, else LOOP_TOO_SHORT_TO_PIPELINE.
//
// Per-element: a failing element does not affect loops already processed,
// and later elements are still attempted. Loops are transformed in place,
// so the output forwards the same references, order preserved.
func Pipeline(m *ir.Module, refs []ir.OpRef, opts PipelineOptions) (Outcome, error) {
	const op = "pipeline"
	opts = opts.withDefaults()
	var out Outcome
	if opts.IterationInterval < 1 {
		return out, newError(CodeInvalidAttribute, op, -1,
			"iteration_interval must be positive, got %d", opts.IterationInterval)
	}
	if opts.ReadLatency < 1 {
		return out, newError(CodeInvalidAttribute, op, -1,
			"read_latency must be positive, got %d", opts.ReadLatency)
	}

	for i, r := range refs {
		if err := pipelineOne(m, op, i, r, opts); err != nil {
			out.Statuses = append(out.Statuses, Status{Index: i, Err: err})
			continue
		}
		out.Outputs = append(out.Outputs, r)
		out.Statuses = append(out.Statuses, Status{Index: i})
	}
	if err := out.failed(); err != nil {
		return out, err
	}
	return out, nil
}

func pipelineOne(m *ir.Module, op string, i int, r ir.OpRef, opts PipelineOptions) *Error {
	if err := checkLoopElement(m, op, i, r); err != nil {
		return err
	}
	trip, ok := staticTrip(m.Get(r))
	if !ok {
		return newError(CodeLoopTooShortToPipeline, op, i,
			"trip count is not statically provable")
	}
	if trip < int64(opts.ReadLatency) {
		return newError(CodeLoopTooShortToPipeline, op, i,
			"static trip count %d is below read latency %d", trip, opts.ReadLatency)
	}

	body := append([]ir.OpRef(nil), m.Get(r).Body...)
	var reads []ir.OpRef
	yieldRef := ir.NilRef
	for _, c := range body {
		cop := m.Get(c)
		switch cop.Kind {
		case ir.KindMemRead:
			reads = append(reads, c)
		case ir.KindMemWrite, ir.KindArith:
			// Supported: re-schedulable.
		case ir.KindYield:
			yieldRef = c
		case ir.KindMemGather:
			return newError(CodeUnsupportedMemoryOp, op, i,
				"indirect gather reads cannot be re-scheduled across iterations")
		default:
			return newError(CodeUnsupportedMemoryOp, op, i,
				"loop body contains %s, which cannot be re-scheduled across iterations", cop.Kind)
		}
	}
	if len(reads) == 0 {
		// Nothing in flight: the loop is trivially pipelined.
		return nil
	}

	lb, _, step, _ := staticBounds(m.Get(r))
	// In-flight depth: with one iteration issued every iteration_interval
	// cycles, this many iterations separate a read from its consumer.
	depth := ceilDiv(int64(opts.ReadLatency), int64(opts.IterationInterval))
	if depth > trip {
		depth = trip
	}

	parent := m.Get(r).Parent
	indVar := m.Get(r).IndVar
	nOrig := len(m.Get(r).IterArgs)
	origArgs := append([]ir.ValueID(nil), m.Get(r).IterArgs...)
	readResults := make([]ir.ValueID, len(reads))
	for k, rd := range reads {
		readResults[k] = m.Get(rd).Results[0]
	}

	// Prologue: fetch the first depth iterations' reads ahead of entry.
	var preOps []ir.OpRef
	prologue := make([][]ir.ValueID, len(reads))
	for k := range prologue {
		prologue[k] = make([]ir.ValueID, depth)
	}
	for j := int64(0); j < depth; j++ {
		ivOp, ivVal := constIndex(m, lb+j*step)
		preOps = append(preOps, ivOp)
		for k, rd := range reads {
			rop := m.Get(rd)
			pr := m.NewRead(rop.Base, ivVal, rop.Offset)
			preOps = append(preOps, pr)
			prologue[k][j] = m.Get(pr).Results[0]
		}
	}

	// The epilogue will rebind the loop's original result IDs; the loop
	// itself carries on with fresh ones.
	origResults := m.RenewResults(r)

	// One shift-register lane per read, depth entries deep: lane[k][j] is
	// the value iteration i+j will consume.
	laneArgs := make([][]ir.ValueID, len(reads))
	laneResults := make([][]ir.ValueID, len(reads))
	for k := range reads {
		laneArgs[k] = make([]ir.ValueID, depth)
		laneResults[k] = make([]ir.ValueID, depth)
		for j := int64(0); j < depth; j++ {
			laneArgs[k][j], laneResults[k][j] = m.AddIterArg(r, prologue[k][j])
		}
	}

	// Body rewiring: consumers switch to the lane head, and the read itself
	// prefetches depth iterations ahead, feeding the tail of the shift.
	for k, rd := range reads {
		replaceUsesIn(m, body, readResults[k], laneArgs[k][0], rd)
		m.Get(rd).Offset += depth * step
	}

	// The last depth iterations finish after the exit.
	m.Get(r).Upper = ir.ConstBound(lb + (trip-depth)*step)

	// Extend the yield: shift each lane down one and append the new read.
	if yieldRef == ir.NilRef {
		yieldRef = m.NewYield()
		m.AppendToBody(r, yieldRef)
	}
	yieldOperands := append([]ir.ValueID(nil), m.Get(yieldRef).Operands[:nOrig]...)
	for k := range reads {
		yop := m.Get(yieldRef)
		yop.Operands = append(yop.Operands, laneArgs[k][1:]...)
		yop.Operands = append(yop.Operands, readResults[k])
	}

	// Epilogue: replay compute and writes for the final depth iterations,
	// consuming the values still in flight at exit.
	var postOps []ir.OpRef
	carried := append([]ir.ValueID(nil), m.Get(r).Results[:nOrig]...)
	for t := int64(0); t < depth; t++ {
		ivOp, ivVal := constIndex(m, lb+(trip-depth+t)*step)
		postOps = append(postOps, ivOp)

		vmap := map[ir.ValueID]ir.ValueID{indVar: ivVal}
		for k := range reads {
			vmap[laneArgs[k][0]] = laneResults[k][t]
		}
		for q := 0; q < nOrig; q++ {
			vmap[origArgs[q]] = carried[q]
		}
		for _, c := range body {
			kind := m.Get(c).Kind
			if kind == ir.KindMemRead || kind == ir.KindYield {
				continue
			}
			postOps = append(postOps, m.CloneTree(c, vmap))
		}
		for q := 0; q < nOrig; q++ {
			carried[q] = remapThrough(vmap, yieldOperands[q])
		}
	}
	for q, orig := range origResults {
		cp := m.NewArith("copy", carried[q])
		m.AdoptResults(cp, []ir.ValueID{orig})
		postOps = append(postOps, cp)
	}

	m.InsertBefore(parent, r, preOps...)
	m.InsertAfter(parent, r, postOps...)
	return nil
}

// replaceUsesIn rewires every use of from to to within the given operations,
// skipping the operation that defines from.
func replaceUsesIn(m *ir.Module, ops []ir.OpRef, from, to ir.ValueID, skip ir.OpRef) {
	for _, r := range ops {
		if r == skip {
			continue
		}
		op := m.Get(r)
		if op == nil {
			continue
		}
		for i, v := range op.Operands {
			if v == from {
				op.Operands[i] = to
			}
		}
		if op.Base == from {
			op.Base = to
		}
		if op.Index == from {
			op.Index = to
		}
	}
}

func remapThrough(vmap map[ir.ValueID]ir.ValueID, v ir.ValueID) ir.ValueID {
	if nv, ok := vmap[v]; ok {
		return nv
	}
	return v
}
