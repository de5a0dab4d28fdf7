package transform

import (
	"fmt"

	"github.com/looptx/looptx/internal/ir"
)

// Unroll replicates each referenced loop's body to reduce per-iteration
// control overhead. The effective factor is min(factor, static trip count)
// when the trip count is statically known, else the requested factor.
//
// When the effective factor equals the full static trip count the loop
// control is eliminated entirely: the body is expanded in place once per
// iteration and the loop operation deleted. When the static trip count is
// not a multiple of the factor — or is not provable at all — the loop is
// first split so the unrolled main part covers an exact multiple, with a
// rolled epilogue covering the remainder.
//
// Unroll is one-way: it reports per-element success or failure and never
// produces a result handle. Per-element: a failing element does not roll
// back loops already unrolled.
func Unroll(m *ir.Module, refs []ir.OpRef, factor int) (Outcome, error) {
	const op = "unroll"
	var out Outcome
	if factor <= 0 {
		return out, newError(CodeInvalidAttribute, op, -1, "factor must be positive, got %d", factor)
	}

	for i, r := range refs {
		if err := unrollOne(m, op, i, r, factor); err != nil {
			out.Statuses = append(out.Statuses, Status{Index: i, Err: err})
			continue
		}
		out.Statuses = append(out.Statuses, Status{Index: i})
	}
	if err := out.failed(); err != nil {
		return out, err
	}
	return out, nil
}

func unrollOne(m *ir.Module, op string, i int, r ir.OpRef, factor int) *Error {
	if err := checkLoopElement(m, op, i, r); err != nil {
		return err
	}

	trip, known := staticTrip(m.Get(r))
	if known && int64(factor) >= trip {
		fullUnroll(m, r, trip)
		return nil
	}

	target := r
	if known {
		if rem := trip % int64(factor); rem != 0 {
			lb, _, step, _ := staticBounds(m.Get(r))
			split := lb + (trip-rem)*step
			target, _ = splitLoop(m, r, ir.ConstBound(split), nil)
		}
	} else {
		// Trip count not provable: split pessimistically so the unrolled
		// main loop is safe for any runtime range.
		splitOp, splitBound := symbolicSplit(m, r, fmt.Sprintf("unroll.split %d", factor))
		target, _ = splitLoop(m, r, splitBound, []ir.OpRef{splitOp})
	}
	unrollInPlace(m, target, int64(factor))
	return nil
}

// fullUnroll expands the loop body once per iteration at the loop site and
// deletes the loop. Loop results are rebound to the final carried values
// (or the inits, for a zero-trip loop).
func fullUnroll(m *ir.Module, r ir.OpRef, trip int64) {
	lop := m.Get(r)
	parent := lop.Parent
	lb, _, step, _ := staticBounds(lop)
	indVar := lop.IndVar
	body := append([]ir.OpRef(nil), lop.Body...)
	origArgs := append([]ir.ValueID(nil), lop.IterArgs...)
	carried := append([]ir.ValueID(nil), lop.IterInits...)
	origResults := append([]ir.ValueID(nil), lop.Results...)
	yieldOps := yieldOperands(m, body)

	var repl []ir.OpRef
	for j := int64(0); j < trip; j++ {
		ivOp, ivVal := constIndex(m, lb+j*step)
		repl = append(repl, ivOp)

		vmap := map[ir.ValueID]ir.ValueID{indVar: ivVal}
		for q, a := range origArgs {
			vmap[a] = carried[q]
		}
		for _, c := range body {
			if m.Get(c).Kind == ir.KindYield {
				continue
			}
			repl = append(repl, m.CloneTree(c, vmap))
		}
		for q := range carried {
			if q < len(yieldOps) {
				carried[q] = remapThrough(vmap, yieldOps[q])
			}
		}
	}
	for q, res := range origResults {
		cp := m.NewArith("copy", carried[q])
		m.AdoptResults(cp, []ir.ValueID{res})
		repl = append(repl, cp)
	}

	m.ReplaceOp(parent, r, repl...)
	m.Kill(r)
}

// unrollInPlace replicates the loop body factor times per control-flow
// iteration and scales the step. The loop's range must be an exact multiple
// of factor iterations; callers split beforehand.
func unrollInPlace(m *ir.Module, r ir.OpRef, factor int64) {
	lop := m.Get(r)
	indVar := lop.IndVar
	stepBound := lop.Step
	body := append([]ir.OpRef(nil), lop.Body...)
	origArgs := append([]ir.ValueID(nil), lop.IterArgs...)
	yieldOps := yieldOperands(m, body)
	yieldRef := findYield(m, body)

	newBody := make([]ir.OpRef, 0, len(body)*int(factor))
	for _, c := range body {
		if c != yieldRef {
			newBody = append(newBody, c)
		}
	}

	// Replica 0 is the original body; its outgoing carried values are the
	// original yield operands. Replicas 1..factor-1 are clones at offset k
	// steps, chained through carried.
	carried := append([]ir.ValueID(nil), yieldOps...)
	for k := int64(1); k < factor; k++ {
		offOps, ivK := ivPlus(m, indVar, stepBound, k)
		newBody = append(newBody, offOps...)

		vmap := map[ir.ValueID]ir.ValueID{indVar: ivK}
		for q, a := range origArgs {
			vmap[a] = carried[q]
		}
		for _, c := range body {
			if c == yieldRef {
				continue
			}
			newBody = append(newBody, m.CloneTree(c, vmap))
		}
		for q := range carried {
			carried[q] = remapThrough(vmap, yieldOps[q])
		}
	}

	// Scale the step. A symbolic step picks up a multiply ahead of the loop.
	if stepBound.Known {
		m.Get(r).Step = ir.ConstBound(stepBound.Const * factor)
	} else {
		mul := m.NewArith(fmt.Sprintf("mulc %d", factor), stepBound.Sym)
		m.InsertBefore(m.Get(r).Parent, r, mul)
		m.Get(r).Step = ir.SymBound(m.Get(mul).Results[0])
	}

	// Terminator: forward the last replica's carried values.
	if yieldRef != ir.NilRef {
		yop := m.Get(yieldRef)
		yop.Operands = append(yop.Operands[:0], carried...)
		newBody = append(newBody, yieldRef)
	}
	lop = m.Get(r)
	lop.Body = newBody
	for _, c := range newBody {
		m.Get(c).Parent = r
	}
}

// ivPlus materializes the induction variable offset by k steps.
func ivPlus(m *ir.Module, iv ir.ValueID, step ir.Bound, k int64) ([]ir.OpRef, ir.ValueID) {
	if step.Known {
		add := m.NewArith(fmt.Sprintf("addc %d", k*step.Const), iv)
		return []ir.OpRef{add}, m.Get(add).Results[0]
	}
	mul := m.NewArith(fmt.Sprintf("mulc %d", k), step.Sym)
	add := m.NewArith("add", iv, m.Get(mul).Results[0])
	return []ir.OpRef{mul, add}, m.Get(add).Results[0]
}

// yieldOperands returns a copy of the body terminator's operands, or nil
// when the loop carries no values.
func yieldOperands(m *ir.Module, body []ir.OpRef) []ir.ValueID {
	y := findYield(m, body)
	if y == ir.NilRef {
		return nil
	}
	return append([]ir.ValueID(nil), m.Get(y).Operands...)
}

func findYield(m *ir.Module, body []ir.OpRef) ir.OpRef {
	for _, c := range body {
		if op := m.Get(c); op != nil && op.Kind == ir.KindYield {
			return c
		}
	}
	return ir.NilRef
}
