package transform

import (
	"fmt"

	"github.com/looptx/looptx/internal/ir"
)

// staticBounds extracts a loop's bounds when all three are statically known
// and the step is positive. Anything else is treated as non-static: the
// callers then prove nothing and fall back to their pessimistic paths.
func staticBounds(op *ir.Operation) (lb, ub, step int64, ok bool) {
	if !op.Lower.Known || !op.Upper.Known || !op.Step.Known || op.Step.Const <= 0 {
		return 0, 0, 0, false
	}
	return op.Lower.Const, op.Upper.Const, op.Step.Const, true
}

// staticTrip returns the loop's statically provable trip count.
func staticTrip(op *ir.Operation) (int64, bool) {
	lb, ub, step, ok := staticBounds(op)
	if !ok {
		return 0, false
	}
	span := ub - lb
	if span <= 0 {
		return 0, true
	}
	return ceilDiv(span, step), true
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// boundSyms collects the symbolic values among a loop's bounds, in
// lower/upper/step order.
func boundSyms(op *ir.Operation) []ir.ValueID {
	var out []ir.ValueID
	for _, b := range []ir.Bound{op.Lower, op.Upper, op.Step} {
		if !b.Known && b.Sym != ir.NilValue {
			out = append(out, b.Sym)
		}
	}
	return out
}

// symbolicSplit materializes a split bound that cannot be computed
// statically: an arith op reading the loop's symbolic bounds whose result is
// the epilogue's first index. The op is returned detached for the caller to
// insert ahead of the main loop.
func symbolicSplit(m *ir.Module, loop ir.OpRef, mnemonic string) (ir.OpRef, ir.Bound) {
	op := m.Get(loop)
	split := m.NewArith(mnemonic, boundSyms(op)...)
	return split, ir.SymBound(m.Get(split).Results[0])
}

// splitLoop replaces the loop at r with a main/epilogue pair: main covers
// [lower, splitBound) and the epilogue [splitBound, upper), both with the
// original step. Loop-carried state threads through: the epilogue's inits
// are the main loop's results, and the epilogue adopts the original loop's
// result IDs so external uses keep resolving. preOps (typically the op
// computing a symbolic splitBound) are spliced in ahead of the main loop.
//
// The original loop is deleted; callers must treat handles to it as
// consumed.
func splitLoop(m *ir.Module, r ir.OpRef, splitBound ir.Bound, preOps []ir.OpRef) (mainRef, epiRef ir.OpRef) {
	parent := m.Get(r).Parent
	origResults := append([]ir.ValueID(nil), m.Get(r).Results...)

	mainRef = m.CloneTree(r, make(map[ir.ValueID]ir.ValueID))
	epiRef = m.CloneTree(r, make(map[ir.ValueID]ir.ValueID))

	// All arena growth is done; pointers below stay valid.
	mainOp := m.Get(mainRef)
	mainOp.Upper = splitBound

	epiOp := m.Get(epiRef)
	epiOp.Lower = splitBound
	epiOp.IterInits = append([]ir.ValueID(nil), mainOp.Results...)
	m.AdoptResults(epiRef, origResults)

	repl := append(append([]ir.OpRef(nil), preOps...), mainRef, epiRef)
	m.ReplaceOp(parent, r, repl...)
	m.Kill(r)
	return mainRef, epiRef
}

// constIndex materializes the constant value of the induction variable for
// one concrete iteration.
func constIndex(m *ir.Module, value int64) (ir.OpRef, ir.ValueID) {
	op := m.NewArith(fmt.Sprintf("const %d", value))
	return op, m.Get(op).Results[0]
}
