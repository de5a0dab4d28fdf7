package transform

import "github.com/looptx/looptx/internal/ir"

// Peel splits each referenced loop into a main loop whose range is an exact
// multiple of the step plus a trailing epilogue covering the final partial
// iteration.
//
// Divisibility is judged statically, from the bound and step expressions
// alone. A loop whose bounds are not statically known is peeled
// pessimistically even if its range would divide evenly at run time. A loop
// that is provably divisible is forwarded unchanged — the identical
// reference appears in the output — unless failIfAlreadyDivisible is set, in
// which case the operation fails with ALREADY_DIVISIBLE at that element.
//
// Per-element: processing stops at the first failing element, but mutations
// committed for earlier elements stand. Peeled originals are deleted; the
// caller must invalidate handles that referenced them.
func Peel(m *ir.Module, refs []ir.OpRef, failIfAlreadyDivisible bool) (Outcome, error) {
	const op = "peel"
	var out Outcome

	for i, r := range refs {
		if err := checkLoopElement(m, op, i, r); err != nil {
			out.Statuses = append(out.Statuses, Status{Index: i, Err: err})
			return out, err
		}

		lop := m.Get(r)
		if lb, ub, step, ok := staticBounds(lop); ok {
			span := ub - lb
			if span < 0 {
				span = 0
			}
			if span%step == 0 {
				if failIfAlreadyDivisible {
					err := newError(CodeAlreadyDivisible, op, i,
						"loop range [%d, %d) is already divisible by step %d", lb, ub, step)
					out.Statuses = append(out.Statuses, Status{Index: i, Err: err})
					return out, err
				}
				// Already divisible: forward the same loop reference.
				out.Outputs = append(out.Outputs, r)
				out.Statuses = append(out.Statuses, Status{Index: i})
				continue
			}
			split := lb + (span/step)*step
			mainRef, _ := splitLoop(m, r, ir.ConstBound(split), nil)
			out.Outputs = append(out.Outputs, mainRef)
		} else {
			// Bounds not provable: peel pessimistically behind a symbolic
			// split bound computed ahead of the main loop.
			splitOp, splitBound := symbolicSplit(m, r, "peel.split")
			mainRef, _ := splitLoop(m, r, splitBound, []ir.OpRef{splitOp})
			out.Outputs = append(out.Outputs, mainRef)
		}
		out.Statuses = append(out.Statuses, Status{Index: i})
	}
	return out, nil
}

// checkLoopElement re-validates one handle element before mutation: the
// referenced operation must still be live (an earlier element of the same
// pass may have deleted it) and must be a loop.
func checkLoopElement(m *ir.Module, op string, i int, r ir.OpRef) *Error {
	target := m.Get(r)
	if target == nil {
		return newError(CodeUnknownHandle, op, i, "operation is no longer live")
	}
	if target.Kind != ir.KindLoop {
		return newError(CodeInvalidAttribute, op, i, "operation is not a loop")
	}
	return nil
}
