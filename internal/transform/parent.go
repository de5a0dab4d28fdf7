package transform

import "github.com/looptx/looptx/internal/ir"

// GetParentFor resolves, for each referenced operation, its numLoops-th
// enclosing loop. The operation is all-or-nothing: if any element has fewer
// than numLoops loop ancestors it fails with NO_SUCH_ANCESTOR and the IR is
// untouched (the walk never mutates anyway).
//
// The result preserves input order, except that when two elements share
// their numLoops-th ancestor the shared loop appears once, at the position
// of its first occurrence. Cardinality is therefore ≤ len(refs).
func GetParentFor(m *ir.Module, refs []ir.OpRef, numLoops int) ([]ir.OpRef, error) {
	const op = "get_parent_for"
	if numLoops <= 0 {
		return nil, newError(CodeInvalidAttribute, op, -1, "num_loops must be positive, got %d", numLoops)
	}

	out := make([]ir.OpRef, 0, len(refs))
	seen := make(map[ir.OpRef]bool)
	for i, r := range refs {
		if !m.Alive(r) {
			return nil, newError(CodeUnknownHandle, op, i, "operation is no longer live")
		}
		loop, ok := nthEnclosingLoop(m, r, numLoops)
		if !ok {
			return nil, newError(CodeNoSuchAncestor, op, i,
				"operation has fewer than %d enclosing loops", numLoops)
		}
		if !seen[loop] {
			seen[loop] = true
			out = append(out, loop)
		}
	}
	return out, nil
}

// nthEnclosingLoop walks the ancestor chain of r, counting only loop
// ancestors, and returns the n-th one.
func nthEnclosingLoop(m *ir.Module, r ir.OpRef, n int) (ir.OpRef, bool) {
	cur := r
	for n > 0 {
		p, ok := m.ParentOf(cur)
		if !ok {
			return ir.NilRef, false
		}
		cur = p
		if m.Get(cur).Kind == ir.KindLoop {
			n--
		}
	}
	return cur, true
}
