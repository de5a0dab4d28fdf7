package transform

import (
	"golang.org/x/text/unicode/norm"

	"github.com/looptx/looptx/internal/ir"
)

// Outline extracts each referenced loop into a new callable unit. The unit's
// parameters are exactly the values the loop captures from its surroundings,
// in first-use order; the loop site is replaced by a call passing those
// values and receiving the loop's results.
//
// baseName is a suggestion: it is NFC-normalized, and when the symbol table
// already holds the name a disambiguating suffix is appended (base, base_0,
// base_1, ...). Every element must be rooted under a symbol-table-bearing
// func, or the whole operation fails with NO_SYMBOL_TABLE_ANCESTOR.
//
// All-or-nothing: every element is validated before the first mutation.
// Returns the new funcs in input order. The original loops are deleted, so
// the caller must invalidate handles that referenced them.
func Outline(m *ir.Module, refs []ir.OpRef, baseName string) ([]ir.OpRef, error) {
	const op = "outline"
	if baseName == "" {
		return nil, newError(CodeInvalidAttribute, op, -1, "func_name must be non-empty")
	}
	base := norm.NFC.String(baseName)

	// Validation pass. Overlapping elements (one loop nested in another from
	// the same list) are rejected here: outlining the outer one would delete
	// the inner one mid-operation and break the all-or-nothing contract.
	inList := make(map[ir.OpRef]bool, len(refs))
	for _, r := range refs {
		inList[r] = true
	}
	seen := make(map[ir.OpRef]bool, len(refs))
	for i, r := range refs {
		if seen[r] {
			return nil, newError(CodeInvalidAttribute, op, i, "duplicate loop reference")
		}
		seen[r] = true
		target := m.Get(r)
		if target == nil {
			return nil, newError(CodeUnknownHandle, op, i, "operation is no longer live")
		}
		if target.Kind != ir.KindLoop {
			return nil, newError(CodeInvalidAttribute, op, i, "operation is not a loop")
		}
		if _, ok := m.RootFunc(r); !ok {
			return nil, newError(CodeNoSymbolTableAncestor, op, i,
				"payload root has no symbol table")
		}
		for cur, ok := m.ParentOf(r); ok; cur, ok = m.ParentOf(cur) {
			if inList[cur] {
				return nil, newError(CodeInvalidAttribute, op, i,
					"loop is nested inside another loop of the same handle")
			}
		}
	}

	out := make([]ir.OpRef, 0, len(refs))
	for _, r := range refs {
		out = append(out, outlineOne(m, r, base))
	}
	return out, nil
}

func outlineOne(m *ir.Module, r ir.OpRef, base string) ir.OpRef {
	parent := m.Get(r).Parent
	captured := m.CapturedValues(r)
	origResults := append([]ir.ValueID(nil), m.Get(r).Results...)

	name := m.UniqueName(base)
	f, _ := m.NewFunc(name, len(captured))

	// Captured values become parameters inside the unit.
	vmap := make(map[ir.ValueID]ir.ValueID, len(captured))
	params := append([]ir.ValueID(nil), m.Get(f).Params...)
	for i, c := range captured {
		vmap[c] = params[i]
	}

	clone := m.CloneTree(r, vmap)
	m.AppendToBody(f, clone)
	ret := m.NewReturn(m.Get(clone).Results...)
	m.AppendToBody(f, ret)

	// The call site adopts the original loop's result IDs so external uses
	// keep resolving.
	call := m.NewCall(name, captured, 0)
	m.AdoptResults(call, origResults)
	m.ReplaceOp(parent, r, call)
	m.Kill(r)
	return f
}
