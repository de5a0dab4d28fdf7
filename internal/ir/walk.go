package ir

// Subtree returns r and every live operation nested in its regions, in
// preorder. Preorder is the canonical traversal everywhere in this module:
// handle payloads, captured-value order and printing all derive from it.
func (m *Module) Subtree(r OpRef) []OpRef {
	var out []OpRef
	var walk func(OpRef)
	walk = func(cur OpRef) {
		op := m.Get(cur)
		if op == nil {
			return
		}
		out = append(out, cur)
		for _, child := range op.Body {
			walk(child)
		}
	}
	walk(r)
	return out
}

// CollectKind returns the live operations of the given kind under root
// (excluding root itself), in preorder.
func (m *Module) CollectKind(root OpRef, kind OpKind) []OpRef {
	var out []OpRef
	for _, r := range m.Subtree(root) {
		if r == root {
			continue
		}
		if op := m.Get(r); op != nil && op.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// RootFunc walks r's ancestor chain to its root and reports whether that
// root is a callable unit registered in the module symbol table. Operations
// whose root is anything else have no symbol table to allocate names in.
func (m *Module) RootFunc(r OpRef) (OpRef, bool) {
	cur := r
	for {
		p, ok := m.ParentOf(cur)
		if !ok {
			break
		}
		cur = p
	}
	op := m.Get(cur)
	if op == nil || op.Kind != KindFunc {
		return NilRef, false
	}
	if reg, ok := m.symbols[op.Name]; !ok || reg != cur {
		return NilRef, false
	}
	return cur, true
}

// usedValues lists the values op reads, in positional order.
func usedValues(op *Operation) []ValueID {
	var out []ValueID
	add := func(v ValueID) {
		if v != NilValue {
			out = append(out, v)
		}
	}
	if op.Kind == KindLoop {
		for _, b := range []Bound{op.Lower, op.Upper, op.Step} {
			if !b.Known {
				add(b.Sym)
			}
		}
		for _, v := range op.IterInits {
			add(v)
		}
	}
	if op.Kind == KindMemRead || op.Kind == KindMemWrite || op.Kind == KindMemGather {
		add(op.Base)
		add(op.Index)
	}
	for _, v := range op.Operands {
		add(v)
	}
	return out
}

// CapturedValues returns the values used inside the subtree at root but
// defined outside it, deduplicated, in first-use (preorder) order. This is
// the parameter list an outlined copy of the subtree needs.
func (m *Module) CapturedValues(root OpRef) []ValueID {
	inside := make(map[OpRef]bool)
	subtree := m.Subtree(root)
	for _, r := range subtree {
		inside[r] = true
	}

	var out []ValueID
	seen := make(map[ValueID]bool)
	for _, r := range subtree {
		for _, v := range usedValues(m.Get(r)) {
			if seen[v] {
				continue
			}
			if def := m.DefOf(v); def != NilRef && inside[def] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
