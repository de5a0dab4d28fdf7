package ir

// CloneTree deep-copies the operation at r, including its regions. Values
// read by the copy are remapped through vmap where a mapping exists and kept
// as-is otherwise. Every value the subtree defines (results, induction
// variables, iteration arguments, parameters) is given a fresh ID, and the
// old→new mapping is recorded in vmap so later clones can chain through it.
//
// The clone is detached (Parent == NilRef) and carries no symbol-table
// registration even when r is a func.
func (m *Module) CloneTree(r OpRef, vmap map[ValueID]ValueID) OpRef {
	src := m.Get(r)
	if src == nil {
		return NilRef
	}

	cp := Operation{
		Kind:   src.Kind,
		Name:   src.Name,
		Parent: NilRef,
		Offset: src.Offset,
	}

	fresh := func(vs []ValueID) []ValueID {
		out := make([]ValueID, len(vs))
		for i, v := range vs {
			nv := m.NewValue()
			vmap[v] = nv
			out[i] = nv
		}
		return out
	}
	remap := func(vs []ValueID) []ValueID {
		out := make([]ValueID, len(vs))
		for i, v := range vs {
			out[i] = remapValue(v, vmap)
		}
		return out
	}

	// Reads before defs: a loop's inits and bounds refer to values defined
	// outside the loop, never to its own induction variable.
	cp.Operands = remap(src.Operands)
	cp.Base = remapValue(src.Base, vmap)
	cp.Index = remapValue(src.Index, vmap)
	if src.Kind == KindLoop {
		cp.Lower = remapBound(src.Lower, vmap)
		cp.Upper = remapBound(src.Upper, vmap)
		cp.Step = remapBound(src.Step, vmap)
		cp.IterInits = remap(src.IterInits)
		cp.IndVar = m.NewValue()
		vmap[src.IndVar] = cp.IndVar
		cp.IterArgs = fresh(src.IterArgs)
	}
	cp.Params = fresh(src.Params)
	cp.Results = fresh(src.Results)

	clone := m.push(cp)
	for _, child := range src.Body {
		cc := m.CloneTree(child, vmap)
		if cc == NilRef {
			continue
		}
		m.Get(cc).Parent = clone
		cop := m.Get(clone)
		cop.Body = append(cop.Body, cc)
	}
	return clone
}

func remapValue(v ValueID, vmap map[ValueID]ValueID) ValueID {
	if v == NilValue {
		return NilValue
	}
	if nv, ok := vmap[v]; ok {
		return nv
	}
	return v
}

func remapBound(b Bound, vmap map[ValueID]ValueID) Bound {
	if b.Known {
		return b
	}
	return SymBound(remapValue(b.Sym, vmap))
}
