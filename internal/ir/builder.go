package ir

import "fmt"

// Construction helpers. Every New* func allocates a detached operation
// (Parent == NilRef) except NewFunc, which is a module root. Callers place
// detached operations with AppendToBody, InsertBefore or ReplaceOp.

// NewFunc creates a callable unit with nparams fresh parameters and registers
// it in the symbol table. The name must be unused.
func (m *Module) NewFunc(name string, nparams int) (OpRef, error) {
	if name == "" {
		return NilRef, fmt.Errorf("func name must be non-empty")
	}
	if _, taken := m.symbols[name]; taken {
		return NilRef, fmt.Errorf("symbol %q already defined", name)
	}
	params := make([]ValueID, nparams)
	for i := range params {
		params[i] = m.NewValue()
	}
	r := m.push(Operation{Kind: KindFunc, Name: name, Parent: NilRef, Params: params})
	m.symbols[name] = r
	m.roots = append(m.roots, r)
	return r, nil
}

// NewLoop creates a detached loop. A fresh induction variable, one fresh
// iteration argument per init, and one fresh result per init are allocated.
func (m *Module) NewLoop(lower, upper, step Bound, inits []ValueID) OpRef {
	iterArgs := make([]ValueID, len(inits))
	results := make([]ValueID, len(inits))
	for i := range inits {
		iterArgs[i] = m.NewValue()
		results[i] = m.NewValue()
	}
	return m.push(Operation{
		Kind:      KindLoop,
		Parent:    NilRef,
		Lower:     lower,
		Upper:     upper,
		Step:      step,
		IndVar:    m.NewValue(),
		IterInits: append([]ValueID(nil), inits...),
		IterArgs:  iterArgs,
		Results:   results,
	})
}

// NewArith creates a detached computation with one fresh result.
func (m *Module) NewArith(mnemonic string, operands ...ValueID) OpRef {
	return m.push(Operation{
		Kind:     KindArith,
		Name:     mnemonic,
		Parent:   NilRef,
		Operands: append([]ValueID(nil), operands...),
		Results:  []ValueID{m.NewValue()},
	})
}

// NewRead creates a detached structured read of base[index + offset].
func (m *Module) NewRead(base, index ValueID, offset int64) OpRef {
	return m.push(Operation{
		Kind:    KindMemRead,
		Parent:  NilRef,
		Base:    base,
		Index:   index,
		Offset:  offset,
		Results: []ValueID{m.NewValue()},
	})
}

// NewGather creates a detached indirect read of base[index].
func (m *Module) NewGather(base, index ValueID) OpRef {
	return m.push(Operation{
		Kind:    KindMemGather,
		Parent:  NilRef,
		Base:    base,
		Index:   index,
		Results: []ValueID{m.NewValue()},
	})
}

// NewWrite creates a detached structured write base[index + offset] = value.
func (m *Module) NewWrite(base, index ValueID, offset int64, value ValueID) OpRef {
	return m.push(Operation{
		Kind:     KindMemWrite,
		Parent:   NilRef,
		Base:     base,
		Index:    index,
		Offset:   offset,
		Operands: []ValueID{value},
	})
}

// NewCall creates a detached call with nresults fresh results.
func (m *Module) NewCall(callee string, operands []ValueID, nresults int) OpRef {
	results := make([]ValueID, nresults)
	for i := range results {
		results[i] = m.NewValue()
	}
	return m.push(Operation{
		Kind:     KindCall,
		Name:     callee,
		Parent:   NilRef,
		Operands: append([]ValueID(nil), operands...),
		Results:  results,
	})
}

// NewYield creates a detached loop terminator.
func (m *Module) NewYield(operands ...ValueID) OpRef {
	return m.push(Operation{
		Kind:     KindYield,
		Parent:   NilRef,
		Operands: append([]ValueID(nil), operands...),
	})
}

// NewReturn creates a detached func terminator.
func (m *Module) NewReturn(operands ...ValueID) OpRef {
	return m.push(Operation{
		Kind:     KindReturn,
		Parent:   NilRef,
		Operands: append([]ValueID(nil), operands...),
	})
}

// AdoptResults rebinds op's results to the given values. Used when a rewrite
// replaces the operation that used to define values external users still
// reference: the replacement adopts the original IDs so uses stay intact.
func (m *Module) AdoptResults(r OpRef, results []ValueID) {
	op := m.Get(r)
	if op == nil {
		return
	}
	op.Results = append([]ValueID(nil), results...)
	for _, v := range results {
		m.setDef(v, r)
	}
}

// AddIterArg appends a loop-carried value to a loop: init flows into a fresh
// iteration argument, and a fresh result carries the value out of the final
// iteration. The body terminator must be extended by the caller so that the
// iteration-argument count and the yield operand count stay equal.
func (m *Module) AddIterArg(loop OpRef, init ValueID) (arg, result ValueID) {
	arg = m.NewValue()
	result = m.NewValue()
	op := m.Get(loop)
	if op == nil || op.Kind != KindLoop {
		return NilValue, NilValue
	}
	op.IterInits = append(op.IterInits, init)
	op.IterArgs = append(op.IterArgs, arg)
	op.Results = append(op.Results, result)
	m.setDef(arg, loop)
	m.setDef(result, loop)
	return arg, result
}

// RenewResults replaces op's results with fresh values and returns the old
// IDs. Used when a rewrite hands the old IDs to a replacement operation (via
// AdoptResults) while the original operation lives on with new ones.
func (m *Module) RenewResults(r OpRef) []ValueID {
	if m.Get(r) == nil {
		return nil
	}
	old := append([]ValueID(nil), m.Get(r).Results...)
	fresh := make([]ValueID, len(old))
	for i := range fresh {
		fresh[i] = m.NewValue()
	}
	op := m.Get(r)
	op.Results = fresh
	for _, v := range fresh {
		m.setDef(v, r)
	}
	return old
}

// AppendToBody places a detached operation at the end of parent's region.
func (m *Module) AppendToBody(parent, r OpRef) {
	p := m.Get(parent)
	op := m.Get(r)
	if p == nil || op == nil {
		return
	}
	op.Parent = parent
	p.Body = append(p.Body, r)
}

// InsertBefore places detached operations immediately before anchor in
// parent's region. Anchor must be a member of that region.
func (m *Module) InsertBefore(parent, anchor OpRef, ops ...OpRef) {
	p := m.Get(parent)
	if p == nil || len(ops) == 0 {
		return
	}
	at := bodyIndex(p.Body, anchor)
	if at < 0 {
		return
	}
	for _, r := range ops {
		if op := m.Get(r); op != nil {
			op.Parent = parent
		}
	}
	tail := append([]OpRef(nil), p.Body[at:]...)
	p.Body = append(append(p.Body[:at:at], ops...), tail...)
}

// InsertAfter places detached operations immediately after anchor in
// parent's region. Anchor must be a member of that region.
func (m *Module) InsertAfter(parent, anchor OpRef, ops ...OpRef) {
	p := m.Get(parent)
	if p == nil || len(ops) == 0 {
		return
	}
	at := bodyIndex(p.Body, anchor)
	if at < 0 {
		return
	}
	for _, r := range ops {
		if op := m.Get(r); op != nil {
			op.Parent = parent
		}
	}
	tail := append([]OpRef(nil), p.Body[at+1:]...)
	p.Body = append(append(p.Body[:at+1:at+1], ops...), tail...)
}

// ReplaceOp splices repl into parent's region in place of old. Old is left in
// the region's past: it is removed from the body but not killed; callers kill
// it once nothing further reads it.
func (m *Module) ReplaceOp(parent, old OpRef, repl ...OpRef) {
	p := m.Get(parent)
	if p == nil {
		return
	}
	at := bodyIndex(p.Body, old)
	if at < 0 {
		return
	}
	for _, r := range repl {
		if op := m.Get(r); op != nil {
			op.Parent = parent
		}
	}
	tail := append([]OpRef(nil), p.Body[at+1:]...)
	p.Body = append(append(p.Body[:at:at], repl...), tail...)
	if op := m.Get(old); op != nil {
		op.Parent = NilRef
	}
}

// RemoveFromBody detaches r from parent's region without killing it.
func (m *Module) RemoveFromBody(parent, r OpRef) {
	p := m.Get(parent)
	if p == nil {
		return
	}
	at := bodyIndex(p.Body, r)
	if at < 0 {
		return
	}
	p.Body = append(p.Body[:at], p.Body[at+1:]...)
	if op := m.Get(r); op != nil {
		op.Parent = NilRef
	}
}

func bodyIndex(body []OpRef, r OpRef) int {
	for i, b := range body {
		if b == r {
			return i
		}
	}
	return -1
}
