package ir

import "fmt"

// OpKind identifies the kind of an operation. The set is closed: transforms
// dispatch by switching over it, and anything they do not recognize is a
// hard error rather than a silently skipped case.
type OpKind uint8

const (
	// KindFunc is a callable unit. Funcs are module roots, carry parameters,
	// and are registered in the module symbol table.
	KindFunc OpKind = iota

	// KindLoop is a counted loop with lower/upper/step bounds, an induction
	// variable, and loop-carried iteration arguments.
	KindLoop

	// KindArith is a generic computation identified by a mnemonic. It stands
	// in for the full arithmetic surface of a production IR.
	KindArith

	// KindMemRead is a structured memory read: base[index + offset].
	KindMemRead

	// KindMemWrite is a structured memory write: base[index + offset] = value.
	KindMemWrite

	// KindMemGather is an indirect (gathered) memory read. Its address is not
	// induction-affine, which is why the pipeliner rejects it.
	KindMemGather

	// KindCall invokes a func by symbol name.
	KindCall

	// KindYield terminates a loop body, forwarding the next iteration's
	// loop-carried values.
	KindYield

	// KindReturn terminates a func body.
	KindReturn
)

// String returns the textual mnemonic used by the printer.
func (k OpKind) String() string {
	switch k {
	case KindFunc:
		return "func"
	case KindLoop:
		return "loop"
	case KindArith:
		return "arith"
	case KindMemRead:
		return "read"
	case KindMemWrite:
		return "write"
	case KindMemGather:
		return "gather"
	case KindCall:
		return "call"
	case KindYield:
		return "yield"
	case KindReturn:
		return "return"
	default:
		return fmt.Sprintf("OpKind(%d)", uint8(k))
	}
}

// OpRef addresses an operation in a module's arena. Refs are stable for the
// lifetime of the module; deletion tombstones the slot rather than reusing it.
type OpRef int

// NilRef is the absent operation reference (e.g. the parent of a root).
const NilRef OpRef = -1

// ValueID addresses a value in a module's def table.
type ValueID int

// NilValue is the absent value reference.
const NilValue ValueID = -1

// Bound is one of a loop's lower/upper/step expressions: either a statically
// known integer or a symbolic value computed before the loop.
type Bound struct {
	Known bool
	Const int64
	Sym   ValueID
}

// ConstBound returns a statically known bound.
func ConstBound(v int64) Bound { return Bound{Known: true, Const: v} }

// SymBound returns a symbolic bound carried by a value.
func SymBound(v ValueID) Bound { return Bound{Sym: v} }

// Operation is one arena slot. Which fields are meaningful depends on Kind;
// unused fields stay zero.
type Operation struct {
	Kind   OpKind
	Name   string // KindFunc symbol, KindCall callee, KindArith mnemonic
	Parent OpRef
	Body   []OpRef // KindFunc and KindLoop regions, in execution order

	Operands []ValueID
	Results  []ValueID

	// KindFunc
	Params []ValueID

	// KindLoop
	Lower, Upper, Step Bound
	IndVar             ValueID
	IterInits          []ValueID // initial loop-carried values, one per iter arg
	IterArgs           []ValueID // per-iteration block arguments

	// KindMemRead, KindMemWrite, KindMemGather
	Base   ValueID
	Index  ValueID
	Offset int64

	alive bool
}

// Module owns the operation arena, the value def table, and the symbol table
// for callable units.
type Module struct {
	ops     []Operation
	defs    []OpRef
	roots   []OpRef
	symbols map[string]OpRef
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{symbols: make(map[string]OpRef)}
}

// NewValue allocates a fresh value with no defining operation yet.
func (m *Module) NewValue() ValueID {
	m.defs = append(m.defs, NilRef)
	return ValueID(len(m.defs) - 1)
}

// NumValues reports how many values have been allocated.
func (m *Module) NumValues() int { return len(m.defs) }

// DefOf returns the operation defining v, or NilRef if v is unbound.
func (m *Module) DefOf(v ValueID) OpRef {
	if v < 0 || int(v) >= len(m.defs) {
		return NilRef
	}
	return m.defs[v]
}

func (m *Module) setDef(v ValueID, r OpRef) {
	if v >= 0 && int(v) < len(m.defs) {
		m.defs[v] = r
	}
}

// push appends op to the arena, marks it alive, and registers the values it
// defines. It is the single point of arena growth.
func (m *Module) push(op Operation) OpRef {
	op.alive = true
	m.ops = append(m.ops, op)
	r := OpRef(len(m.ops) - 1)
	for _, v := range op.Results {
		m.setDef(v, r)
	}
	for _, v := range op.Params {
		m.setDef(v, r)
	}
	if op.Kind == KindLoop {
		m.setDef(op.IndVar, r)
		for _, v := range op.IterArgs {
			m.setDef(v, r)
		}
	}
	return r
}

// Get returns the operation at r, or nil if r is out of range or the slot
// has been tombstoned. Mutations through the returned pointer are visible in
// the arena.
func (m *Module) Get(r OpRef) *Operation {
	if r < 0 || int(r) >= len(m.ops) || !m.ops[r].alive {
		return nil
	}
	return &m.ops[r]
}

// Alive reports whether r addresses a live operation.
func (m *Module) Alive(r OpRef) bool {
	return r >= 0 && int(r) < len(m.ops) && m.ops[r].alive
}

// Kill tombstones r and, recursively, every operation nested in its regions.
// Refs into the killed subtree remain comparable but resolve as dead.
func (m *Module) Kill(r OpRef) {
	if r < 0 || int(r) >= len(m.ops) || !m.ops[r].alive {
		return
	}
	for _, child := range m.ops[r].Body {
		m.Kill(child)
	}
	m.ops[r].alive = false
}

// ParentOf returns the structural parent of r. ok is false for roots and for
// dead or out-of-range refs.
func (m *Module) ParentOf(r OpRef) (OpRef, bool) {
	op := m.Get(r)
	if op == nil || op.Parent == NilRef {
		return NilRef, false
	}
	return op.Parent, true
}

// Symbol looks up a callable unit by name.
func (m *Module) Symbol(name string) (OpRef, bool) {
	r, ok := m.symbols[name]
	if !ok || !m.Alive(r) {
		return NilRef, false
	}
	return r, true
}

// UniqueName returns base if no symbol with that name exists, otherwise the
// first collision-free name among base_0, base_1, ...
func (m *Module) UniqueName(base string) string {
	if _, taken := m.symbols[base]; !taken {
		return base
	}
	for i := 0; ; i++ {
		name := fmt.Sprintf("%s_%d", base, i)
		if _, taken := m.symbols[name]; !taken {
			return name
		}
	}
}

// Funcs returns the live module roots in definition order.
func (m *Module) Funcs() []OpRef {
	out := make([]OpRef, 0, len(m.roots))
	for _, r := range m.roots {
		if m.Alive(r) {
			out = append(out, r)
		}
	}
	return out
}
