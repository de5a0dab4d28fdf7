package ir

import (
	"fmt"
	"strings"
)

// ParseError reports a syntax or binding error in textual IR.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Parse reads the textual IR form produced by Print (plus comments and blank
// lines) and builds a module. Value names are source-local: the parser
// assigns fresh ValueIDs, so parsed IDs need not match a previous print.
func Parse(src string) (*Module, error) {
	p := &parser{
		mod:    NewModule(),
		values: make(map[string]ValueID),
	}
	for i, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(raw)
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}
		if err := p.line(i+1, line); err != nil {
			return nil, err
		}
	}
	if len(p.regions) != 0 {
		return nil, &ParseError{Line: 0, Message: "unclosed region at end of input"}
	}
	return p.mod, nil
}

type parser struct {
	mod     *Module
	regions []OpRef
	values  map[string]ValueID
}

func (p *parser) line(n int, line string) error {
	lx := &lexer{line: n, src: line}

	if line == "}" {
		if len(p.regions) == 0 {
			return &ParseError{Line: n, Message: "unmatched }"}
		}
		p.regions = p.regions[:len(p.regions)-1]
		return nil
	}

	// Statements that bind results start with "%a, %b =".
	var results []string
	if strings.HasPrefix(line, "%") {
		eq := strings.Index(line, "=")
		if eq < 0 {
			return &ParseError{Line: n, Message: "expected = after result list"}
		}
		for _, tok := range strings.Split(line[:eq], ",") {
			name := strings.TrimSpace(tok)
			if !strings.HasPrefix(name, "%") {
				return &ParseError{Line: n, Message: fmt.Sprintf("bad result name %q", name)}
			}
			results = append(results, name)
		}
		lx = &lexer{line: n, src: strings.TrimSpace(line[eq+1:])}
	}

	kw, err := lx.ident()
	if err != nil {
		return err
	}

	switch kw {
	case "func":
		if len(results) != 0 {
			return &ParseError{Line: n, Message: "func does not bind results"}
		}
		return p.funcHeader(lx)
	case "loop":
		if len(results) != 0 {
			return &ParseError{Line: n, Message: "loop results are declared with ->"}
		}
		return p.loopHeader(lx)
	case "arith":
		return p.arith(lx, results)
	case "read", "gather":
		return p.memRead(lx, kw, results)
	case "write":
		return p.memWrite(lx, results)
	case "call":
		return p.call(lx, results)
	case "yield", "return":
		return p.terminator(lx, kw, results)
	default:
		return &ParseError{Line: n, Message: fmt.Sprintf("unknown operation %q", kw)}
	}
}

func (p *parser) current() (OpRef, error) {
	if len(p.regions) == 0 {
		return NilRef, fmt.Errorf("statement outside func")
	}
	return p.regions[len(p.regions)-1], nil
}

func (p *parser) define(lx *lexer, name string, v ValueID) error {
	if _, exists := p.values[name]; exists {
		return &ParseError{Line: lx.line, Message: fmt.Sprintf("value %s redefined", name)}
	}
	p.values[name] = v
	return nil
}

func (p *parser) lookup(lx *lexer, name string) (ValueID, error) {
	v, ok := p.values[name]
	if !ok {
		return NilValue, &ParseError{Line: lx.line, Message: fmt.Sprintf("undefined value %s", name)}
	}
	return v, nil
}

func (p *parser) funcHeader(lx *lexer) error {
	if len(p.regions) != 0 {
		return &ParseError{Line: lx.line, Message: "nested func"}
	}
	name, err := lx.atName()
	if err != nil {
		return err
	}
	params, err := lx.valueNames("(", ")")
	if err != nil {
		return err
	}
	if err := lx.expect("{"); err != nil {
		return err
	}
	f, err := p.mod.NewFunc(name, len(params))
	if err != nil {
		return &ParseError{Line: lx.line, Message: err.Error()}
	}
	for i, pn := range params {
		if err := p.define(lx, pn, p.mod.Get(f).Params[i]); err != nil {
			return err
		}
	}
	p.regions = append(p.regions, f)
	return nil
}

func (p *parser) loopHeader(lx *lexer) error {
	parent, err := p.current()
	if err != nil {
		return &ParseError{Line: lx.line, Message: err.Error()}
	}
	ivName, err := lx.valueName()
	if err != nil {
		return err
	}
	if err := lx.expect("="); err != nil {
		return err
	}
	lower, err := p.bound(lx)
	if err != nil {
		return err
	}
	if err := lx.expect("to"); err != nil {
		return err
	}
	upper, err := p.bound(lx)
	if err != nil {
		return err
	}
	if err := lx.expect("step"); err != nil {
		return err
	}
	step, err := p.bound(lx)
	if err != nil {
		return err
	}

	var argNames, resultNames []string
	var inits []ValueID
	if lx.accept("iter") {
		pairs, err := lx.pairList()
		if err != nil {
			return err
		}
		for _, pair := range pairs {
			argNames = append(argNames, pair[0])
			init, err := p.lookup(lx, pair[1])
			if err != nil {
				return err
			}
			inits = append(inits, init)
		}
		if err := lx.expect("->"); err != nil {
			return err
		}
		resultNames, err = lx.valueNames("(", ")")
		if err != nil {
			return err
		}
		if len(resultNames) != len(argNames) {
			return &ParseError{Line: lx.line, Message: "loop result count must match iter arg count"}
		}
	}
	if err := lx.expect("{"); err != nil {
		return err
	}

	l := p.mod.NewLoop(lower, upper, step, inits)
	p.mod.AppendToBody(parent, l)
	op := p.mod.Get(l)
	if err := p.define(lx, ivName, op.IndVar); err != nil {
		return err
	}
	for i, an := range argNames {
		if err := p.define(lx, an, op.IterArgs[i]); err != nil {
			return err
		}
	}
	for i, rn := range resultNames {
		if err := p.define(lx, rn, op.Results[i]); err != nil {
			return err
		}
	}
	p.regions = append(p.regions, l)
	return nil
}

func (p *parser) arith(lx *lexer, results []string) error {
	parent, err := p.current()
	if err != nil {
		return &ParseError{Line: lx.line, Message: err.Error()}
	}
	if len(results) != 1 {
		return &ParseError{Line: lx.line, Message: "arith binds exactly one result"}
	}
	mnemonic, err := lx.quoted()
	if err != nil {
		return err
	}
	operands, err := p.operandList(lx)
	if err != nil {
		return err
	}
	r := p.mod.NewArith(mnemonic, operands...)
	p.mod.AppendToBody(parent, r)
	return p.define(lx, results[0], p.mod.Get(r).Results[0])
}

func (p *parser) memRead(lx *lexer, kw string, results []string) error {
	parent, err := p.current()
	if err != nil {
		return &ParseError{Line: lx.line, Message: err.Error()}
	}
	if len(results) != 1 {
		return &ParseError{Line: lx.line, Message: kw + " binds exactly one result"}
	}
	base, index, offset, err := p.addr(lx)
	if err != nil {
		return err
	}
	var r OpRef
	if kw == "gather" {
		if offset != 0 {
			return &ParseError{Line: lx.line, Message: "gather takes no offset"}
		}
		r = p.mod.NewGather(base, index)
	} else {
		r = p.mod.NewRead(base, index, offset)
	}
	p.mod.AppendToBody(parent, r)
	return p.define(lx, results[0], p.mod.Get(r).Results[0])
}

func (p *parser) memWrite(lx *lexer, results []string) error {
	parent, err := p.current()
	if err != nil {
		return &ParseError{Line: lx.line, Message: err.Error()}
	}
	if len(results) != 0 {
		return &ParseError{Line: lx.line, Message: "write binds no results"}
	}
	base, index, offset, err := p.addr(lx)
	if err != nil {
		return err
	}
	if err := lx.expect(","); err != nil {
		return err
	}
	valName, err := lx.valueName()
	if err != nil {
		return err
	}
	val, err := p.lookup(lx, valName)
	if err != nil {
		return err
	}
	r := p.mod.NewWrite(base, index, offset, val)
	p.mod.AppendToBody(parent, r)
	return nil
}

func (p *parser) call(lx *lexer, results []string) error {
	parent, err := p.current()
	if err != nil {
		return &ParseError{Line: lx.line, Message: err.Error()}
	}
	callee, err := lx.atName()
	if err != nil {
		return err
	}
	argNames, err := lx.valueNames("(", ")")
	if err != nil {
		return err
	}
	operands := make([]ValueID, len(argNames))
	for i, an := range argNames {
		if operands[i], err = p.lookup(lx, an); err != nil {
			return err
		}
	}
	r := p.mod.NewCall(callee, operands, len(results))
	p.mod.AppendToBody(parent, r)
	for i, rn := range results {
		if err := p.define(lx, rn, p.mod.Get(r).Results[i]); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) terminator(lx *lexer, kw string, results []string) error {
	parent, err := p.current()
	if err != nil {
		return &ParseError{Line: lx.line, Message: err.Error()}
	}
	if len(results) != 0 {
		return &ParseError{Line: lx.line, Message: kw + " binds no results"}
	}
	operands, err := p.operandList(lx)
	if err != nil {
		return err
	}
	var r OpRef
	if kw == "yield" {
		r = p.mod.NewYield(operands...)
	} else {
		r = p.mod.NewReturn(operands...)
	}
	p.mod.AppendToBody(parent, r)
	return nil
}

// addr parses "%base[%index]" or "%base[%index + N]".
func (p *parser) addr(lx *lexer) (base, index ValueID, offset int64, err error) {
	baseName, err := lx.valueName()
	if err != nil {
		return NilValue, NilValue, 0, err
	}
	if base, err = p.lookup(lx, baseName); err != nil {
		return NilValue, NilValue, 0, err
	}
	if err = lx.expect("["); err != nil {
		return NilValue, NilValue, 0, err
	}
	indexName, err := lx.valueName()
	if err != nil {
		return NilValue, NilValue, 0, err
	}
	if index, err = p.lookup(lx, indexName); err != nil {
		return NilValue, NilValue, 0, err
	}
	if lx.accept("+") {
		if offset, err = lx.number(); err != nil {
			return NilValue, NilValue, 0, err
		}
	}
	if err = lx.expect("]"); err != nil {
		return NilValue, NilValue, 0, err
	}
	return base, index, offset, nil
}

func (p *parser) bound(lx *lexer) (Bound, error) {
	if lx.peekIs("%") {
		name, err := lx.valueName()
		if err != nil {
			return Bound{}, err
		}
		v, err := p.lookup(lx, name)
		if err != nil {
			return Bound{}, err
		}
		return SymBound(v), nil
	}
	n, err := lx.number()
	if err != nil {
		return Bound{}, err
	}
	return ConstBound(n), nil
}

func (p *parser) operandList(lx *lexer) ([]ValueID, error) {
	var out []ValueID
	for lx.peekIs("%") {
		name, err := lx.valueName()
		if err != nil {
			return nil, err
		}
		v, err := p.lookup(lx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if !lx.accept(",") {
			break
		}
	}
	return out, nil
}
