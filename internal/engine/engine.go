package engine

import (
	"errors"
	"fmt"

	"github.com/looptx/looptx/internal/handle"
	"github.com/looptx/looptx/internal/ir"
	"github.com/looptx/looptx/internal/script"
	"github.com/looptx/looptx/internal/transform"
)

// Statement status values recorded in trace events.
const (
	StatusApplied = "applied"
	StatusFailed  = "failed"
)

// ElementStatus is the recorded outcome of one input-list element of a
// per-element operation.
type ElementStatus struct {
	Index   int    `json:"index"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Event describes one statement application. Events are the unit of the
// trace: the store persists them and replay re-derives them.
type Event struct {
	Seq          int64
	Line         int
	Op           string
	InputHandle  string
	ResultHandle string
	AttrsJSON    string
	Status       string
	Code         string
	Diagnostic   string
	Elements     []ElementStatus
	NumOutputs   int
}

// Engine applies script statements sequentially against one payload module
// and one handle table. Not safe for concurrent use.
type Engine struct {
	mod   *ir.Module
	table *handle.Table
	attrs *script.Validator
	clock *Clock
}

// New creates an engine over the given payload with an empty handle table.
func New(mod *ir.Module) (*Engine, error) {
	v, err := script.NewValidator()
	if err != nil {
		return nil, err
	}
	return &Engine{
		mod:   mod,
		table: handle.NewTable(),
		attrs: v,
		clock: NewClock(),
	}, nil
}

// Module returns the payload under transformation.
func (e *Engine) Module() *ir.Module { return e.mod }

// Handles returns the engine's handle table.
func (e *Engine) Handles() *handle.Table { return e.table }

// Run applies statements in order, stopping at the first failure. The
// returned events cover every attempted statement, the failed one included.
func (e *Engine) Run(stmts []script.Statement) ([]Event, error) {
	var events []Event
	for _, st := range stmts {
		ev, err := e.Apply(st)
		events = append(events, ev)
		if err != nil {
			return events, err
		}
	}
	return events, nil
}

// Apply runs a single statement and returns its trace event. The event is
// returned for failed statements too, with Status, Code and Diagnostic set.
func (e *Engine) Apply(st script.Statement) (Event, error) {
	ev := Event{Seq: e.clock.Next(), Line: st.Line, Op: st.Op, Status: StatusApplied}
	if st.Result != "" {
		ev.ResultHandle = "%" + st.Result
	}

	attrs, attrsJSON, err := e.attrs.Validate(st)
	if err != nil {
		return failed(ev, err), err
	}
	ev.AttrsJSON = attrsJSON

	var in []ir.OpRef
	if st.Op != "match" {
		ev.InputHandle = "%" + st.Input
		in, err = e.table.Resolve(handle.Handle(ev.InputHandle))
		if err != nil {
			terr := &transform.Error{
				Code: transform.CodeUnknownHandle, Op: st.Op, Element: -1,
				Message: err.Error(),
			}
			return failed(ev, terr), terr
		}
	}

	var outputs []ir.OpRef
	var opErr error
	switch st.Op {
	case "match":
		outputs, opErr = e.match(st)
	case "get_parent_for":
		outputs, opErr = transform.GetParentFor(e.mod, in, attrs.NumLoops)
	case "outline":
		outputs, opErr = transform.Outline(e.mod, in, attrs.FuncName)
	case "peel":
		var out transform.Outcome
		out, opErr = transform.Peel(e.mod, in, attrs.FailIfAlreadyDivisible)
		outputs = out.Outputs
		ev.Elements = elementStatuses(out.Statuses)
	case "pipeline":
		var out transform.Outcome
		out, opErr = transform.Pipeline(e.mod, in, transform.PipelineOptions{
			IterationInterval: attrs.IterationInterval,
			ReadLatency:       attrs.ReadLatency,
		})
		outputs = out.Outputs
		ev.Elements = elementStatuses(out.Statuses)
	case "unroll":
		var out transform.Outcome
		out, opErr = transform.Unroll(e.mod, in, attrs.Factor)
		outputs = out.Outputs
		ev.Elements = elementStatuses(out.Statuses)
	default:
		// The parser rejects unknown operations; this is a programming error.
		opErr = fmt.Errorf("engine: unhandled operation %q", st.Op)
	}

	// Consuming rewrites delete operations. Any handle whose binding mentions
	// one is dead from here on, the input handle included.
	if dead := e.deadRefs(in); len(dead) > 0 {
		e.table.InvalidateReferencing(dead...)
	}

	if opErr != nil {
		return failed(ev, opErr), opErr
	}
	if st.Result != "" {
		e.table.Bind(handle.Handle(ev.ResultHandle), outputs)
	}
	ev.NumOutputs = len(outputs)
	return ev, nil
}

var matchKinds = map[string]ir.OpKind{
	"loop":   ir.KindLoop,
	"arith":  ir.KindArith,
	"read":   ir.KindMemRead,
	"write":  ir.KindMemWrite,
	"gather": ir.KindMemGather,
	"call":   ir.KindCall,
}

// match binds a handle to every operation of a kind under a callable, in
// preorder.
func (e *Engine) match(st script.Statement) ([]ir.OpRef, error) {
	kind, ok := matchKinds[st.MatchKind]
	if !ok {
		return nil, &transform.Error{
			Code: transform.CodeInvalidAttribute, Op: st.Op, Element: -1,
			Message: fmt.Sprintf("unknown operation kind %q", st.MatchKind),
		}
	}
	fn, ok := e.mod.Symbol(st.Target)
	if !ok {
		return nil, &transform.Error{
			Code: transform.CodeUnknownHandle, Op: st.Op, Element: -1,
			Message: fmt.Sprintf("no callable @%s in payload", st.Target),
		}
	}
	return e.mod.CollectKind(fn, kind), nil
}

func (e *Engine) deadRefs(in []ir.OpRef) []ir.OpRef {
	var dead []ir.OpRef
	for _, r := range in {
		if !e.mod.Alive(r) {
			dead = append(dead, r)
		}
	}
	return dead
}

func failed(ev Event, err error) Event {
	ev.Status = StatusFailed
	ev.Diagnostic = err.Error()
	var terr *transform.Error
	if errors.As(err, &terr) {
		ev.Code = string(terr.Code)
	}
	return ev
}

func elementStatuses(sts []transform.Status) []ElementStatus {
	if len(sts) == 0 {
		return nil
	}
	out := make([]ElementStatus, 0, len(sts))
	for _, s := range sts {
		es := ElementStatus{Index: s.Index}
		if s.Err != nil {
			es.Code = string(s.Err.Code)
			es.Message = s.Err.Message
		}
		out = append(out, es)
	}
	return out
}
