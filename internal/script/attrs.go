package script

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/looptx/looptx/internal/transform"
)

//go:embed schema.cue
var schemaSrc string

// Attrs carries the resolved attributes of a statement, defaults applied.
// The per-operation schema decides which fields are populated; the rest
// stay zero.
type Attrs struct {
	NumLoops               int    `json:"num_loops"`
	FuncName               string `json:"func_name"`
	FailIfAlreadyDivisible bool   `json:"fail_if_already_divisible"`
	IterationInterval      int    `json:"iteration_interval"`
	ReadLatency            int    `json:"read_latency"`
	Factor                 int    `json:"factor"`
}

// Validator checks statement attribute blocks against the embedded CUE
// schema. Uses the CUE SDK's Go API directly (not a CLI subprocess).
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator compiles the embedded schema once for reuse across
// statements.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSrc)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile attribute schema: %w", err)
	}
	return &Validator{ctx: ctx, schema: schema}, nil
}

// Validate unifies the statement's attribute block with the schema entry for
// its operation. On success it returns the resolved attributes plus their
// canonical JSON form (defaults included), suitable for trace records.
// Violations come back as INVALID_ATTRIBUTE.
func (v *Validator) Validate(st Statement) (Attrs, string, error) {
	def := v.schema.LookupPath(cue.ParsePath("#" + st.Op))
	if !def.Exists() {
		return Attrs{}, "", invalidAttr(st, "operation %q has no attribute schema", st.Op)
	}

	src := st.AttrSrc
	if src == "" {
		src = "{}"
	}
	val := v.ctx.CompileString(src)
	if err := val.Err(); err != nil {
		return Attrs{}, "", invalidAttr(st, "bad attribute block: %s", cueDetails(err))
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return Attrs{}, "", invalidAttr(st, "%s", cueDetails(err))
	}

	var a Attrs
	if err := unified.Decode(&a); err != nil {
		return Attrs{}, "", invalidAttr(st, "decode attributes: %v", err)
	}
	js, err := unified.MarshalJSON()
	if err != nil {
		return Attrs{}, "", invalidAttr(st, "canonicalize attributes: %v", err)
	}
	return a, string(js), nil
}

// cueDetails flattens a CUE error to a single diagnostic line.
func cueDetails(err error) string {
	d := cueerrors.Details(err, &cueerrors.Config{Cwd: ""})
	return strings.TrimSpace(strings.ReplaceAll(d, "\n", "; "))
}

func invalidAttr(st Statement, format string, args ...any) *transform.Error {
	return &transform.Error{
		Code:    transform.CodeInvalidAttribute,
		Op:      st.Op,
		Element: -1,
		Message: fmt.Sprintf("line %d: %s", st.Line, fmt.Sprintf(format, args...)),
	}
}
