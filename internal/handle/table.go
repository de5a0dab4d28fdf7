package handle

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/looptx/looptx/internal/ir"
)

// Handle identifies a bound list of operation references. Script-visible
// handles carry their script name ("%loops"); handles minted by the driver
// for unnamed results are UUIDv7 strings, which sort by creation time in
// traces.
type Handle string

// New mints a fresh, unnamed handle identity.
//
// Panics if UUID generation fails (should never happen in practice).
func New() Handle {
	return Handle(uuid.Must(uuid.NewV7()).String())
}

// UnknownHandleError is returned when resolving a handle that was never
// bound or that has been invalidated by a consuming rewrite.
type UnknownHandleError struct {
	Handle Handle
}

func (e *UnknownHandleError) Error() string {
	return fmt.Sprintf("unknown handle %q (never bound or already consumed)", string(e.Handle))
}

// Table is the handle table for one transformation run. It is not safe for
// concurrent use; the application model is strictly sequential.
type Table struct {
	bindings map[Handle][]ir.OpRef
	consumed map[Handle]bool
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		bindings: make(map[Handle][]ir.OpRef),
		consumed: make(map[Handle]bool),
	}
}

// Bind associates h with an ordered operation list, replacing any previous
// binding and clearing a previous invalidation. The list is copied.
func (t *Table) Bind(h Handle, refs []ir.OpRef) {
	t.bindings[h] = append([]ir.OpRef(nil), refs...)
	delete(t.consumed, h)
}

// Resolve returns the list bound to h, in binding order. It fails with
// UnknownHandleError if h was never bound or has been invalidated. The
// returned slice is a copy; mutating it does not affect the table.
func (t *Table) Resolve(h Handle) ([]ir.OpRef, error) {
	if t.consumed[h] {
		return nil, &UnknownHandleError{Handle: h}
	}
	refs, ok := t.bindings[h]
	if !ok {
		return nil, &UnknownHandleError{Handle: h}
	}
	return append([]ir.OpRef(nil), refs...), nil
}

// Invalidate marks h consumed. Subsequent resolves fail until h is re-bound.
// Invalidating an unbound handle is a no-op.
func (t *Table) Invalidate(h Handle) {
	if _, ok := t.bindings[h]; ok {
		t.consumed[h] = true
	}
}

// InvalidateReferencing consumes every handle whose binding mentions any of
// the given operations. Called after a rewrite deletes operations, so that
// aliasing handles cannot be resolved against dead IR.
func (t *Table) InvalidateReferencing(dead ...ir.OpRef) {
	set := make(map[ir.OpRef]bool, len(dead))
	for _, r := range dead {
		set[r] = true
	}
	for h, refs := range t.bindings {
		if t.consumed[h] {
			continue
		}
		for _, r := range refs {
			if set[r] {
				t.consumed[h] = true
				break
			}
		}
	}
}
