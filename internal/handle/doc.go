// Package handle implements the handle table: the per-run mapping from
// handle identity to an ordered list of payload operation references.
//
// Handles are the only currency between transform operations. A matching
// step (or a prior operation) binds a handle to an ordered OpRef list; the
// next operation resolves it, rewrites the referenced loops, and binds its
// own result handle. Order is significant everywhere and the table never
// reorders a payload.
//
// A handle is consumed the moment the operations it referenced are deleted:
// the owning operation calls Invalidate, and any later Resolve fails with
// UnknownHandleError. Resolution alone does not guarantee liveness — an
// earlier element of the same rewrite may have deleted a later element's
// operation — so rewrites re-check ir.Module.Alive before each mutation.
package handle
