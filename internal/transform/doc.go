// Package transform implements the structured-loop rewrites: parent-loop
// resolution, outlining, peeling, software pipelining and unrolling.
//
// Each operation takes a resolved operation list (the payload of a handle),
// rewrites the referenced loops in the live module, and returns the payload
// of its result handle plus per-element statuses. Handle bookkeeping —
// resolution, result binding, invalidation of consumed handles — belongs to
// the driver in package engine; this package only sees OpRef lists.
//
// FAILURE POLICY:
//
// Two contracts exist and both are deliberate:
//
//   - All-or-nothing (GetParentFor, Outline): the operation validates every
//     element before mutating anything. The first element failure aborts the
//     whole operation with the IR untouched.
//
//   - Per-element (Peel, Pipeline, Unroll): elements are processed strictly
//     left to right and mutations committed for earlier elements are NOT
//     rolled back when a later element fails. Callers must read the returned
//     statuses as "some loops transformed, some not". Do not "fix" this into
//     all-or-nothing: call sites rely on partial progress, and rewrites are
//     not idempotent-safe to blindly retry.
//
// Within one operation, elements are processed sequentially because later
// elements may alias operations mutated or deleted by earlier elements.
// Liveness is re-checked through the arena before every mutation.
package transform
