// Package engine applies transform scripts to payload IR.
//
// The engine is the driver: it resolves each statement's input handle,
// dispatches to the transform operation, binds the result handle, and emits
// one trace event per statement.
//
// ARCHITECTURE:
//
// Single-Writer Sequential Application:
// Statements run one at a time against one shared module and one shared
// handle table. There is no concurrency in the application model; rewrites
// mutate the payload in place and are not rolled back.
//
// Failure Policy:
// Operations fall into two groups, and the engine preserves the difference:
//   - all-or-nothing (match, get_parent_for, outline): a failing statement
//     leaves the payload untouched.
//   - per-element (peel, pipeline, unroll): elements already committed when
//     a later element fails stand, and the event records per-element
//     statuses.
// Either way a failed statement halts the run; rewrites are not safe to
// retry, so the caller restarts from the original payload.
//
// Handle Invalidation:
// After any statement, every handle whose binding mentions an operation the
// statement deleted is consumed. Resolving it afterwards fails with
// UNKNOWN_HANDLE.
//
// Logical Clock:
// Every event is stamped with a strictly increasing seq from Clock.Next().
// Never wall-clock timestamps, so traces order deterministically and replay
// reproduces the identical order.
package engine
