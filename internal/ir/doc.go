// Package ir provides the payload intermediate representation that the
// transform operations rewrite.
//
// This package contains the IR substrate only. All other internal packages
// import ir; ir imports nothing internal. This keeps the IR the foundational
// layer with no circular dependencies.
//
// ARCHITECTURE:
//
// Arena storage:
// Operations live in a per-module arena and are addressed by OpRef (an
// integer index), never by pointer. Deleting an operation tombstones its
// arena slot instead of freeing it, so a stale OpRef held by a handle can be
// detected (Alive returns false) rather than dereferencing freed structure.
// Every rewrite must re-check liveness before mutating through a ref.
//
// Closed kind set:
// OpKind is a closed tagged variant. The transformation surface is small and
// fixed, so dispatch is a switch over OpKind rather than open-ended type
// dispatch. KindMemGather exists specifically as the indirect-addressing
// memory kind that the pipeliner refuses to re-schedule.
//
// Nesting:
// Operations nest strictly as a tree: each operation has at most one parent,
// and regions (func and loop bodies) are ordered OpRef lists. Ancestor
// chains are finite and acyclic.
//
// Values:
// Values are module-scoped ValueIDs with a def table mapping each value to
// the operation that defines it. Loop induction variables, iteration
// arguments and func parameters are defined by their enclosing operation.
package ir
