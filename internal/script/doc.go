// Package script parses and validates transform scripts.
//
// A script is a sequence of statements, one per line, in a minimal assembly
// grammar:
//
//	%loops  = match loop in @main
//	%parent = get_parent_for %loops {num_loops: 2}
//	%funcs  = outline %loops {func_name: "body"}
//	          unroll %loops {factor: 4}
//
// Each statement names an operation, an input handle, and an optional
// attribute block. match is the entry point: it binds a handle to every
// operation of a kind under a named callable, in preorder.
//
// ARCHITECTURE:
//
// Parsing and validation are separate passes. Parse produces Statements with
// the attribute block carried as raw source text; Validator then unifies each
// block against an embedded CUE schema, which supplies defaults, enforces the
// per-operation constraint table, and rejects unknown attributes (every
// schema entry is a closed definition). Violations surface as
// INVALID_ATTRIBUTE before the engine touches any payload.
package script
