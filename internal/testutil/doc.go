// Package testutil provides payload-IR builders shared by tests across
// packages. Builders construct the canonical shapes the transform tests
// exercise: a read/write streaming loop, nests of counted loops, and loops
// with carried accumulators.
package testutil
