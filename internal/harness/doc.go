// Package harness runs YAML-defined transform scenarios for conformance
// testing.
//
// A scenario bundles a textual payload, a transform script, and the expected
// outcome (applied cleanly, or failed with a specific error code). For
// scenarios that apply cleanly the printed post-transform IR is compared
// against a golden file under testdata/golden; regenerate with
//
//	go test ./internal/harness -update
package harness
