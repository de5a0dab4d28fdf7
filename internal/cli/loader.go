package cli

import (
	"fmt"
	"os"

	"github.com/looptx/looptx/internal/ir"
	"github.com/looptx/looptx/internal/script"
)

// loadPayload reads and parses a textual payload file (.lir).
func loadPayload(path string) (*ir.Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read payload", err)
	}
	mod, err := ir.Parse(string(src))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to parse payload %s", path), err)
	}
	return mod, nil
}

// loadScript reads and parses a transform script file (.ltx). Returns the
// statements plus the raw source, which trace runs record verbatim.
func loadScript(path string) ([]script.Statement, string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "failed to read script", err)
	}
	stmts, err := script.Parse(string(src))
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, fmt.Sprintf("failed to parse script %s", path), err)
	}
	return stmts, string(src), nil
}
