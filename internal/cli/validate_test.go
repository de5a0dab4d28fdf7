package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_ValidScript(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "script.ltx", testScript)

	out, err := execute(t, "validate", script)
	require.NoError(t, err)
	assert.Contains(t, out, "script is valid")
}

func TestValidateCommand_AttributeViolation(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "script.ltx", "%l = match loop in @main\nunroll %l {factor: 0}\n")

	out, err := execute(t, "validate", script)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "INVALID_ATTRIBUTE")
}

func TestValidateCommand_SyntaxErrorIsCommandError(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "script.ltx", "%l = frobnicate %x\n")

	_, err := execute(t, "validate", script)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
