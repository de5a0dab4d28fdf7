package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceCommand_ListsAndShowsRuns(t *testing.T) {
	dir := t.TempDir()
	payload := writeFile(t, dir, "payload.lir", testPayload)
	script := writeFile(t, dir, "script.ltx", testScript)
	db := filepath.Join(dir, "trace.db")

	_, err := execute(t, "run", payload, script, "--db", db)
	require.NoError(t, err)

	out, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "payload.lir")

	out, err = execute(t, "trace", "--db", db, "--run", "latest")
	require.NoError(t, err)
	assert.Contains(t, out, "match")
	assert.Contains(t, out, "peel %loops -> %peeled")
	assert.Contains(t, out, "seq 2")
}

func TestTraceCommand_EmptyStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "trace.db")
	out, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "no runs recorded")
}

func TestTraceCommand_UnknownRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "trace.db")
	_, err := execute(t, "trace", "--db", db, "--run", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
