package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	scenarios, err := LoadDir(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			RunWithGolden(t, s)
		})
	}
}

func TestRun_BadPayload(t *testing.T) {
	s := &Scenario{
		Name:    "bad_payload",
		Payload: "func @main( {",
		Script:  "%loops = match loop in @main\n",
		Expect:  Expect{Status: "ok"},
	}
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payload")
}

func TestRun_BadScript(t *testing.T) {
	s := &Scenario{
		Name:    "bad_script",
		Payload: "func @main(%a) {\n  return\n}\n",
		Script:  "%loops = frobnicate %x\n",
		Expect:  Expect{Status: "ok"},
	}
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script")
}

func TestRun_ScriptFailureIsNotSetupError(t *testing.T) {
	s := &Scenario{
		Name:    "unknown_handle",
		Payload: "func @main(%a) {\n  return\n}\n",
		Script:  "%out = peel %missing\n",
		Expect:  Expect{Status: "failed", Code: "UNKNOWN_HANDLE"},
	}
	r, err := Run(s)
	require.NoError(t, err)
	require.Error(t, r.RunErr)
	Check(t, s, r)
	require.Len(t, r.Events, 1)
}
