package harness

import (
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looptx/looptx/internal/transform"
)

// Check asserts a scenario's expected outcome against a result.
func Check(t *testing.T, s *Scenario, r *Result) {
	t.Helper()
	switch s.Expect.Status {
	case "ok":
		require.NoError(t, r.RunErr, "scenario %s expected a clean run", s.Name)
	case "failed":
		require.Error(t, r.RunErr, "scenario %s expected a failure", s.Name)
		if s.Expect.Code != "" {
			assert.True(t, transform.IsCode(r.RunErr, transform.Code(s.Expect.Code)),
				"scenario %s: want code %s, got %v", s.Name, s.Expect.Code, r.RunErr)
		}
	}
}

// RunWithGolden runs a scenario, checks its expectations, and for clean runs
// compares the printed IR against testdata/golden/{name}.golden.
func RunWithGolden(t *testing.T, s *Scenario) {
	t.Helper()
	r, err := Run(s)
	require.NoError(t, err)
	Check(t, s, r)
	if s.Expect.Status != "ok" {
		return
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, []byte(r.IR))
}
