package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "clock_basic.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "clock_basic", s.Name)
	assert.Equal(t, "../specs", s.Specs)
	assert.Equal(t, "t1", s.Task.ID)
	require.Len(t, s.Code, 1)
	assert.Equal(t, "clock", s.Code[0].Service)
	require.NotNil(t, s.Expect)
	assert.True(t, s.Expect.Clean)
}

func TestLoadScenarioValidation(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing_name", "specs: x\ntask: {id: t1}\n", "name is required"},
		{"missing_specs", "name: s\ntask: {id: t1}\n", "specs directory is required"},
		{"missing_task_id", "name: s\nspecs: x\n", "task.id is required"},
		{"bad_yaml", "name: [unclosed\n", "parse scenario"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestRunResolvesRelativeSpecs(t *testing.T) {
	path := filepath.Join("testdata", "scenarios", "clock_basic.yaml")
	s, err := LoadScenario(path)
	require.NoError(t, err)

	result, err := Run(path, s)
	require.NoError(t, err)
	require.NoError(t, Check(s, result))

	assert.Equal(t, []string{"clock"}, result.Set.Services)
	require.NotNil(t, result.Document)
	assert.Equal(t, "t1", result.Document.TaskID)
}

func TestCheckReportsMismatch(t *testing.T) {
	path := filepath.Join("testdata", "scenarios", "clock_basic.yaml")
	s, err := LoadScenario(path)
	require.NoError(t, err)

	result, err := Run(path, s)
	require.NoError(t, err)

	s.Expect.Services = []string{"whatsapp"}
	err = Check(s, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "services:")
}

func TestExpectedErrorScenario(t *testing.T) {
	path := filepath.Join("testdata", "scenarios", "missing_code.yaml")
	s, err := LoadScenario(path)
	require.NoError(t, err)

	result, err := Run(path, s)
	require.NoError(t, err)
	require.Error(t, result.Err)
	require.NoError(t, Check(s, result))
}
