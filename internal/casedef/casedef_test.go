package casedef

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCase = `case_name: arctic-column
atmosphere:
  timestep: 5m
  processes:
    - name: dynamics
      type: dynamics
    - name: shoc
      type: physics
      settings:
        enable_check: true
    - name: p3
      type: physics
output:
  - name: hourly
    frequency: 1h
    fields: [T_mid, qv]
`

func writeCase(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "case.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeCase(t, sampleCase)

	def, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "arctic-column", def.CaseName)
	assert.Equal(t, path, def.Path)
	assert.Equal(t, []string{"dynamics", "shoc", "p3"}, def.ProcessNames())
	require.Len(t, def.Output, 1)
	assert.Equal(t, []string{"T_mid", "qv"}, def.Output[0].Fields)
	assert.Equal(t, true, def.Atmosphere.Processes[1].Settings["enable_check"])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read case definition")
}

func TestLoad_NoCaseName(t *testing.T) {
	path := writeCase(t, "atmosphere:\n  processes:\n    - name: p3\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no case_name")
}

func TestLoad_NoProcesses(t *testing.T) {
	path := writeCase(t, "case_name: empty\natmosphere:\n  processes: []\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no atmosphere processes")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeCase(t, "case_name: [broken")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}
