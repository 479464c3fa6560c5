package machines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Builtin(t *testing.T) {
	r := NewRegistry(nil)

	m, err := r.Resolve("chicoma-gpu")
	require.NoError(t, err)
	assert.True(t, m.GPU)
	assert.Equal(t, "a100", m.GPUArch)
}

func TestResolve_ConfiguredOverridesBuiltin(t *testing.T) {
	r := NewRegistry([]Machine{
		{Name: "chicoma", CompileJobs: 8},
		{Name: "site-cluster", GPU: true, GPUArch: "mi250"},
	})

	m, err := r.Resolve("chicoma")
	require.NoError(t, err)
	assert.Equal(t, 8, m.CompileJobs)
	assert.Empty(t, m.Env, "config entry replaces the builtin wholesale")

	m, err = r.Resolve("site-cluster")
	require.NoError(t, err)
	assert.Equal(t, "mi250", m.GPUArch)
}

func TestResolve_Unknown(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Resolve("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown machine 'nope'")
	assert.Contains(t, err.Error(), "chicoma")
}

func TestResolve_EnvFallback(t *testing.T) {
	r := NewRegistry(nil)

	t.Setenv(MachineEnvVar, "local")
	m, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "local", m.Name)

	t.Setenv(MachineEnvVar, "")
	_, err = r.Resolve("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no machine specified")
}

func TestEnvSlice_StableOrder(t *testing.T) {
	m := Machine{Env: map[string]string{"B": "2", "A": "1", "C": "3"}}
	assert.Equal(t, []string{"A=1", "B=2", "C=3"}, m.EnvSlice())
	assert.Nil(t, Machine{}.EnvSlice())
}
