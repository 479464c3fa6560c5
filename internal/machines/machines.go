// Package machines resolves the target machine descriptor for a harness run.
// The descriptor is looked up once from a name string and treated as
// immutable for the rest of the session.
package machines

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// MachineEnvVar identifies the target machine when no --machine flag is given.
const MachineEnvVar = "E3SMCI_MACHINE"

// Machine describes a build/test machine.
type Machine struct {
	// Name is the machine identifier used on the command line and in config.
	Name string `yaml:"name"`
	// GPU indicates the machine builds and runs device kernels.
	GPU bool `yaml:"gpu,omitempty"`
	// GPUArch is the device architecture tag (e.g. "a100") for GPU machines.
	GPUArch string `yaml:"gpuArch,omitempty"`
	// Env lists KEY=VALUE pairs exported to every command run on this machine.
	Env map[string]string `yaml:"env,omitempty"`
	// CompileJobs is the parallelism passed to the build tool. Zero means
	// the tool's own default.
	CompileJobs int `yaml:"compileJobs,omitempty"`
}

// EnvSlice renders the machine environment as KEY=VALUE pairs in stable order.
func (m Machine) EnvSlice() []string {
	if len(m.Env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m.Env))
	for k := range m.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+m.Env[k])
	}
	return pairs
}

// Registry holds the known machine descriptors.
type Registry struct {
	machines map[string]Machine
}

// NewRegistry creates a registry seeded with the built-in machines, with
// configured ones layered on top (same-name config entries win).
func NewRegistry(configured []Machine) *Registry {
	r := &Registry{machines: make(map[string]Machine)}
	for _, m := range builtinMachines() {
		r.machines[m.Name] = m
	}
	for _, m := range configured {
		r.machines[m.Name] = m
	}
	return r
}

// Resolve looks up a machine by name. An empty name falls back to the
// E3SMCI_MACHINE environment variable.
func (r *Registry) Resolve(name string) (Machine, error) {
	if name == "" {
		name = os.Getenv(MachineEnvVar)
	}
	if name == "" {
		return Machine{}, fmt.Errorf("no machine specified: use --machine or set %s", MachineEnvVar)
	}

	m, ok := r.machines[name]
	if !ok {
		return Machine{}, fmt.Errorf("unknown machine '%s', known machines: %s", name, strings.Join(r.Names(), ", "))
	}
	return m, nil
}

// Names returns the known machine names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.machines))
	for name := range r.machines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// builtinMachines are the machines the harness knows about without any
// configuration. Sites add their own via the layered config.
func builtinMachines() []Machine {
	return []Machine{
		{
			Name:        "local",
			CompileJobs: 4,
		},
		{
			Name:        "chicoma",
			CompileJobs: 32,
			Env:         map[string]string{"OMP_PROC_BIND": "spread"},
		},
		{
			Name:        "chicoma-gpu",
			GPU:         true,
			GPUArch:     "a100",
			CompileJobs: 32,
		},
		{
			Name:        "perlmutter",
			GPU:         true,
			GPUArch:     "a100",
			CompileJobs: 64,
		},
	}
}
