// Package casedef reads the YAML file that defines a model run: the
// atmosphere-process list and the I/O configuration the simulation driver
// consumes. The harness only parses enough of it to name the case and forward
// the file; semantic validation belongs to the simulation driver.
package casedef

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CaseDefinition is the subset of the model-run YAML the harness understands.
type CaseDefinition struct {
	// Path is where the definition was loaded from; the driver forwards it
	// verbatim to the simulation executable.
	Path string `yaml:"-"`

	CaseName   string           `yaml:"case_name"`
	Atmosphere AtmosphereConfig `yaml:"atmosphere"`
	Output     []OutputStream   `yaml:"output,omitempty"`
}

// AtmosphereConfig lists the atmosphere processes a run steps through and the
// coupling timestep. The timestep stays a string; its interpretation belongs
// to the simulation driver.
type AtmosphereConfig struct {
	Processes []AtmosphereProcess `yaml:"processes"`
	Timestep  string              `yaml:"timestep,omitempty"`
}

// AtmosphereProcess is a single entry in the process list.
type AtmosphereProcess struct {
	Name string `yaml:"name"`
	// Type distinguishes physics, dynamics, and group entries.
	Type string `yaml:"type,omitempty"`
	// Settings are passed through untouched; their meaning belongs to the
	// simulation driver.
	Settings map[string]interface{} `yaml:"settings,omitempty"`
}

// OutputStream describes one I/O stream of the run.
type OutputStream struct {
	Name      string   `yaml:"name"`
	Frequency string   `yaml:"frequency,omitempty"`
	Fields    []string `yaml:"fields,omitempty"`
}

// Load reads and parses a case definition file.
func Load(path string) (CaseDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CaseDefinition{}, fmt.Errorf("failed to read case definition %s: %w", path, err)
	}

	var def CaseDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return CaseDefinition{}, fmt.Errorf("failed to parse case definition %s: %w", path, err)
	}
	def.Path = path

	if def.CaseName == "" {
		return CaseDefinition{}, fmt.Errorf("case definition %s has no case_name", path)
	}
	if len(def.Atmosphere.Processes) == 0 {
		return CaseDefinition{}, fmt.Errorf("case definition %s lists no atmosphere processes", path)
	}

	return def, nil
}

// ProcessNames returns the atmosphere process names in declaration order.
func (d CaseDefinition) ProcessNames() []string {
	names := make([]string, 0, len(d.Atmosphere.Processes))
	for _, p := range d.Atmosphere.Processes {
		names = append(names, p.Name)
	}
	return names
}
