package config

import (
	"time"

	"github.com/lanl/NGEE-Arctic-E3SM/internal/machines"
)

// HarnessConfig is the top-level configuration structure for e3smci.
type HarnessConfig struct {
	GlobalSettings GlobalSettings      `yaml:"globalSettings"`
	Machines       []machines.Machine  `yaml:"machines"`
	Variants       []VariantDefinition `yaml:"variants"`
	Driver         DriverSettings      `yaml:"driver"`
}

// GlobalSettings holds defaults that apply across commands.
type GlobalSettings struct {
	// WorkDir is the root under which per-variant build directories live.
	WorkDir string `yaml:"workDir,omitempty"`
	// ResultsDir is where reports and captured output land.
	ResultsDir string `yaml:"resultsDir,omitempty"`
	// CaseTimeout is the default per-case timeout.
	CaseTimeout time.Duration `yaml:"caseTimeout,omitempty"`
}

// VariantDefinition describes a named build variant and the cache values the
// configurator is expected to record for it.
type VariantDefinition struct {
	// Name is the short variant identifier, e.g. "dbg".
	Name string `yaml:"name"`
	// LongName is the human-readable variant description.
	LongName string `yaml:"longName,omitempty"`
	// Defines are the -D definitions passed to the configurator.
	Defines map[string]string `yaml:"defines,omitempty"`
	// ExpectedCache maps cache keys to the values the configure step must
	// have recorded; checked case-insensitively after configuration.
	ExpectedCache map[string]string `yaml:"expectedCache,omitempty"`
	// GPUOnly marks variants that only make sense on GPU machines.
	GPUOnly bool `yaml:"gpuOnly,omitempty"`
}

// DriverSettings carries defaults for the build-and-test driver.
type DriverSettings struct {
	// CxxCompiler, CCompiler and FortranCompiler override the configurator's
	// compiler detection when set.
	CxxCompiler     string `yaml:"cxxCompiler,omitempty"`
	CCompiler       string `yaml:"cCompiler,omitempty"`
	FortranCompiler string `yaml:"fortranCompiler,omitempty"`
	// BaselineDir is where stored baselines (and their revision marker) live.
	BaselineDir string `yaml:"baselineDir,omitempty"`
	// TestLevel selects how much of the model test battery the external
	// runner executes: "at" (autotester), "nightly", or "experimental".
	TestLevel string `yaml:"testLevel,omitempty"`
	// ConfigureTool and BuildTool name the external configurator binary
	// (normally cmake) and the test runner binary (normally ctest). CI
	// overrides these with fakes to keep runs fast.
	ConfigureTool string `yaml:"configureTool,omitempty"`
	TestTool      string `yaml:"testTool,omitempty"`
}
