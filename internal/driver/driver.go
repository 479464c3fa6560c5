// Package driver implements the build-and-test driver behind `e3smci
// driver`: per build variant it invokes the external configurator, verifies
// the cache it wrote, runs the build, and hands off to the external test
// runner. All real work happens in those tools; the driver only builds
// command lines and inspects their output.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/lanl/NGEE-Arctic-E3SM/internal/baseline"
	"github.com/lanl/NGEE-Arctic-E3SM/internal/buildcache"
	"github.com/lanl/NGEE-Arctic-E3SM/internal/casedef"
	"github.com/lanl/NGEE-Arctic-E3SM/internal/config"
	"github.com/lanl/NGEE-Arctic-E3SM/internal/execx"
	"github.com/lanl/NGEE-Arctic-E3SM/internal/machines"
	"github.com/lanl/NGEE-Arctic-E3SM/pkg/logging"
)

// FakeBuildEnvVar short-circuits the external tools in CI. The driver only
// passes it through; the tools themselves decide what to skip.
const FakeBuildEnvVar = "E3SMCI_FAKE_BUILD"

// Options configures a driver run.
type Options struct {
	Machine  machines.Machine
	Variants []config.VariantDefinition
	// SourceDir is the model checkout the configurator reads.
	SourceDir string
	// WorkDir is the root for per-variant build directories.
	WorkDir string
	// BaselineDir, when set, is checked for its revision marker after the
	// variants complete.
	BaselineDir string
	// TestLevel is forwarded to the test runner as a label filter.
	TestLevel string

	CxxCompiler     string
	CCompiler       string
	FortranCompiler string

	// ConfigureTool and TestTool default to cmake and ctest.
	ConfigureTool string
	TestTool      string

	// Case, when set, is forwarded to the test runner so the model runs the
	// described atmosphere configuration.
	Case *casedef.CaseDefinition
}

// Driver runs the configure/verify/build/test sequence for its variants.
type Driver struct {
	opts Options
}

// New validates the options and creates a driver.
func New(opts Options) (*Driver, error) {
	if opts.Machine.Name == "" {
		return nil, fmt.Errorf("driver requires a machine")
	}
	if len(opts.Variants) == 0 {
		return nil, fmt.Errorf("driver requires at least one build variant")
	}
	if opts.SourceDir == "" {
		return nil, fmt.Errorf("driver requires a source directory")
	}
	if opts.WorkDir == "" {
		return nil, fmt.Errorf("driver requires a work directory")
	}
	if opts.ConfigureTool == "" {
		opts.ConfigureTool = "cmake"
	}
	if opts.TestTool == "" {
		opts.TestTool = "ctest"
	}
	return &Driver{opts: opts}, nil
}

// Run executes the full sequence for every variant, then the baseline check.
// The first failing step aborts the run with a descriptive error.
func (d *Driver) Run(ctx context.Context) error {
	for _, variant := range d.opts.Variants {
		if variant.GPUOnly && !d.opts.Machine.GPU {
			logging.Info("driver", "skipping GPU-only variant '%s' on %s", variant.Name, d.opts.Machine.Name)
			continue
		}
		if err := d.runVariant(ctx, variant); err != nil {
			return fmt.Errorf("variant '%s': %w", variant.Name, err)
		}
	}

	if d.opts.BaselineDir != "" {
		status, err := baseline.Check(ctx, d.opts.SourceDir, d.opts.BaselineDir)
		if err != nil {
			return fmt.Errorf("baseline check: %w", err)
		}
		if status.UpToDate() {
			logging.Info("driver", "baselines are up to date with HEAD (%s)", status.SHA)
		} else {
			logging.Warn("driver", "baselines generated at %s: HEAD is %d ahead, %d behind",
				status.SHA, status.Ahead, status.Behind)
		}
	}

	return nil
}

func (d *Driver) runVariant(ctx context.Context, variant config.VariantDefinition) error {
	buildDir := filepath.Join(d.opts.WorkDir, variant.Name)
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return fmt.Errorf("failed to create build directory %s: %w", buildDir, err)
	}

	logging.Info("driver", "configuring variant '%s' (%s)", variant.Name, variant.LongName)
	if err := d.runTool(ctx, d.opts.ConfigureTool, d.configureArgs(variant, buildDir)); err != nil {
		return err
	}

	// The configurator must have recorded the variant's settings.
	cachePath := buildcache.VariantCachePath(d.opts.WorkDir, variant.Name)
	for _, key := range sortedKeys(variant.ExpectedCache) {
		if err := buildcache.Matches(cachePath, key, variant.ExpectedCache[key]); err != nil {
			return err
		}
	}

	logging.Info("driver", "building variant '%s'", variant.Name)
	if err := d.runTool(ctx, d.opts.ConfigureTool, d.buildArgs(buildDir)); err != nil {
		return err
	}

	logging.Info("driver", "testing variant '%s'", variant.Name)
	return d.runTool(ctx, d.opts.TestTool, d.testArgs(buildDir))
}

// runTool invokes an external tool, streaming output lines through the
// debug log, and turns a non-zero exit into an error.
func (d *Driver) runTool(ctx context.Context, name string, args []string) error {
	cmd := execx.Command{
		Name: name,
		Args: args,
		Env:  d.toolEnv(),
	}
	result, err := execx.RunStreaming(ctx, cmd, func(stream, line string) {
		logging.Debug("driver", "%s: %s", stream, line)
	})
	if err != nil {
		return err
	}
	if result.Failed() {
		return fmt.Errorf("'%s' exited with code %d. Stderr: %s", cmd, result.ExitCode, tail(result.Stderr, 2000))
	}
	return nil
}

func (d *Driver) toolEnv() []string {
	env := d.opts.Machine.EnvSlice()
	if os.Getenv(FakeBuildEnvVar) != "" {
		env = append(env, FakeBuildEnvVar+"="+os.Getenv(FakeBuildEnvVar))
	}
	return env
}

// configureArgs builds the configurator command line for a variant.
func (d *Driver) configureArgs(variant config.VariantDefinition, buildDir string) []string {
	args := []string{"-S", d.opts.SourceDir, "-B", buildDir}

	defines := map[string]string{
		"E3SM_MACHINE": d.opts.Machine.Name,
	}
	if d.opts.Machine.GPU {
		defines["E3SM_GPU_ARCH"] = d.opts.Machine.GPUArch
	}
	if d.opts.CxxCompiler != "" {
		defines["CMAKE_CXX_COMPILER"] = d.opts.CxxCompiler
	}
	if d.opts.CCompiler != "" {
		defines["CMAKE_C_COMPILER"] = d.opts.CCompiler
	}
	if d.opts.FortranCompiler != "" {
		defines["CMAKE_Fortran_COMPILER"] = d.opts.FortranCompiler
	}
	if d.opts.Case != nil {
		defines["E3SM_CASE_DEFINITION"] = d.opts.Case.Path
	}
	for k, v := range variant.Defines {
		defines[k] = v
	}

	for _, k := range sortedKeys(defines) {
		args = append(args, fmt.Sprintf("-D%s=%s", k, defines[k]))
	}
	return args
}

func (d *Driver) buildArgs(buildDir string) []string {
	args := []string{"--build", buildDir}
	if d.opts.Machine.CompileJobs > 0 {
		args = append(args, "-j", strconv.Itoa(d.opts.Machine.CompileJobs))
	}
	return args
}

func (d *Driver) testArgs(buildDir string) []string {
	args := []string{"--test-dir", buildDir, "--output-on-failure"}
	if d.opts.TestLevel != "" {
		args = append(args, "-L", d.opts.TestLevel)
	}
	return args
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func tail(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
