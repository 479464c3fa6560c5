package driver

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanl/NGEE-Arctic-E3SM/internal/baseline"
	"github.com/lanl/NGEE-Arctic-E3SM/internal/casedef"
	"github.com/lanl/NGEE-Arctic-E3SM/internal/config"
	"github.com/lanl/NGEE-Arctic-E3SM/internal/machines"
)

// fakeTools writes stub configurator/test-runner scripts that record their
// arguments and emulate the cache file the real configurator writes.
type fakeTools struct {
	configure string
	test      string
	logFile   string
}

func newFakeTools(t *testing.T) fakeTools {
	t.Helper()
	dir := t.TempDir()
	logFile := filepath.Join(dir, "invocations.log")

	configure := filepath.Join(dir, "fake-cmake")
	configureScript := fmt.Sprintf(`#!/bin/sh
echo "cmake $@" >> %s
if [ "$1" = "--build" ]; then
  exit 0
fi
builddir=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-B" ]; then builddir="$a"; fi
  prev="$a"
done
if [ -n "$builddir" ]; then
  : > "$builddir/CMakeCache.txt"
  for a in "$@"; do
    case "$a" in
      -D*) echo "${a#-D}" | sed 's/=/:STRING=/' >> "$builddir/CMakeCache.txt";;
    esac
  done
fi
`, logFile)
	require.NoError(t, os.WriteFile(configure, []byte(configureScript), 0755))

	test := filepath.Join(dir, "fake-ctest")
	testScript := fmt.Sprintf("#!/bin/sh\necho \"ctest $@\" >> %s\n", logFile)
	require.NoError(t, os.WriteFile(test, []byte(testScript), 0755))

	return fakeTools{configure: configure, test: test, logFile: logFile}
}

func (f fakeTools) log(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.logFile)
	require.NoError(t, err)
	return string(data)
}

func dbgVariant() config.VariantDefinition {
	return config.VariantDefinition{
		Name:     "dbg",
		LongName: "full_debug",
		Defines: map[string]string{
			"CMAKE_BUILD_TYPE": "Debug",
		},
		ExpectedCache: map[string]string{
			"CMAKE_BUILD_TYPE": "Debug",
		},
	}
}

func newOptions(t *testing.T, tools fakeTools) Options {
	t.Helper()
	return Options{
		Machine:       machines.Machine{Name: "local", CompileJobs: 4},
		Variants:      []config.VariantDefinition{dbgVariant()},
		SourceDir:     t.TempDir(),
		WorkDir:       t.TempDir(),
		TestLevel:     "at",
		ConfigureTool: tools.configure,
		TestTool:      tools.test,
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr string
	}{
		{"no machine", func(o *Options) { o.Machine = machines.Machine{} }, "requires a machine"},
		{"no variants", func(o *Options) { o.Variants = nil }, "at least one build variant"},
		{"no source", func(o *Options) { o.SourceDir = "" }, "source directory"},
		{"no work dir", func(o *Options) { o.WorkDir = "" }, "work directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := newOptions(t, newFakeTools(t))
			tt.mutate(&opts)
			_, err := New(opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_FullSequence(t *testing.T) {
	tools := newFakeTools(t)
	opts := newOptions(t, tools)

	d, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, d.Run(context.Background()))

	log := tools.log(t)
	// Configure, build, test, in that order.
	configureIdx := strings.Index(log, "-S "+opts.SourceDir)
	buildIdx := strings.Index(log, "--build")
	testIdx := strings.Index(log, "--test-dir")
	require.GreaterOrEqual(t, configureIdx, 0)
	assert.Greater(t, buildIdx, configureIdx)
	assert.Greater(t, testIdx, buildIdx)

	assert.Contains(t, log, "-DCMAKE_BUILD_TYPE=Debug")
	assert.Contains(t, log, "-DE3SM_MACHINE=local")
	assert.Contains(t, log, "-j 4")
	assert.Contains(t, log, "--output-on-failure")
	assert.Contains(t, log, "-L at")

	// The emulated cache landed where the harness expects it.
	_, err = os.Stat(filepath.Join(opts.WorkDir, "dbg", "CMakeCache.txt"))
	assert.NoError(t, err)
}

func TestRun_GPUDefines(t *testing.T) {
	tools := newFakeTools(t)
	opts := newOptions(t, tools)
	opts.Machine = machines.Machine{Name: "chicoma-gpu", GPU: true, GPUArch: "a100"}
	opts.CxxCompiler = "g++"

	d, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, d.Run(context.Background()))

	log := tools.log(t)
	assert.Contains(t, log, "-DE3SM_GPU_ARCH=a100")
	assert.Contains(t, log, "-DCMAKE_CXX_COMPILER=g++")
}

func TestRun_SkipsGPUOnlyVariantOnCPUMachine(t *testing.T) {
	tools := newFakeTools(t)
	opts := newOptions(t, tools)
	opts.Variants = append(opts.Variants, config.VariantDefinition{
		Name:          "gpu-opt",
		GPUOnly:       true,
		ExpectedCache: map[string]string{"NEVER_CHECKED": "1"},
	})

	d, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, d.Run(context.Background()))

	assert.NotContains(t, tools.log(t), "gpu-opt")
}

func TestRun_CacheMismatch(t *testing.T) {
	tools := newFakeTools(t)
	opts := newOptions(t, tools)
	// The configurator will record Debug, but we expect Release.
	opts.Variants[0].ExpectedCache = map[string]string{"CMAKE_BUILD_TYPE": "Release"}

	d, err := New(opts)
	require.NoError(t, err)
	err = d.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variant 'dbg'")
	assert.Contains(t, err.Error(), "expected 'Release'")
}

func TestRun_ConfigureFailure(t *testing.T) {
	tools := newFakeTools(t)
	failing := filepath.Join(t.TempDir(), "failing-cmake")
	require.NoError(t, os.WriteFile(failing, []byte("#!/bin/sh\necho broken >&2\nexit 7\n"), 0755))

	opts := newOptions(t, tools)
	opts.ConfigureTool = failing

	d, err := New(opts)
	require.NoError(t, err)
	err = d.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited with code 7")
	assert.Contains(t, err.Error(), "broken")
}

func TestRun_CaseDefinitionForwarded(t *testing.T) {
	tools := newFakeTools(t)
	opts := newOptions(t, tools)
	opts.Case = &casedef.CaseDefinition{Path: "/cases/arctic.yaml", CaseName: "arctic"}

	d, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, d.Run(context.Background()))

	assert.Contains(t, tools.log(t), "-DE3SM_CASE_DEFINITION=/cases/arctic.yaml")
}

func TestRun_BaselineCheck(t *testing.T) {
	tools := newFakeTools(t)
	opts := newOptions(t, tools)

	// Make the source dir a git repo so the baseline marker can be compared.
	runGit := func(args ...string) string {
		cmd := exec.Command("git", args...)
		cmd.Dir = opts.SourceDir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=harness",
			"GIT_AUTHOR_EMAIL=harness@test",
			"GIT_COMMITTER_NAME=harness",
			"GIT_COMMITTER_EMAIL=harness@test",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
		return string(out)
	}
	require.NoError(t, os.WriteFile(filepath.Join(opts.SourceDir, "f"), []byte("x\n"), 0644))
	runGit("init", "-b", "main")
	runGit("add", "f")
	runGit("commit", "-m", "initial")
	head := strings.TrimSpace(runGit("rev-parse", "HEAD"))

	baselineDir := t.TempDir()
	require.NoError(t, os.WriteFile(baseline.MarkerPath(baselineDir), []byte(head+"\n"), 0644))
	opts.BaselineDir = baselineDir

	d, err := New(opts)
	require.NoError(t, err)
	assert.NoError(t, d.Run(context.Background()))
}

func TestRun_BaselineMarkerMissing(t *testing.T) {
	tools := newFakeTools(t)
	opts := newOptions(t, tools)
	opts.BaselineDir = t.TempDir()

	d, err := New(opts)
	require.NoError(t, err)
	err = d.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baseline check")
}
