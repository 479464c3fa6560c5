package harness

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lanl/NGEE-Arctic-E3SM/internal/machines"
)

// Result represents the outcome of a case or suite.
type Result string

const (
	// ResultPassed indicates the case passed successfully
	ResultPassed Result = "PASSED"
	// ResultFailed indicates the case failed an expectation
	ResultFailed Result = "FAILED"
	// ResultSkipped indicates the case was filtered out by the run mode
	ResultSkipped Result = "SKIPPED"
	// ResultError indicates the case could not be executed at all
	ResultError Result = "ERROR"
)

// RunMode carries the two session flags that select which cases run.
type RunMode struct {
	// Full enables the cases that do real builds; without it the session is
	// a dry run using the fake tools.
	Full bool `yaml:"full"`
	// Jenkins marks a CI session; jenkins-only cases run, local-only ones
	// are skipped.
	Jenkins bool `yaml:"jenkins"`
}

// Duration wraps time.Duration so case files can write "5m" or "300s".
type Duration time.Duration

// UnmarshalYAML parses a duration from a YAML string or integer (seconds).
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var asString string
	if err := value.Decode(&asString); err == nil {
		parsed, err := time.ParseDuration(asString)
		if err != nil {
			return fmt.Errorf("invalid duration '%s'", asString)
		}
		*d = Duration(parsed)
		return nil
	}
	var asInt int64
	if err := value.Decode(&asInt); err == nil {
		*d = Duration(time.Duration(asInt) * time.Second)
		return nil
	}
	return fmt.Errorf("invalid duration value")
}

// MarshalYAML renders the duration back as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Suite is a named group of cases loaded from one YAML file.
type Suite struct {
	// Name is the unique identifier for the suite
	Name string `yaml:"name"`
	// Description provides a human-readable suite description
	Description string `yaml:"description,omitempty"`
	// Cases are the test cases in declaration order
	Cases []Case `yaml:"cases"`
}

// Case defines a single test case: one external command plus the
// expectations applied to its outcome.
type Case struct {
	// Name is the case identifier
	Name string `yaml:"name"`
	// Description explains what the case checks
	Description string `yaml:"description,omitempty"`
	// Command is the command line to run; arguments may carry ${machine},
	// ${work}, ${results} and ${gpu_arch} substitutions
	Command []string `yaml:"command"`
	// Dir is the working directory for the command (after substitution)
	Dir string `yaml:"dir,omitempty"`
	// Env lists extra KEY=VALUE pairs for the command (after substitution)
	Env []string `yaml:"env,omitempty"`
	// Expect defines the expected outcome
	Expect Expectation `yaml:"expect"`
	// FullOnly restricts the case to full (real-build) sessions
	FullOnly bool `yaml:"fullOnly,omitempty"`
	// JenkinsOnly restricts the case to Jenkins CI sessions
	JenkinsOnly bool `yaml:"jenkinsOnly,omitempty"`
	// LocalOnly excludes the case from Jenkins CI sessions
	LocalOnly bool `yaml:"localOnly,omitempty"`
	// GPUOnly restricts the case to GPU machines
	GPUOnly bool `yaml:"gpuOnly,omitempty"`
	// Timeout overrides the session default for this case
	Timeout Duration `yaml:"timeout,omitempty"`
}

// Expectation defines what outcome a case expects from its command.
type Expectation struct {
	// ExitCode the command must exit with. Ignored when MustFail is set.
	ExitCode int `yaml:"exitCode,omitempty"`
	// MustFail expects any non-zero exit; a zero exit fails the case with
	// "command should have failed but didn't".
	MustFail bool `yaml:"mustFail,omitempty"`
	// Contains checks that combined output contains each substring
	Contains []string `yaml:"contains,omitempty"`
	// NotContains checks that combined output contains none of the substrings
	NotContains []string `yaml:"notContains,omitempty"`
	// Cache checks applied against variant build caches after the command
	Cache []CacheCheck `yaml:"cache,omitempty"`
	// Placement verifies thread/rank placement lists in the command output
	Placement *PlacementCheck `yaml:"placement,omitempty"`
}

// CacheCheck asserts one key/value in a variant's build cache.
type CacheCheck struct {
	Variant string `yaml:"variant"`
	Key     string `yaml:"key"`
	Value   string `yaml:"value"`
}

// PlacementCheck asserts the command output's placement lists cover a
// contiguous processor range.
type PlacementCheck struct {
	// Marker selects the output lines carrying placement lists
	Marker string `yaml:"marker"`
	// Start is the first processor id of the expected range
	Start int `yaml:"start"`
}

// RunConfig is the resolved per-session configuration.
type RunConfig struct {
	Machine     machines.Machine
	Mode        RunMode
	WorkDir     string
	ResultsDir  string
	CaseTimeout time.Duration
	FailFast    bool
	// OnlyCase, when set, restricts the run to the named case.
	OnlyCase string
}

// CaseResult records the outcome of a single case.
type CaseResult struct {
	Case      Case          `json:"case"`
	Result    Result        `json:"result"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	ExitCode  int           `json:"exit_code"`
	Stdout    string        `json:"stdout,omitempty"`
	Stderr    string        `json:"stderr,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// SuiteResult is the aggregate outcome of a session.
type SuiteResult struct {
	RunID        string        `json:"run_id"`
	Machine      string        `json:"machine"`
	Mode         RunMode       `json:"mode"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration"`
	TotalCases   int           `json:"total_cases"`
	PassedCases  int           `json:"passed_cases"`
	FailedCases  int           `json:"failed_cases"`
	SkippedCases int           `json:"skipped_cases"`
	ErrorCases   int           `json:"error_cases"`
	CaseResults  []CaseResult  `json:"case_results"`
}

// Failed reports whether any case failed or errored.
func (s SuiteResult) Failed() bool {
	return s.FailedCases > 0 || s.ErrorCases > 0
}

// Reporter receives progress and results during a session.
type Reporter interface {
	// ReportStart is called when the session begins
	ReportStart(config RunConfig)
	// ReportCaseStart is called when a case begins
	ReportCaseStart(c Case)
	// ReportCaseResult is called when a case completes
	ReportCaseResult(result CaseResult)
	// ReportSuiteResult is called when the session completes
	ReportSuiteResult(result SuiteResult)
}

// Loader loads and filters case suites.
type Loader interface {
	// LoadSuites loads suite files from the given directory
	LoadSuites(dir string) ([]Suite, error)
	// FilterCases drops the cases the run configuration excludes
	FilterCases(cases []Case, config RunConfig) []Case
}

// Runner executes suites against the configured machine.
type Runner interface {
	Run(ctx context.Context, config RunConfig, suites []Suite) (*SuiteResult, error)
}
