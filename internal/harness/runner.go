package harness

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lanl/NGEE-Arctic-E3SM/internal/buildcache"
	"github.com/lanl/NGEE-Arctic-E3SM/internal/execx"
	"github.com/lanl/NGEE-Arctic-E3SM/internal/placement"
	"github.com/lanl/NGEE-Arctic-E3SM/pkg/logging"
)

// runner implements the Runner interface
type runner struct {
	loader   Loader
	reporter Reporter
	debug    bool
}

// NewRunner creates a new case runner
func NewRunner(loader Loader, reporter Reporter, debug bool) Runner {
	return &runner{
		loader:   loader,
		reporter: reporter,
		debug:    debug,
	}
}

// Run executes the suites sequentially against the configured machine. Cases
// run one at a time, each blocking until its external command exits (the
// tools under test already parallelize internally).
func (r *runner) Run(ctx context.Context, config RunConfig, suites []Suite) (*SuiteResult, error) {
	result := &SuiteResult{
		RunID:     uuid.NewString(),
		Machine:   config.Machine.Name,
		Mode:      config.Mode,
		StartTime: time.Now(),
	}

	r.reporter.ReportStart(config)

	subs := Substitutions(config)

loop:
	for _, suite := range suites {
		cases := r.loader.FilterCases(suite.Cases, config)
		result.TotalCases += len(cases)

		for _, c := range cases {
			select {
			case <-ctx.Done():
				// Remaining cases are recorded as errors so the report
				// shows what never ran.
				caseResult := CaseResult{
					Case:   c,
					Result: ResultError,
					Error:  "session cancelled",
				}
				result.CaseResults = append(result.CaseResults, caseResult)
				result.ErrorCases++
				continue
			default:
			}

			r.reporter.ReportCaseStart(c)
			caseResult := r.runCase(ctx, c, config, subs)
			result.CaseResults = append(result.CaseResults, caseResult)
			r.updateCounters(result, caseResult)
			r.reporter.ReportCaseResult(caseResult)

			if config.FailFast && (caseResult.Result == ResultFailed || caseResult.Result == ResultError) {
				break loop
			}
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	r.reporter.ReportSuiteResult(*result)

	return result, nil
}

// runCase executes a single case and applies its expectations.
func (r *runner) runCase(ctx context.Context, c Case, config RunConfig, subs map[string]string) CaseResult {
	result := CaseResult{
		Case:      c,
		StartTime: time.Now(),
		Result:    ResultPassed,
	}
	finish := func() CaseResult {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		return result
	}

	expanded, err := Expand(c, subs)
	if err != nil {
		result.Result = ResultError
		result.Error = err.Error()
		return finish()
	}

	caseCtx := ctx
	timeout := config.CaseTimeout
	if c.Timeout > 0 {
		timeout = time.Duration(c.Timeout)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		caseCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	env := append(config.Machine.EnvSlice(), expanded.Env...)
	cmd := execx.Command{
		Name: expanded.Command[0],
		Args: expanded.Command[1:],
		Dir:  expanded.Dir,
		Env:  env,
	}

	if r.debug {
		logging.Debug("harness", "case '%s' running: %s", c.Name, cmd)
	}

	procResult, err := execx.Run(caseCtx, cmd)
	result.ExitCode = procResult.ExitCode
	result.Stdout = procResult.Stdout
	result.Stderr = procResult.Stderr
	if err != nil {
		result.Result = ResultError
		result.Error = err.Error()
		return finish()
	}

	if failErr := r.checkExpectations(expanded, config, procResult); failErr != nil {
		result.Result = ResultFailed
		result.Error = failErr.Error()
	}

	return finish()
}

// checkExpectations applies a case's expectation to the finished command.
// The first unmet expectation wins; its message carries expected vs actual.
func (r *runner) checkExpectations(c Case, config RunConfig, proc execx.Result) error {
	expect := c.Expect

	if expect.MustFail {
		if !proc.Failed() {
			return fmt.Errorf("command should have failed but didn't")
		}
	} else if proc.ExitCode != expect.ExitCode {
		return fmt.Errorf("exit code %d, expected %d. Stderr: %s",
			proc.ExitCode, expect.ExitCode, strings.TrimSpace(proc.Stderr))
	}

	combined := proc.Stdout + proc.Stderr
	for _, want := range expect.Contains {
		if !strings.Contains(combined, want) {
			return fmt.Errorf("output does not contain '%s'", want)
		}
	}
	for _, unwanted := range expect.NotContains {
		if strings.Contains(combined, unwanted) {
			return fmt.Errorf("output contains '%s' which was not expected", unwanted)
		}
	}

	for _, check := range expect.Cache {
		path := buildcache.VariantCachePath(config.WorkDir, check.Variant)
		if err := buildcache.Matches(path, check.Key, check.Value); err != nil {
			return err
		}
	}

	if expect.Placement != nil {
		if err := placement.Verify(proc.Stdout, expect.Placement.Marker, expect.Placement.Start); err != nil {
			return err
		}
	}

	return nil
}

// updateCounters updates the result counters based on a case result
func (r *runner) updateCounters(suiteResult *SuiteResult, caseResult CaseResult) {
	switch caseResult.Result {
	case ResultPassed:
		suiteResult.PassedCases++
	case ResultFailed:
		suiteResult.FailedCases++
	case ResultSkipped:
		suiteResult.SkippedCases++
	case ResultError:
		suiteResult.ErrorCases++
	}
}
