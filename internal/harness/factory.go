package harness

import (
	"fmt"
	"time"
)

// Framework holds all components needed for a harness session
type Framework struct {
	Runner   Runner
	Loader   Loader
	Reporter Reporter
}

// NewFramework creates a fully configured harness framework
func NewFramework(verbose, debug bool, reportPath string) *Framework {
	loader := NewSuiteLoader(debug)
	reporter := NewConsoleReporter(verbose, debug, reportPath)
	runner := NewRunner(loader, reporter, debug)

	return &Framework{
		Runner:   runner,
		Loader:   loader,
		Reporter: reporter,
	}
}

// ValidateConfig validates a run configuration before the session starts.
func ValidateConfig(config RunConfig) error {
	if config.Machine.Name == "" {
		return fmt.Errorf("run configuration has no machine")
	}
	if config.CaseTimeout < 0 {
		return fmt.Errorf("case timeout must not be negative")
	}
	if config.WorkDir == "" {
		return fmt.Errorf("run configuration has no work directory")
	}
	return nil
}

// DefaultRunConfig returns a run configuration with the stock defaults
// applied; the caller fills in the machine.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		WorkDir:     "ctest-build",
		ResultsDir:  "ctest-results",
		CaseTimeout: 30 * time.Minute,
	}
}
