package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "40"}).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "196"}).Bold(true)
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "241", Dark: "245"})
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "130", Dark: "208"}).Bold(true)
)

// consoleReporter implements the Reporter interface
type consoleReporter struct {
	verbose    bool
	debug      bool
	reportPath string
}

// NewConsoleReporter creates a new console reporter. When reportPath is
// non-empty a timestamped JSON report is written there after the session.
func NewConsoleReporter(verbose, debug bool, reportPath string) Reporter {
	return &consoleReporter{
		verbose:    verbose,
		debug:      debug,
		reportPath: reportPath,
	}
}

// ReportStart is called when the session begins
func (r *consoleReporter) ReportStart(config RunConfig) {
	fmt.Printf("🧪 Starting e3smci harness\n")
	fmt.Printf("🖥  Machine: %s\n", config.Machine.Name)

	if r.verbose {
		fmt.Printf("⚙️  Configuration:\n")
		fmt.Printf("   • Full mode: %t\n", config.Mode.Full)
		fmt.Printf("   • Jenkins mode: %t\n", config.Mode.Jenkins)
		fmt.Printf("   • Fail fast: %t\n", config.FailFast)
		fmt.Printf("   • Work dir: %s\n", config.WorkDir)
		fmt.Printf("   • Results dir: %s\n", config.ResultsDir)
		fmt.Printf("   • Case timeout: %v\n", config.CaseTimeout)
		if config.Machine.GPU {
			fmt.Printf("   • GPU arch: %s\n", config.Machine.GPUArch)
		}
		if config.OnlyCase != "" {
			fmt.Printf("   • Only case: %s\n", config.OnlyCase)
		}
		fmt.Printf("\n")
	}
}

// ReportCaseStart is called when a case begins
func (r *consoleReporter) ReportCaseStart(c Case) {
	if r.verbose {
		fmt.Printf("🎯 Starting case: %s\n", c.Name)
		if c.Description != "" {
			fmt.Printf("   📝 %s\n", c.Description)
		}
	} else {
		fmt.Printf("🎯 %s... ", c.Name)
	}
}

// ReportCaseResult is called when a case completes
func (r *consoleReporter) ReportCaseResult(result CaseResult) {
	label := r.styledResult(result.Result)

	if r.verbose {
		fmt.Printf("%s %s (%v)\n", label, result.Case.Name, result.Duration.Round(time.Millisecond))
		if result.Error != "" {
			fmt.Printf("   ❌ %s\n", result.Error)
		}
		if r.debug && result.Stdout != "" {
			fmt.Printf("   📤 Output:\n%s\n", indent(truncate(result.Stdout, 2000), "      "))
		}
		fmt.Printf("\n")
	} else {
		fmt.Printf("%s (%v)\n", label, result.Duration.Round(time.Millisecond))
		if result.Error != "" {
			fmt.Printf("   %s\n", result.Error)
		}
	}
}

// ReportSuiteResult is called when the session completes
func (r *consoleReporter) ReportSuiteResult(result SuiteResult) {
	fmt.Printf("\n🏁 Harness run complete (%s)\n", result.RunID)
	fmt.Printf("⏱  Duration: %v\n", result.Duration.Round(time.Millisecond))

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Case", "Result", "Duration"})
	for _, cr := range result.CaseResults {
		t.AppendRow(table.Row{cr.Case.Name, r.styledResult(cr.Result), cr.Duration.Round(time.Millisecond)})
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d total", result.TotalCases),
		fmt.Sprintf("%d passed, %d failed, %d errors", result.PassedCases, result.FailedCases, result.ErrorCases),
		"",
	})
	t.SetStyle(table.StyleLight)
	t.Render()

	// Calculate success rate
	successRate := 0.0
	if result.TotalCases > 0 {
		successRate = float64(result.PassedCases) / float64(result.TotalCases) * 100
	}
	fmt.Printf("📏 Success Rate: %.1f%%\n", successRate)

	if result.Failed() {
		fmt.Printf("\n%s\n", failStyle.Render("Some cases failed"))
	} else {
		fmt.Printf("\n%s\n", passStyle.Render("All cases passed"))
	}

	// Save detailed report if requested
	if r.reportPath != "" {
		if err := r.saveDetailedReport(result); err != nil {
			fmt.Printf("⚠️  Failed to save detailed report: %v\n", err)
		} else {
			fmt.Printf("📄 Detailed report saved to: %s\n", r.reportPath)
		}
	}
}

// saveDetailedReport saves a detailed JSON report to the report directory.
func (r *consoleReporter) saveDetailedReport(result SuiteResult) error {
	if err := os.MkdirAll(r.reportPath, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("e3smci-report-%s.json", timestamp)
	fullPath := filepath.Join(r.reportPath, filename)

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report to JSON: %w", err)
	}

	if err := os.WriteFile(fullPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	return nil
}

func (r *consoleReporter) styledResult(result Result) string {
	switch result {
	case ResultPassed:
		return passStyle.Render(string(result))
	case ResultFailed:
		return failStyle.Render(string(result))
	case ResultSkipped:
		return skipStyle.Render(string(result))
	case ResultError:
		return errStyle.Render(string(result))
	default:
		return string(result)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
