//go:build system

package harness_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lanl/NGEE-Arctic-E3SM/internal/harness"
	"github.com/lanl/NGEE-Arctic-E3SM/internal/machines"
)

// The system suite drives a complete harness session the way the test
// command does: suites loaded from disk, real subprocesses, a JSON report
// written at the end.
var _ = Describe("Harness session", func() {
	var (
		suiteDir  string
		reportDir string
		config    harness.RunConfig
		framework *harness.Framework
	)

	writeSuite := func(name, content string) {
		Expect(os.WriteFile(filepath.Join(suiteDir, name), []byte(content), 0644)).To(Succeed())
	}

	BeforeEach(func() {
		suiteDir = GinkgoT().TempDir()
		reportDir = GinkgoT().TempDir()

		config = harness.DefaultRunConfig()
		config.Machine = machines.Machine{Name: "local"}
		config.WorkDir = GinkgoT().TempDir()
		config.ResultsDir = GinkgoT().TempDir()
		config.CaseTimeout = time.Minute

		framework = harness.NewFramework(false, false, reportDir)
	})

	runSession := func() *harness.SuiteResult {
		suites, err := framework.Loader.LoadSuites(suiteDir)
		Expect(err).NotTo(HaveOccurred())
		result, err := framework.Runner.Run(context.Background(), config, suites)
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	It("runs a passing suite and writes a report", func() {
		writeSuite("10_smoke.yaml", `
name: smoke
cases:
  - name: hello
    command: ["sh", "-c", "echo hello from ${machine}"]
    expect:
      exitCode: 0
      contains: ["hello from local"]
`)

		result := runSession()
		Expect(result.Failed()).To(BeFalse())
		Expect(result.PassedCases).To(Equal(1))

		entries, err := os.ReadDir(reportDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))

		data, err := os.ReadFile(filepath.Join(reportDir, entries[0].Name()))
		Expect(err).NotTo(HaveOccurred())

		var decoded harness.SuiteResult
		Expect(json.Unmarshal(data, &decoded)).To(Succeed())
		Expect(decoded.RunID).To(Equal(result.RunID))
		Expect(decoded.Machine).To(Equal("local"))
	})

	It("records expected failures and unexpected successes", func() {
		writeSuite("10_negative.yaml", `
name: negative
cases:
  - name: bad-flag-rejected
    command: ["sh", "-c", "exit 1"]
    expect:
      mustFail: true
  - name: should-have-failed
    command: ["true"]
    expect:
      mustFail: true
`)

		result := runSession()
		Expect(result.PassedCases).To(Equal(1))
		Expect(result.FailedCases).To(Equal(1))
		Expect(result.CaseResults[1].Error).To(Equal("command should have failed but didn't"))
	})

	It("skips full-only cases in dry sessions and runs them in full mode", func() {
		writeSuite("10_modes.yaml", `
name: modes
cases:
  - name: always
    command: ["true"]
    expect: {exitCode: 0}
  - name: builds
    fullOnly: true
    command: ["true"]
    expect: {exitCode: 0}
`)

		Expect(runSession().TotalCases).To(Equal(1))

		config.Mode.Full = true
		Expect(runSession().TotalCases).To(Equal(2))
	})
})
