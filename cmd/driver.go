package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lanl/NGEE-Arctic-E3SM/internal/casedef"
	"github.com/lanl/NGEE-Arctic-E3SM/internal/config"
	"github.com/lanl/NGEE-Arctic-E3SM/internal/driver"
	"github.com/lanl/NGEE-Arctic-E3SM/internal/machines"
	"github.com/lanl/NGEE-Arctic-E3SM/pkg/logging"
)

var (
	driverMachine     string
	driverCxx         string
	driverCC          string
	driverFortran     string
	driverBaselineDir string
	driverTests       []string
	driverTestLevel   string
	driverSourceDir   string
	driverWorkDir     string
	driverCasePath    string
)

// driverCmd represents the driver command
var driverCmd = &cobra.Command{
	Use:   "driver",
	Short: "Configure, build and test the selected build variants",
	Long: `The driver command runs the configure/build/test sequence for each
selected build variant: it invokes the external configurator with the
variant's definitions, verifies the cache values the configurator recorded,
builds, and hands off to the external test runner.

When --baseline-dir is set, the revision marker stored with the baselines is
compared against HEAD of the source checkout after the variants complete.

Example usage:
  e3smci driver -m chicoma --test dbg --test opt
  e3smci driver -m chicoma --cxx-compiler g++ --test-level nightly
  e3smci driver -m local --baseline-dir /scratch/e3sm-baselines
  e3smci driver -m local --case cases/arctic-column.yaml`,
	RunE: runDriver,
}

func init() {
	rootCmd.AddCommand(driverCmd)

	driverCmd.Flags().StringVarP(&driverMachine, "machine", "m", "", "Target machine name (default: $"+machines.MachineEnvVar+")")
	driverCmd.Flags().StringVar(&driverCxx, "cxx-compiler", "", "C++ compiler passed to the configurator")
	driverCmd.Flags().StringVar(&driverCC, "c-compiler", "", "C compiler passed to the configurator")
	driverCmd.Flags().StringVar(&driverFortran, "fortran-compiler", "", "Fortran compiler passed to the configurator")
	driverCmd.Flags().StringVar(&driverBaselineDir, "baseline-dir", "", "Baseline directory whose revision marker is checked")
	driverCmd.Flags().StringArrayVar(&driverTests, "test", nil, "Build variant to run (repeatable; default: all)")
	driverCmd.Flags().StringVar(&driverTestLevel, "test-level", "", "Test level forwarded to the test runner (at, nightly, experimental)")
	driverCmd.Flags().StringVar(&driverSourceDir, "source-dir", ".", "Model source checkout")
	driverCmd.Flags().StringVar(&driverWorkDir, "work-dir", "", "Root for per-variant build directories (default: from config)")
	driverCmd.Flags().StringVar(&driverCasePath, "case", "", "Model-run case definition YAML forwarded to the test runner")
}

func runDriver(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	registry := machines.NewRegistry(cfg.Machines)
	machine, err := registry.Resolve(driverMachine)
	if err != nil {
		return err
	}

	variants := cfg.Variants
	if len(driverTests) > 0 {
		variants = nil
		for _, name := range driverTests {
			v, err := cfg.FindVariant(name)
			if err != nil {
				return err
			}
			variants = append(variants, v)
		}
	}

	var caseDefinition *casedef.CaseDefinition
	if driverCasePath != "" {
		def, err := casedef.Load(driverCasePath)
		if err != nil {
			return err
		}
		caseDefinition = &def
		logging.Info("driver", "loaded case '%s' with processes: %v", def.CaseName, def.ProcessNames())
	}

	opts := driver.Options{
		Machine:         machine,
		Variants:        variants,
		SourceDir:       driverSourceDir,
		WorkDir:         stringOrDefault(driverWorkDir, cfg.GlobalSettings.WorkDir),
		BaselineDir:     stringOrDefault(driverBaselineDir, cfg.Driver.BaselineDir),
		TestLevel:       stringOrDefault(driverTestLevel, cfg.Driver.TestLevel),
		CxxCompiler:     stringOrDefault(driverCxx, cfg.Driver.CxxCompiler),
		CCompiler:       stringOrDefault(driverCC, cfg.Driver.CCompiler),
		FortranCompiler: stringOrDefault(driverFortran, cfg.Driver.FortranCompiler),
		ConfigureTool:   cfg.Driver.ConfigureTool,
		TestTool:        cfg.Driver.TestTool,
		Case:            caseDefinition,
	}

	d, err := driver.New(opts)
	if err != nil {
		return err
	}

	return d.Run(cmd.Context())
}

// stringOrDefault returns the value if not empty, otherwise returns the default
func stringOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
