package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lanl/NGEE-Arctic-E3SM/pkg/logging"
)

// DefaultSuiteDir is where case files live relative to the checkout root.
const DefaultSuiteDir = "ci/suites"

// GetDefaultSuitePath returns the default location of the suite files.
func GetDefaultSuitePath() string {
	return DefaultSuiteDir
}

// suiteLoader implements the Loader interface
type suiteLoader struct {
	debug bool
}

// NewSuiteLoader creates a new suite loader
func NewSuiteLoader(debug bool) Loader {
	return &suiteLoader{debug: debug}
}

// LoadSuites loads every *.yaml suite file in dir, sorted by file name so
// execution order is stable.
func (l *suiteLoader) LoadSuites(dir string) ([]Suite, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)

	var suites []Suite
	for _, path := range paths {
		suite, err := l.loadSuiteFile(path)
		if err != nil {
			return nil, err
		}
		if l.debug {
			logging.Debug("harness", "loaded suite '%s' with %d cases from %s", suite.Name, len(suite.Cases), path)
		}
		suites = append(suites, suite)
	}

	return suites, nil
}

func (l *suiteLoader) loadSuiteFile(path string) (Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("failed to read suite file %s: %w", path, err)
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return Suite{}, fmt.Errorf("failed to parse suite file %s: %w", path, err)
	}

	if suite.Name == "" {
		suite.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for i, c := range suite.Cases {
		if c.Name == "" {
			return Suite{}, fmt.Errorf("suite file %s: case %d has no name", path, i)
		}
		if len(c.Command) == 0 {
			return Suite{}, fmt.Errorf("suite file %s: case '%s' has no command", path, c.Name)
		}
	}

	return suite, nil
}

// FilterCases drops the cases the run configuration excludes: full-only cases
// in dry sessions, jenkins-only cases locally, local-only cases on Jenkins,
// GPU-only cases on CPU machines, and everything but OnlyCase when set.
func (l *suiteLoader) FilterCases(cases []Case, config RunConfig) []Case {
	var kept []Case
	for _, c := range cases {
		if config.OnlyCase != "" && c.Name != config.OnlyCase {
			continue
		}
		if c.FullOnly && !config.Mode.Full {
			continue
		}
		if c.JenkinsOnly && !config.Mode.Jenkins {
			continue
		}
		if c.LocalOnly && config.Mode.Jenkins {
			continue
		}
		if c.GPUOnly && !config.Machine.GPU {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// Substitutions returns the expansion map for a run configuration.
func Substitutions(config RunConfig) map[string]string {
	return map[string]string{
		"machine":  config.Machine.Name,
		"work":     config.WorkDir,
		"results":  config.ResultsDir,
		"gpu_arch": config.Machine.GPUArch,
	}
}

// Expand resolves ${name} substitutions in a case's command, dir and env.
// Unknown substitution names are an error so typos fail loudly instead of
// leaking ${...} into command lines.
func Expand(c Case, subs map[string]string) (Case, error) {
	expandString := func(s string) (string, error) {
		var expandErr error
		expanded := os.Expand(s, func(name string) string {
			v, ok := subs[name]
			if !ok {
				expandErr = fmt.Errorf("case '%s': unknown substitution '${%s}'", c.Name, name)
			}
			return v
		})
		return expanded, expandErr
	}

	out := c
	out.Command = make([]string, len(c.Command))
	for i, arg := range c.Command {
		expanded, err := expandString(arg)
		if err != nil {
			return Case{}, err
		}
		out.Command[i] = expanded
	}

	expanded, err := expandString(c.Dir)
	if err != nil {
		return Case{}, err
	}
	out.Dir = expanded

	out.Env = make([]string, len(c.Env))
	for i, kv := range c.Env {
		expanded, err := expandString(kv)
		if err != nil {
			return Case{}, err
		}
		out.Env[i] = expanded
	}

	return out, nil
}
