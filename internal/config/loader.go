package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/lanl/NGEE-Arctic-E3SM/internal/machines"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/e3smci"
	projectConfigDir = ".e3smci"
	configFileName   = "config.yaml"
	dotEnvFileName   = ".env"
)

// LoadConfig loads the e3smci configuration by layering default, user, and
// project settings. A project-local .env file is applied to the process
// environment first (existing variables win), which is how CI injects the
// machine identity and fake-mode toggles.
func LoadConfig() (HarnessConfig, error) {
	// 0. Apply the project .env, if any. godotenv never overrides variables
	// already present in the environment.
	if wd, err := osGetwd(); err == nil {
		envPath := filepath.Join(wd, dotEnvFileName)
		if _, err := os.Stat(envPath); !os.IsNotExist(err) {
			if err := godotenv.Load(envPath); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Could not load %s: %v\n", envPath, err)
			}
		}
	}

	// 1. Start with the default configuration
	config := GetDefaultConfig()

	// 2. Determine user-specific configuration path
	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// Log this error but don't fail; user config is optional
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else {
		if _, err := os.Stat(userConfigPath); !os.IsNotExist(err) {
			userConfig, err := loadConfigFromFile(userConfigPath)
			if err != nil {
				return HarnessConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
			}
			config = mergeConfigs(config, userConfig)
		}
	}

	// 3. Determine project-specific configuration path
	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		// Log this error but don't fail; project config is optional
		fmt.Fprintf(os.Stderr, "Warning: Could not determine project config path: %v\n", err)
	} else {
		if _, err := os.Stat(projectConfigPath); !os.IsNotExist(err) {
			projectConfig, err := loadConfigFromFile(projectConfigPath)
			if err != nil {
				return HarnessConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
			}
			config = mergeConfigs(config, projectConfig)
		}
	}

	return config, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir() // Use mockable variable
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd() // Use mockable variable
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads a HarnessConfig from a YAML file.
func loadConfigFromFile(filePath string) (HarnessConfig, error) {
	var config HarnessConfig
	data, err := os.ReadFile(filePath)
	if err != nil {
		return HarnessConfig{}, err
	}
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return HarnessConfig{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config.
func mergeConfigs(base, overlay HarnessConfig) HarnessConfig {
	mergedConfig := base

	// Merge GlobalSettings (overlay overrides base)
	if overlay.GlobalSettings.WorkDir != "" {
		mergedConfig.GlobalSettings.WorkDir = overlay.GlobalSettings.WorkDir
	}
	if overlay.GlobalSettings.ResultsDir != "" {
		mergedConfig.GlobalSettings.ResultsDir = overlay.GlobalSettings.ResultsDir
	}
	if overlay.GlobalSettings.CaseTimeout != 0 {
		mergedConfig.GlobalSettings.CaseTimeout = overlay.GlobalSettings.CaseTimeout
	}

	// Merge Machines keyed by name (overlay replaces same-name entries)
	machineMap := make(map[string]machines.Machine)
	var machineOrder []string
	for _, m := range mergedConfig.Machines {
		if _, seen := machineMap[m.Name]; !seen {
			machineOrder = append(machineOrder, m.Name)
		}
		machineMap[m.Name] = m
	}
	for _, m := range overlay.Machines {
		if _, seen := machineMap[m.Name]; !seen {
			machineOrder = append(machineOrder, m.Name)
		}
		machineMap[m.Name] = m
	}
	mergedConfig.Machines = nil
	for _, name := range machineOrder {
		mergedConfig.Machines = append(mergedConfig.Machines, machineMap[name])
	}

	// Merge Variants keyed by name
	variantMap := make(map[string]VariantDefinition)
	var variantOrder []string
	for _, v := range mergedConfig.Variants {
		if _, seen := variantMap[v.Name]; !seen {
			variantOrder = append(variantOrder, v.Name)
		}
		variantMap[v.Name] = v
	}
	for _, v := range overlay.Variants {
		if _, seen := variantMap[v.Name]; !seen {
			variantOrder = append(variantOrder, v.Name)
		}
		variantMap[v.Name] = v
	}
	mergedConfig.Variants = nil
	for _, name := range variantOrder {
		mergedConfig.Variants = append(mergedConfig.Variants, variantMap[name])
	}

	// Merge Driver settings (overlay overrides base field by field)
	if overlay.Driver.CxxCompiler != "" {
		mergedConfig.Driver.CxxCompiler = overlay.Driver.CxxCompiler
	}
	if overlay.Driver.CCompiler != "" {
		mergedConfig.Driver.CCompiler = overlay.Driver.CCompiler
	}
	if overlay.Driver.FortranCompiler != "" {
		mergedConfig.Driver.FortranCompiler = overlay.Driver.FortranCompiler
	}
	if overlay.Driver.BaselineDir != "" {
		mergedConfig.Driver.BaselineDir = overlay.Driver.BaselineDir
	}
	if overlay.Driver.TestLevel != "" {
		mergedConfig.Driver.TestLevel = overlay.Driver.TestLevel
	}
	if overlay.Driver.ConfigureTool != "" {
		mergedConfig.Driver.ConfigureTool = overlay.Driver.ConfigureTool
	}
	if overlay.Driver.TestTool != "" {
		mergedConfig.Driver.TestTool = overlay.Driver.TestTool
	}

	return mergedConfig
}

// FindVariant returns the named variant definition from the config.
func (c HarnessConfig) FindVariant(name string) (VariantDefinition, error) {
	for _, v := range c.Variants {
		if v.Name == name {
			return v, nil
		}
	}
	return VariantDefinition{}, fmt.Errorf("unknown build variant '%s'", name)
}
