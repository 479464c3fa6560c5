package config

import (
	"time"
)

// GetDefaultConfig returns the built-in configuration. It defines the four
// standard build variants so the harness works out-of-the-box; machines come
// from the machines package registry and sites layer their own on top.
func GetDefaultConfig() HarnessConfig {
	return HarnessConfig{
		GlobalSettings: GlobalSettings{
			WorkDir:     "ctest-build",
			ResultsDir:  "ctest-results",
			CaseTimeout: 30 * time.Minute,
		},
		Variants: []VariantDefinition{
			{
				Name:     "dbg",
				LongName: "full_debug",
				Defines: map[string]string{
					"CMAKE_BUILD_TYPE":      "Debug",
					"E3SM_DOUBLE_PRECISION": "TRUE",
					"E3SM_PACK_SIZE":        "1",
				},
				ExpectedCache: map[string]string{
					"CMAKE_BUILD_TYPE":      "Debug",
					"E3SM_DOUBLE_PRECISION": "TRUE",
					"E3SM_PACK_SIZE":        "1",
				},
			},
			{
				Name:     "sp",
				LongName: "full_sp_debug",
				Defines: map[string]string{
					"CMAKE_BUILD_TYPE":      "Debug",
					"E3SM_DOUBLE_PRECISION": "FALSE",
					"E3SM_PACK_SIZE":        "1",
				},
				ExpectedCache: map[string]string{
					"CMAKE_BUILD_TYPE":      "Debug",
					"E3SM_DOUBLE_PRECISION": "FALSE",
				},
			},
			{
				Name:     "opt",
				LongName: "release",
				Defines: map[string]string{
					"CMAKE_BUILD_TYPE": "Release",
					"E3SM_PACK_SIZE":   "16",
				},
				ExpectedCache: map[string]string{
					"CMAKE_BUILD_TYPE": "Release",
					"E3SM_PACK_SIZE":   "16",
				},
			},
			{
				Name:     "valg",
				LongName: "valgrind",
				Defines: map[string]string{
					"CMAKE_BUILD_TYPE":     "Debug",
					"E3SM_ENABLE_VALGRIND": "TRUE",
				},
				ExpectedCache: map[string]string{
					"E3SM_ENABLE_VALGRIND": "TRUE",
				},
			},
		},
		Driver: DriverSettings{
			TestLevel:     "at",
			ConfigureTool: "cmake",
			TestTool:      "ctest",
		},
	}
}
