// Package config provides configuration management for e3smci.
//
// This package implements a layered configuration system that allows sites to
// customize the harness through YAML files. Configuration is loaded from
// multiple sources and merged in a specific order, with later sources
// overriding earlier ones.
//
// # Configuration Layers
//
// Configuration is loaded and merged in the following order:
//
//  1. Default Configuration (embedded in binary)
//     - Defines the standard build variants (dbg, sp, opt, valg)
//     - Ensures e3smci works out-of-the-box on known machines
//
//  2. User Configuration (~/.config/e3smci/config.yaml)
//     - User-specific settings that apply to all checkouts
//
//  3. Project Configuration (./.e3smci/config.yaml)
//     - Checkout-specific settings, shareable via version control
//     - Where a site declares its machines and compiler overrides
//
// A project-local .env file is applied to the process environment before the
// layers are read. CI uses it for machine identification (E3SMCI_MACHINE) and
// the fake-build toggle (E3SMCI_FAKE_BUILD) that keeps pipeline runs fast.
//
// # Configuration Structure
//
// The configuration file uses YAML format:
//
//	machines:
//	  - name: "site-cluster"
//	    gpu: true
//	    gpuArch: "a100"
//	    compileJobs: 48
//
//	variants:
//	  - name: "dbg"
//	    defines:
//	      CMAKE_BUILD_TYPE: "Debug"
//	    expectedCache:
//	      CMAKE_BUILD_TYPE: "Debug"
//
//	driver:
//	  cxxCompiler: "g++"
//	  baselineDir: "/scratch/e3sm-baselines"
//	  testLevel: "nightly"
package config
