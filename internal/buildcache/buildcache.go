// Package buildcache inspects the flat key=value cache files the build
// configurator writes for each build variant. The harness only ever reads
// these files; they are produced and owned by the external configurator.
package buildcache

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CacheFileName is the cache file the configurator writes into each variant's
// build directory.
const CacheFileName = "CMakeCache.txt"

// VariantCachePath returns the cache file path for a named build variant
// under the given work directory.
func VariantCachePath(workDir, variant string) string {
	return filepath.Join(workDir, variant, CacheFileName)
}

// Lookup returns the value recorded for key in the cache file at path.
// Cache lines have the shape KEY=VALUE or KEY:TYPE=VALUE; the first line whose
// key field begins with key wins, matching how the configurator itself resolves
// cache entries. Comment lines (# or //) are skipped.
func Lookup(path, key string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open build cache %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}

		field := line[:eq]
		// Strip the :TYPE suffix for the prefix comparison.
		name := field
		if colon := strings.Index(field, ":"); colon >= 0 {
			name = field[:colon]
		}
		if !strings.HasPrefix(name, key) {
			continue
		}

		return strings.TrimSpace(line[eq+1:]), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read build cache %s: %w", path, err)
	}

	return "", fmt.Errorf("key '%s' not found in build cache %s", key, path)
}

// Matches checks that the cached value for key equals want, ignoring case and
// surrounding whitespace. The returned error names path, key, and both values
// so a mismatch reads like a test assertion.
func Matches(path, key, want string) error {
	got, err := Lookup(path, key)
	if err != nil {
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want)) {
		return fmt.Errorf("cache %s: key '%s' has value '%s', expected '%s'", path, key, got, want)
	}
	return nil
}
