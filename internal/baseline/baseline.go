// Package baseline inspects the marker file a baseline generation run leaves
// behind: a single line recording the source revision the stored reference
// outputs were produced from.
package baseline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lanl/NGEE-Arctic-E3SM/internal/gitquery"
)

// MarkerFileName is the marker the baseline generator writes into the
// baseline directory.
const MarkerFileName = "baseline_git_sha"

// Status describes how the current checkout relates to the revision a
// baseline set was generated from.
type Status struct {
	// SHA is the revision recorded in the baseline marker.
	SHA string
	// Ahead is the number of commits HEAD has that the baseline lacks.
	Ahead int
	// Behind is the number of commits the baseline has that HEAD lacks.
	Behind int
}

// UpToDate reports whether HEAD matches the baseline revision exactly.
func (s Status) UpToDate() bool {
	return s.Ahead == 0 && s.Behind == 0
}

// ReadSHA reads the single-line revision marker at path.
func ReadSHA(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read baseline marker %s: %w", path, err)
	}
	sha := strings.TrimSpace(string(data))
	if sha == "" {
		return "", fmt.Errorf("baseline marker %s is empty", path)
	}
	// The marker is a single line; anything more means a corrupt or foreign file.
	if strings.ContainsAny(sha, " \t\n") {
		return "", fmt.Errorf("baseline marker %s is not a single revision: '%s'", path, sha)
	}
	return sha, nil
}

// MarkerPath returns the marker file location for a baseline directory.
func MarkerPath(baselineDir string) string {
	return filepath.Join(baselineDir, MarkerFileName)
}

// Check reads the marker for baselineDir and computes the commit distance
// between the recorded revision and HEAD of the checkout at repoDir.
func Check(ctx context.Context, repoDir, baselineDir string) (Status, error) {
	sha, err := ReadSHA(MarkerPath(baselineDir))
	if err != nil {
		return Status{}, err
	}

	ahead, behind, err := gitquery.AheadBehind(ctx, repoDir, "HEAD", sha)
	if err != nil {
		return Status{}, fmt.Errorf("failed to compare HEAD against baseline revision %s: %w", sha, err)
	}

	return Status{SHA: sha, Ahead: ahead, Behind: behind}, nil
}
