// Package gitquery answers the few version-control questions the harness
// needs by shelling out to git. The git plumbing itself stays external; this
// package only builds command lines and parses their text output.
package gitquery

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lanl/NGEE-Arctic-E3SM/internal/execx"
)

func git(ctx context.Context, dir string, args ...string) (string, error) {
	result, err := execx.Run(ctx, execx.Command{Name: "git", Args: args, Dir: dir})
	if err != nil {
		return "", err
	}
	if result.Failed() {
		return "", fmt.Errorf("git %s failed in %s: %s", strings.Join(args, " "), dir, strings.TrimSpace(result.Stderr))
	}
	return strings.TrimSpace(result.Stdout), nil
}

// AheadBehind computes how many commits local is ahead of and behind remote.
// Identical references yield (0, 0).
func AheadBehind(ctx context.Context, dir, local, remote string) (ahead, behind int, err error) {
	out, err := git(ctx, dir, "rev-list", "--left-right", "--count", local+"..."+remote)
	if err != nil {
		return 0, 0, err
	}

	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected rev-list output '%s'", out)
	}
	ahead, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected rev-list output '%s'", out)
	}
	behind, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected rev-list output '%s'", out)
	}
	return ahead, behind, nil
}

// HeadSHA returns the full SHA of HEAD in dir.
func HeadSHA(ctx context.Context, dir string) (string, error) {
	return ResolveSHA(ctx, dir, "HEAD")
}

// ResolveSHA resolves ref to a full commit SHA in dir.
func ResolveSHA(ctx context.Context, dir, ref string) (string, error) {
	sha, err := git(ctx, dir, "rev-parse", ref)
	if err != nil {
		return "", fmt.Errorf("failed to resolve '%s': %w", ref, err)
	}
	return sha, nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func IsAncestor(ctx context.Context, dir, ancestor, descendant string) (bool, error) {
	result, err := execx.Run(ctx, execx.Command{
		Name: "git",
		Args: []string{"merge-base", "--is-ancestor", ancestor, descendant},
		Dir:  dir,
	})
	if err != nil {
		return false, err
	}
	// merge-base uses exit 0 for yes, 1 for no, anything else is an error.
	switch result.ExitCode {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, fmt.Errorf("git merge-base failed in %s: %s", dir, strings.TrimSpace(result.Stderr))
	}
}
