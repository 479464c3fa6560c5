package gitquery

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepo builds a repository with a known commit graph:
//
//	main:    c1 -- c2 -- c3
//	feature:        \-- f1 -- f2
func newTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=harness",
			"GIT_AUTHOR_EMAIL=harness@test",
			"GIT_COMMITTER_NAME=harness",
			"GIT_COMMITTER_EMAIL=harness@test",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	commit := func(name string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name+"\n"), 0644))
		run("add", name)
		run("commit", "-m", name)
	}

	run("init", "-b", "main")
	commit("c1")
	commit("c2")
	run("checkout", "-b", "feature")
	commit("f1")
	commit("f2")
	run("checkout", "main")
	commit("c3")

	return dir
}

func TestAheadBehind_IdenticalRefs(t *testing.T) {
	dir := newTestRepo(t)
	ahead, behind, err := AheadBehind(context.Background(), dir, "main", "main")
	require.NoError(t, err)
	assert.Equal(t, 0, ahead)
	assert.Equal(t, 0, behind)
}

func TestAheadBehind_DivergedBranches(t *testing.T) {
	dir := newTestRepo(t)

	// main has c3 that feature lacks; feature has f1, f2 that main lacks.
	ahead, behind, err := AheadBehind(context.Background(), dir, "main", "feature")
	require.NoError(t, err)
	assert.Equal(t, 1, ahead)
	assert.Equal(t, 2, behind)

	// Reversed direction swaps the counts.
	ahead, behind, err = AheadBehind(context.Background(), dir, "feature", "main")
	require.NoError(t, err)
	assert.Equal(t, 2, ahead)
	assert.Equal(t, 1, behind)
}

func TestAheadBehind_AncestorRef(t *testing.T) {
	dir := newTestRepo(t)
	ahead, behind, err := AheadBehind(context.Background(), dir, "main~2", "main")
	require.NoError(t, err)
	assert.Equal(t, 0, ahead)
	assert.Equal(t, 2, behind)
}

func TestAheadBehind_UnknownRef(t *testing.T) {
	dir := newTestRepo(t)
	_, _, err := AheadBehind(context.Background(), dir, "main", "no-such-branch")
	require.Error(t, err)
}

func TestResolveSHA(t *testing.T) {
	dir := newTestRepo(t)

	head, err := HeadSHA(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, head, 40)

	same, err := ResolveSHA(context.Background(), dir, "main")
	require.NoError(t, err)
	assert.Equal(t, head, same)

	_, err = ResolveSHA(context.Background(), dir, "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestIsAncestor(t *testing.T) {
	dir := newTestRepo(t)

	yes, err := IsAncestor(context.Background(), dir, "main~2", "main")
	require.NoError(t, err)
	assert.True(t, yes)

	no, err := IsAncestor(context.Background(), dir, "main", "feature")
	require.NoError(t, err)
	assert.False(t, no)
}
