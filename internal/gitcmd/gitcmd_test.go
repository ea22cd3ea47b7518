package gitcmd

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func signature() *object.Signature {
	return &object.Signature{
		Name:  "tester",
		Email: "tester@example.com",
		When:  time.Now(),
	}
}

// initRepo builds a real working repository with one commit and a local
// bare repository registered as "origin".
func initRepo(t *testing.T) (workDir, bareDir string) {
	t.Helper()

	workDir = t.TempDir()
	bareDir = t.TempDir()

	_, err := git.PlainInit(bareDir, true)
	require.NoError(t, err)

	repo, err := git.PlainInit(workDir, false)
	require.NoError(t, err)

	cfg, err := repo.Config()
	require.NoError(t, err)
	cfg.User.Name = "tester"
	cfg.User.Email = "tester@example.com"
	require.NoError(t, repo.SetConfig(cfg))

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{bareDir},
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(workDir, "README.md"), []byte("seed\n"), 0644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{Author: signature()})
	require.NoError(t, err)

	return workDir, bareDir
}

func TestCommandTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub not portable to windows")
	}

	// A stub git on PATH that outlives the deadline. Resolve sleep's
	// absolute path first, since the stub runs with PATH set to stubDir only.
	sleepPath, err := exec.LookPath("sleep")
	require.NoError(t, err)

	stubDir := t.TempDir()
	script := "#!/bin/sh\nexec " + sleepPath + " 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(stubDir, "git"), []byte(script), 0755))
	t.Setenv("PATH", stubDir)

	g := New(50 * time.Millisecond)
	_, _, err = g.HasUncommittedChanges(t.TempDir(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestIsRepo(t *testing.T) {
	requireGit(t)

	g := New(10 * time.Second)
	workDir, _ := initRepo(t)

	assert.True(t, g.IsRepo(workDir))
	assert.False(t, g.IsRepo(t.TempDir()))
}

func TestRemoteExists(t *testing.T) {
	requireGit(t)

	g := New(10 * time.Second)
	workDir, bareDir := initRepo(t)

	ok, url := g.RemoteExists(workDir, "origin")
	assert.True(t, ok)
	assert.Equal(t, bareDir, url)

	ok, _ = g.RemoteExists(workDir, "upstream")
	assert.False(t, ok)
}

func TestHasUncommittedChanges(t *testing.T) {
	requireGit(t)

	g := New(10 * time.Second)
	workDir, _ := initRepo(t)

	dirty, files, err := g.HasUncommittedChanges(workDir, "")
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Empty(t, files)

	require.NoError(t, os.WriteFile(filepath.Join(workDir, "new.txt"), []byte("x"), 0644))

	dirty, files, err = g.HasUncommittedChanges(workDir, "")
	require.NoError(t, err)
	assert.True(t, dirty)
	assert.Equal(t, []string{"new.txt"}, files)

	// Path filter narrows the result.
	dirty, _, err = g.HasUncommittedChanges(workDir, "unrelated")
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestCommitAndPush(t *testing.T) {
	requireGit(t)

	g := New(10 * time.Second)
	workDir, _ := initRepo(t)

	require.NoError(t, os.WriteFile(filepath.Join(workDir, "lib.py"), []byte("pass\n"), 0644))

	committed, err := g.Commit(workDir, []string{"lib.py"}, "add lib", false)
	require.NoError(t, err)
	assert.True(t, committed)

	// Nothing left to commit for the same pathspec.
	committed, err = g.Commit(workDir, []string{"lib.py"}, "again", false)
	require.NoError(t, err)
	assert.False(t, committed)

	require.NoError(t, g.Push(workDir, "origin", false))

	ahead, count, err := g.LocalAheadOfRemote(workDir, "origin")
	require.NoError(t, err)
	assert.False(t, ahead)
	assert.Zero(t, count)
}

func TestStatus(t *testing.T) {
	requireGit(t)

	g := New(10 * time.Second)
	workDir, _ := initRepo(t)

	status, err := g.Status(workDir, "origin")
	require.NoError(t, err)
	assert.False(t, status.IsDirty)

	require.NoError(t, os.WriteFile(filepath.Join(workDir, "dirty.txt"), []byte("x"), 0644))

	status, err = g.Status(workDir, "origin")
	require.NoError(t, err)
	assert.True(t, status.IsDirty)
	assert.Contains(t, status.DirtyFiles, "dirty.txt")
}

func TestStatusNotARepo(t *testing.T) {
	requireGit(t)

	g := New(10 * time.Second)
	_, err := g.Status(t.TempDir(), "origin")
	assert.ErrorIs(t, err, ErrNotARepo)
}

func TestDryRunMutatesNothing(t *testing.T) {
	requireGit(t)

	g := New(10 * time.Second)
	workDir, _ := initRepo(t)

	require.NoError(t, os.WriteFile(filepath.Join(workDir, "new.txt"), []byte("x"), 0644))

	committed, err := g.Commit(workDir, []string{"new.txt"}, "dry", true)
	require.NoError(t, err)
	assert.True(t, committed)
	require.NoError(t, g.Push(workDir, "origin", true))

	dirty, _, err := g.HasUncommittedChanges(workDir, "")
	require.NoError(t, err)
	assert.True(t, dirty, "dry-run must leave the tree dirty")
}
