package gitcmd

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"sharesync/internal/logger"

	"go.uber.org/zap"
)

var (
	ErrNotARepo = errors.New("not a git repository")
	ErrTimeout  = errors.New("git command timed out")
)

// Status is the condition of a shared repository before a sync pass.
type Status struct {
	IsDirty    bool     `json:"is_dirty"`
	Ahead      int      `json:"ahead"`
	DirtyFiles []string `json:"dirty_files,omitempty"`
}

// Git shells out to the git binary. Every invocation runs under the
// configured timeout, and mutating operations on one repository are
// serialized through a per-path lock: concurrent commits in a single repo
// race on index.lock even when they touch disjoint files.
type Git struct {
	timeout time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(timeout time.Duration) *Git {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Git{
		timeout: timeout,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (g *Git) run(dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.CombinedOutput()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: git %s in %s", ErrTimeout, strings.Join(args, " "), dir)
	}
	if err != nil {
		return strings.TrimSpace(string(out)),
			fmt.Errorf("git %s failed: %w\n%s", strings.Join(args, " "), err, out)
	}

	return strings.TrimSpace(string(out)), nil
}

func (g *Git) lockFor(path string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.locks[path]
	if !ok {
		l = &sync.Mutex{}
		g.locks[path] = l
	}

	return l
}

func (g *Git) IsRepo(path string) bool {
	out, err := g.run(path, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

func (g *Git) RemoteExists(path, remote string) (bool, string) {
	out, err := g.run(path, "remote", "get-url", remote)
	if err != nil {
		return false, ""
	}

	return true, out
}

func (g *Git) CurrentBranch(path string) (string, error) {
	out, err := g.run(path, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to resolve current branch: %w", err)
	}

	return out, nil
}

// HasUncommittedChanges lists dirty paths from `status --porcelain`,
// optionally narrowed to one pathspec.
func (g *Git) HasUncommittedChanges(path, pathFilter string) (bool, []string, error) {
	args := []string{"status", "--porcelain"}
	if pathFilter != "" {
		args = append(args, "--", pathFilter)
	}

	out, err := g.run(path, args...)
	if err != nil {
		return false, nil, err
	}

	var files []string
	for line := range strings.Lines(out) {
		line = strings.TrimSpace(line)
		if len(line) > 3 {
			files = append(files, strings.TrimSpace(line[2:]))
		}
	}

	return len(files) > 0, files, nil
}

// LocalAheadOfRemote counts commits on HEAD not present on the remote
// tracking branch. A remote branch that does not exist yet counts as zero.
func (g *Git) LocalAheadOfRemote(path, remote string) (bool, int, error) {
	branch, err := g.CurrentBranch(path)
	if err != nil {
		return false, 0, err
	}

	out, err := g.run(path, "rev-list", "--count", remote+"/"+branch+"..HEAD")
	if err != nil {
		if strings.Contains(out, "unknown revision") {
			return false, 0, nil
		}
		return false, 0, err
	}

	count, err := strconv.Atoi(out)
	if err != nil {
		return false, 0, fmt.Errorf("failed to parse rev-list output %q: %w", out, err)
	}

	return count > 0, count, nil
}

func (g *Git) Status(path, remote string) (Status, error) {
	var status Status

	if !g.IsRepo(path) {
		return status, fmt.Errorf("%w: %s", ErrNotARepo, path)
	}

	dirty, files, err := g.HasUncommittedChanges(path, "")
	if err != nil {
		return status, err
	}
	status.IsDirty = dirty
	status.DirtyFiles = files

	if _, count, err := g.LocalAheadOfRemote(path, remote); err == nil {
		status.Ahead = count
	}

	return status, nil
}

// Pull fast-forwards the current branch from the remote. A non-ff situation
// is an error; the caller decides whether the mapping continues.
func (g *Git) Pull(path, remote string) ([]string, error) {
	branch, err := g.CurrentBranch(path)
	if err != nil {
		return nil, err
	}

	out, err := g.run(path, "pull", "--ff-only", remote, branch)
	if err != nil {
		return nil, fmt.Errorf("failed to pull %s/%s: %w", remote, branch, err)
	}

	logger.Log.Info("pulled from remote",
		zap.String("repo", path),
		zap.String("remote", remote),
		zap.String("branch", branch))

	return strings.Split(out, "\n"), nil
}

// Commit stages and commits exactly the given repo-relative files, so
// co-located mappings only ever commit their own synced paths. Returns false
// without error when there is nothing to commit.
func (g *Git) Commit(path string, files []string, message string, dryRun bool) (bool, error) {
	if len(files) == 0 {
		return false, nil
	}

	if dryRun {
		logger.Log.Info("dry-run: would commit",
			zap.String("repo", path),
			zap.Int("files", len(files)))
		return true, nil
	}

	lock := g.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	if _, err := g.run(path, append([]string{"add", "--"}, files...)...); err != nil {
		return false, fmt.Errorf("failed to stage files: %w", err)
	}

	args := append([]string{"commit", "-m", message, "--"}, files...)
	out, err := g.run(path, args...)
	if err != nil {
		if strings.Contains(out, "nothing to commit") ||
			strings.Contains(out, "nothing added to commit") {
			return false, nil
		}
		return false, fmt.Errorf("failed to commit: %w", err)
	}

	logger.Log.Info("committed",
		zap.String("repo", path),
		zap.Int("files", len(files)))

	return true, nil
}

func (g *Git) Push(path, remote string, dryRun bool) error {
	if dryRun {
		logger.Log.Info("dry-run: would push",
			zap.String("repo", path),
			zap.String("remote", remote))
		return nil
	}

	branch, err := g.CurrentBranch(path)
	if err != nil {
		return err
	}

	lock := g.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	if _, err := g.run(path, "push", remote, branch); err != nil {
		return fmt.Errorf("failed to push %s/%s: %w", remote, branch, err)
	}

	logger.Log.Info("pushed to remote",
		zap.String("repo", path),
		zap.String("remote", remote),
		zap.String("branch", branch))

	return nil
}
