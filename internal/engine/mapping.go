package engine

import (
	"fmt"
	"path"
	"time"

	"sharesync/internal/logger"
	"sharesync/internal/model"
	"sharesync/internal/syncer"

	"go.uber.org/zap"
)

// runMapping executes the per-mapping state machine: guard, pull (consumed
// from the pre-computed remote status), sync, commit, push. A push failure
// after a successful commit marks the mapping failed but the already-copied
// files stay listed in the outcome.
func (c *Coordinator) runMapping(engine *syncer.Engine, pkg model.Package, m model.Mapping, opts Options, remote *RemoteStatus, decisions map[string]model.Decision) model.SyncOutcome {
	start := time.Now()

	outcome := model.SyncOutcome{
		Package:           pkg.Name,
		Mapping:           m,
		Direction:         opts.Direction,
		DryRun:            opts.DryRun,
		Success:           true,
		FilesToShared:     []string{},
		FilesFromShared:   []string{},
		ConflictsResolved: []string{},
		GitCommitOK:       true,
		GitPushOK:         true,
	}
	defer func() {
		outcome.Duration = time.Since(start)
	}()

	if err := guard(pkg, remote); err != nil {
		outcome.Success = false
		outcome.AddError(err)
		return outcome
	}

	needsPull := opts.Direction == model.DirectionBoth || opts.Direction == model.DirectionFromShared
	if needsPull && remote.PullErr != nil {
		outcome.Success = false
		outcome.AddError(fmt.Errorf("pull failed: %w", remote.PullErr))
		return outcome
	}

	projectDir := c.cfg.ProjectDir(m)
	sharedDir := c.sharedDir(pkg, m)
	exclude := c.excludes(m)

	switch opts.Direction {
	case model.DirectionBoth:
		r := engine.SyncBidirectional(projectDir, sharedDir, exclude, decisions)
		outcome.FilesToShared = append(outcome.FilesToShared, r.FilesToShared...)
		outcome.FilesFromShared = append(outcome.FilesFromShared, r.FilesFromShared...)
		outcome.ConflictsResolved = append(outcome.ConflictsResolved, r.ConflictsResolved...)
		outcome.SkippedConflicts = append(outcome.SkippedConflicts, r.SkippedConflicts...)
		for _, err := range r.Errors {
			outcome.AddError(err)
		}

	case model.DirectionToShared:
		r := engine.SyncOneWay(projectDir, sharedDir, exclude, decisions)
		outcome.FilesToShared = append(outcome.FilesToShared, r.FilesCopied...)
		outcome.ConflictsResolved = append(outcome.ConflictsResolved, r.ConflictsResolved...)
		outcome.SkippedConflicts = append(outcome.SkippedConflicts, r.SkippedConflicts...)
		for _, err := range r.Errors {
			outcome.AddError(err)
		}

	case model.DirectionFromShared:
		r := engine.SyncOneWay(sharedDir, projectDir, exclude, decisions)
		outcome.FilesFromShared = append(outcome.FilesFromShared, r.FilesCopied...)
		outcome.ConflictsResolved = append(outcome.ConflictsResolved, r.ConflictsResolved...)
		outcome.SkippedConflicts = append(outcome.SkippedConflicts, r.SkippedConflicts...)
		for _, err := range r.Errors {
			outcome.AddError(err)
		}
	}

	needsCommit := opts.Direction == model.DirectionBoth || opts.Direction == model.DirectionToShared
	if needsCommit && len(outcome.FilesToShared) > 0 {
		c.commitAndPush(pkg, m, opts, &outcome)
	}

	logger.Log.Info("mapping finished",
		zap.String("package", pkg.Name),
		zap.String("mapping", m.Label()),
		zap.Bool("success", outcome.Success),
		zap.Int("to_shared", len(outcome.FilesToShared)),
		zap.Int("from_shared", len(outcome.FilesFromShared)),
		zap.Int("conflicts", len(outcome.ConflictsResolved)))

	return outcome
}

func guard(pkg model.Package, remote *RemoteStatus) error {
	switch {
	case pkg.Location == "":
		return fmt.Errorf("package %s: location not configured", pkg.Name)
	case !remote.Exists:
		return fmt.Errorf("package %s: shared path not found: %s", pkg.Name, remote.Location)
	case !remote.IsRepo:
		return fmt.Errorf("package %s: not a git repository: %s", pkg.Name, remote.Location)
	default:
		return nil
	}
}

// commitAndPush stages exactly the files this mapping synced, expressed
// relative to the repository root, so co-located mappings never commit each
// other's work.
func (c *Coordinator) commitAndPush(pkg model.Package, m model.Mapping, opts Options, outcome *model.SyncOutcome) {
	location := c.cfg.PackageLocation(pkg)

	repoFiles := make([]string, 0, len(outcome.FilesToShared))
	for _, rel := range outcome.FilesToShared {
		repoFiles = append(repoFiles, path.Join(m.Shared, rel))
	}

	message := opts.CommitMessage
	if message == "" {
		message = fmt.Sprintf("sharesync: update %s (%d files)", pkg.Name, len(repoFiles))
	}

	committed, err := c.git.Commit(location, repoFiles, message, opts.DryRun)
	if err != nil {
		outcome.GitCommitOK = false
		outcome.GitPushOK = false
		outcome.Success = false
		outcome.AddError(err)
		return
	}

	if !committed {
		return
	}

	if err := c.git.Push(location, pkg.Remote, opts.DryRun); err != nil {
		outcome.GitPushOK = false
		outcome.Success = false
		outcome.AddError(err)
	}
}
