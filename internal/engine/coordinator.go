package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"sharesync/internal/config"
	"sharesync/internal/conflict"
	"sharesync/internal/gitcmd"
	"sharesync/internal/logger"
	"sharesync/internal/model"
	"sharesync/internal/syncer"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Direction       model.Direction
	Strategy        model.Strategy
	DryRun          bool
	ContinueOnError bool
	Sequential      bool
	CommitMessage   string
}

// RemoteStatus is the pre-computed condition of one shared repository.
// Entries are populated before mapping fan-out and never written afterwards,
// so concurrent mappings read them without locking.
type RemoteStatus struct {
	Location  string
	Exists    bool
	IsRepo    bool
	RemoteOK  bool
	RemoteURL string
	Status    gitcmd.Status
	Pulled    bool
	PullErr   error
}

// Coordinator runs the mappings of a package, in parallel when the strategy
// allows it, and aggregates per-mapping outcomes into one package result.
// Remote status is memoized by resolved location, so packages sharing one
// shared repository are statted and pulled once per run. Conflict decisions
// are scoped to one package run: each package gets a fresh resolver, so two
// packages conflicting on the same relative path are judged independently.
type Coordinator struct {
	cfg      *config.Config
	git      *gitcmd.Git
	prompter conflict.Prompter

	mu      sync.Mutex
	remotes map[string]*RemoteStatus
}

func NewCoordinator(cfg *config.Config, git *gitcmd.Git, prompter conflict.Prompter) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		git:      git,
		prompter: prompter,
		remotes:  make(map[string]*RemoteStatus),
	}
}

// RunAll runs every given package in configuration order.
func (c *Coordinator) RunAll(ctx context.Context, pkgs []model.Package, opts Options) []model.PackageResult {
	results := make([]model.PackageResult, 0, len(pkgs))
	for _, pkg := range pkgs {
		results = append(results, c.RunPackage(ctx, pkg, opts))
	}

	return results
}

// RunPackage sequences one package: remote status and pull once per shared
// repository, batch conflict resolution across all mappings, then mapping
// fan-out. Interactive prompting forces sequential execution since a prompt
// cannot be shared between concurrent workers.
func (c *Coordinator) RunPackage(ctx context.Context, pkg model.Package, opts Options) model.PackageResult {
	result := model.PackageResult{Package: pkg.Name, Status: model.RunSucceeded}

	if len(pkg.Mappings) == 0 {
		logger.Log.Info("package has no mappings, nothing to do",
			zap.String("package", pkg.Name))
		return result
	}

	location := c.cfg.PackageLocation(pkg)
	remote := c.prepareRemote(location, pkg.Remote, opts)

	resolver := conflict.NewResolver(opts.Strategy, c.prompter, c.cfg.MtimeWindow)
	engine := syncer.NewEngine(resolver, opts.DryRun)

	decisions, err := c.resolveAllConflicts(engine, resolver, pkg, opts, remote)
	if err != nil {
		result.Status = model.RunFailed
		result.Outcomes = append(result.Outcomes, model.SyncOutcome{
			Package:   pkg.Name,
			Direction: opts.Direction,
			DryRun:    opts.DryRun,
			Errors:    []string{fmt.Sprintf("conflict resolution failed: %v", err)},
		})
		return result
	}

	parallel := opts.Strategy != model.StrategyPrompt && !opts.Sequential && len(pkg.Mappings) > 1
	if parallel {
		result.Outcomes, result.NotRun = c.runParallel(ctx, engine, pkg, opts, remote, decisions)
	} else {
		result.Outcomes, result.NotRun = c.runSequential(ctx, engine, pkg, opts, remote, decisions)
	}

	result.Status = aggregate(result.Outcomes, opts)
	return result
}

func (c *Coordinator) runSequential(ctx context.Context, engine *syncer.Engine, pkg model.Package, opts Options, remote *RemoteStatus, decisions map[string]model.Decision) ([]model.SyncOutcome, []string) {
	var outcomes []model.SyncOutcome
	var notRun []string

	for i, m := range pkg.Mappings {
		if ctx.Err() != nil {
			notRun = append(notRun, m.Label())
			continue
		}

		outcome := c.runMapping(engine, pkg, m, opts, remote, decisions)
		outcomes = append(outcomes, outcome)

		if !outcome.Success && !opts.ContinueOnError {
			for _, rest := range pkg.Mappings[i+1:] {
				notRun = append(notRun, rest.Label())
			}
			break
		}
	}

	return outcomes, notRun
}

func (c *Coordinator) runParallel(ctx context.Context, engine *syncer.Engine, pkg model.Package, opts Options, remote *RemoteStatus, decisions map[string]model.Decision) ([]model.SyncOutcome, []string) {
	outcomes := make([]model.SyncOutcome, len(pkg.Mappings))
	dispatched := make([]bool, len(pkg.Mappings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(pkg.Mappings))

	for i, m := range pkg.Mappings {
		g.Go(func() error {
			// A failure without continue-on-error cancels the group;
			// mappings not yet dispatched stay that way.
			if gctx.Err() != nil {
				return nil
			}

			dispatched[i] = true
			outcomes[i] = c.runMapping(engine, pkg, m, opts, remote, decisions)

			if !outcomes[i].Success && !opts.ContinueOnError {
				return fmt.Errorf("mapping %s failed", m.Label())
			}
			return nil
		})
	}
	_ = g.Wait()

	var done []model.SyncOutcome
	var notRun []string
	for i, m := range pkg.Mappings {
		if dispatched[i] {
			done = append(done, outcomes[i])
		} else {
			notRun = append(notRun, m.Label())
		}
	}

	return done, notRun
}

// resolveAllConflicts scans every mapping read-only and settles the whole
// conflict set before fan-out, so a path conflicting in several passes is
// judged exactly once per run.
func (c *Coordinator) resolveAllConflicts(engine *syncer.Engine, resolver *conflict.Resolver, pkg model.Package, opts Options, remote *RemoteStatus) (map[string]model.Decision, error) {
	if !remote.Exists || !remote.IsRepo {
		return nil, nil
	}

	var all []model.Conflict
	for _, m := range pkg.Mappings {
		projectDir := c.cfg.ProjectDir(m)
		sharedDir := c.sharedDir(pkg, m)
		exclude := c.excludes(m)

		if opts.Direction == model.DirectionFromShared {
			all = append(all, engine.CollectConflicts(sharedDir, projectDir, exclude)...)
		} else {
			all = append(all, engine.CollectConflicts(projectDir, sharedDir, exclude)...)
		}
	}

	if len(all) == 0 {
		return nil, nil
	}

	logger.Log.Info("resolving collected conflicts",
		zap.String("package", pkg.Name),
		zap.Int("conflicts", len(all)))

	return resolver.ResolveBatch(all)
}

func (c *Coordinator) prepareRemote(location, remoteName string, opts Options) *RemoteStatus {
	key := location + "|" + remoteName

	c.mu.Lock()
	if st, ok := c.remotes[key]; ok {
		c.mu.Unlock()
		return st
	}
	c.mu.Unlock()

	st := c.inspectRemote(location, remoteName, opts)

	c.mu.Lock()
	c.remotes[key] = st
	c.mu.Unlock()

	return st
}

func (c *Coordinator) inspectRemote(location, remoteName string, opts Options) *RemoteStatus {
	st := &RemoteStatus{Location: location}
	if location == "" {
		return st
	}

	if _, err := os.Stat(location); err != nil {
		return st
	}
	st.Exists = true

	if !c.git.IsRepo(location) {
		return st
	}
	st.IsRepo = true

	st.RemoteOK, st.RemoteURL = c.git.RemoteExists(location, remoteName)

	if status, err := c.git.Status(location, remoteName); err == nil {
		st.Status = status
	}

	if opts.Direction == model.DirectionBoth || opts.Direction == model.DirectionFromShared {
		switch {
		case !st.RemoteOK:
			// A pull direction with no usable remote must not pass for a
			// refresh that never happened.
			st.PullErr = fmt.Errorf("remote %s not configured in %s", remoteName, location)
		case opts.DryRun:
			logger.Log.Info("dry-run: would pull",
				zap.String("repo", location),
				zap.String("remote", remoteName))
		default:
			_, err := c.git.Pull(location, remoteName)
			st.Pulled = err == nil
			st.PullErr = err
		}
	}

	return st
}

func (c *Coordinator) sharedDir(pkg model.Package, m model.Mapping) string {
	return filepath.Join(c.cfg.PackageLocation(pkg), m.Shared)
}

func (c *Coordinator) excludes(m model.Mapping) []string {
	exclude := make([]string, 0, len(c.cfg.IgnoreList)+len(m.Exclude))
	exclude = append(exclude, c.cfg.IgnoreList...)
	exclude = append(exclude, m.Exclude...)
	return exclude
}

// aggregate folds mapping outcomes into a package status. A failed mapping
// fails the package unless continue-on-error masked it into a warning;
// skipped conflicts and per-file errors alone downgrade success to warnings.
func aggregate(outcomes []model.SyncOutcome, opts Options) model.RunStatus {
	failed, warned := 0, 0
	for _, o := range outcomes {
		if !o.Success {
			failed++
		} else if len(o.Errors) > 0 || len(o.SkippedConflicts) > 0 {
			warned++
		}
	}

	switch {
	case failed > 0 && opts.ContinueOnError:
		return model.RunWarnings
	case failed > 0:
		return model.RunFailed
	case warned > 0:
		return model.RunWarnings
	default:
		return model.RunSucceeded
	}
}
