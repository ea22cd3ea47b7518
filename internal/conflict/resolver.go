package conflict

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"sharesync/internal/logger"
	"sharesync/internal/model"

	"go.uber.org/zap"
)

// ErrPromptAborted is returned by a Prompter when the operator cancels the
// interactive question. The resolver records the conflict as skipped instead
// of failing the run.
var ErrPromptAborted = errors.New("conflict prompt aborted")

// Prompter asks the operator to pick a side for one conflict. Implementations
// block until the operator answers or aborts.
type Prompter interface {
	PickSide(c model.Conflict) (model.Decision, error)
}

// Resolver classifies file pairs and decides which side wins a conflict.
// Decisions are memoized by relative path for the lifetime of the resolver,
// so one path is judged at most once per package run even when it surfaces
// in both halves of a bidirectional pass.
type Resolver struct {
	strategy    model.Strategy
	prompter    Prompter
	mtimeWindow time.Duration

	mu        sync.Mutex
	decisions map[string]model.Decision
}

func NewResolver(strategy model.Strategy, prompter Prompter, mtimeWindow time.Duration) *Resolver {
	if strategy == "" {
		strategy = model.StrategyPrompt
	}

	return &Resolver{
		strategy:    strategy,
		prompter:    prompter,
		mtimeWindow: mtimeWindow,
		decisions:   make(map[string]model.Decision),
	}
}

func (r *Resolver) Strategy() model.Strategy {
	return r.strategy
}

// Classify orders two stats of the same relative path. Any hash mismatch is
// a conflict by default; the mtime shortcut only applies when a window was
// explicitly configured and one side is newer by more than the window.
func (r *Resolver) Classify(src, dst model.FileStat) model.Classification {
	switch {
	case !src.Exists && !dst.Exists:
		return model.ClassIdentical
	case !dst.Exists:
		return model.ClassSourceNewer
	case !src.Exists:
		return model.ClassDestNewer
	case src.Hash == dst.Hash:
		return model.ClassIdentical
	}

	if r.mtimeWindow > 0 {
		if src.ModTime.After(dst.ModTime.Add(r.mtimeWindow)) {
			return model.ClassSourceNewer
		}
		if dst.ModTime.After(src.ModTime.Add(r.mtimeWindow)) {
			return model.ClassDestNewer
		}
	}

	return model.ClassConflict
}

// ResolveOne returns the decision for a conflict, asking the prompter only
// on the first encounter of a path. A prompt abort maps to Skip.
func (r *Resolver) ResolveOne(c model.Conflict) (model.Decision, error) {
	r.mu.Lock()
	if d, ok := r.decisions[c.Path]; ok {
		r.mu.Unlock()
		return d, nil
	}
	r.mu.Unlock()

	d, err := r.decide(c)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.decisions[c.Path] = d
	r.mu.Unlock()

	return d, nil
}

// ResolveBatch pre-resolves a collected conflict set before any mapping
// applies decisions. Duplicate paths collapse to a single judgement.
func (r *Resolver) ResolveBatch(conflicts []model.Conflict) (map[string]model.Decision, error) {
	decisions := make(map[string]model.Decision, len(conflicts))

	for _, c := range conflicts {
		d, err := r.ResolveOne(c)
		if err != nil {
			return decisions, err
		}
		decisions[c.Path] = d
	}

	return decisions, nil
}

func (r *Resolver) decide(c model.Conflict) (model.Decision, error) {
	logger.Log.Warn("conflict detected",
		zap.String("path", c.Path),
		zap.String("strategy", string(r.strategy)),
		zap.Time("source_mod", c.Source.ModTime),
		zap.Time("dest_mod", c.Dest.ModTime))

	switch r.strategy {
	case model.StrategySourceWins:
		return model.DecisionOverwriteDest, nil

	case model.StrategyTargetWins:
		return model.DecisionKeepDest, nil

	case model.StrategyPrompt:
		if r.prompter == nil {
			return "", fmt.Errorf("prompt strategy requires a prompter")
		}

		d, err := r.prompter.PickSide(c)
		if errors.Is(err, ErrPromptAborted) {
			logger.Log.Warn("conflict prompt aborted, skipping",
				zap.String("path", c.Path))
			return model.DecisionSkip, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to prompt for %s: %w", c.Path, err)
		}

		return d, nil

	default:
		return "", fmt.Errorf("unknown strategy: %s", r.strategy)
	}
}
