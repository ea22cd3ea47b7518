package conflict

import (
	"testing"
	"time"

	"sharesync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrompter struct {
	decision model.Decision
	err      error
	calls    map[string]int
}

func newFakePrompter(d model.Decision, err error) *fakePrompter {
	return &fakePrompter{decision: d, err: err, calls: make(map[string]int)}
}

func (p *fakePrompter) PickSide(c model.Conflict) (model.Decision, error) {
	p.calls[c.Path]++
	return p.decision, p.err
}

func stat(hash string, mod time.Time) model.FileStat {
	return model.FileStat{Exists: true, Hash: hash, ModTime: mod}
}

func TestClassify(t *testing.T) {
	now := time.Now()
	missing := model.FileStat{}

	t.Run("default window treats any mismatch as conflict", func(t *testing.T) {
		r := NewResolver(model.StrategySourceWins, nil, 0)

		assert.Equal(t, model.ClassIdentical, r.Classify(stat("a", now), stat("a", now)))
		assert.Equal(t, model.ClassIdentical, r.Classify(missing, missing))
		assert.Equal(t, model.ClassSourceNewer, r.Classify(stat("a", now), missing))
		assert.Equal(t, model.ClassDestNewer, r.Classify(missing, stat("a", now)))

		// Even a much newer source is a conflict when the window is off.
		assert.Equal(t, model.ClassConflict,
			r.Classify(stat("a", now.Add(time.Hour)), stat("b", now)))
	})

	t.Run("mtime window resolves unambiguous ordering", func(t *testing.T) {
		r := NewResolver(model.StrategySourceWins, nil, 2*time.Second)

		assert.Equal(t, model.ClassSourceNewer,
			r.Classify(stat("a", now.Add(time.Minute)), stat("b", now)))
		assert.Equal(t, model.ClassDestNewer,
			r.Classify(stat("a", now), stat("b", now.Add(time.Minute))))

		// Inside the window the ordering is ambiguous.
		assert.Equal(t, model.ClassConflict,
			r.Classify(stat("a", now.Add(time.Second)), stat("b", now)))
	})
}

func TestResolveOne(t *testing.T) {
	now := time.Now()
	c := model.Conflict{Path: "a.txt", Source: stat("a", now), Dest: stat("b", now)}

	t.Run("source wins", func(t *testing.T) {
		r := NewResolver(model.StrategySourceWins, nil, 0)
		d, err := r.ResolveOne(c)
		require.NoError(t, err)
		assert.Equal(t, model.DecisionOverwriteDest, d)
	})

	t.Run("target wins", func(t *testing.T) {
		r := NewResolver(model.StrategyTargetWins, nil, 0)
		d, err := r.ResolveOne(c)
		require.NoError(t, err)
		assert.Equal(t, model.DecisionKeepDest, d)
	})

	t.Run("prompt asks at most once per path", func(t *testing.T) {
		p := newFakePrompter(model.DecisionKeepDest, nil)
		r := NewResolver(model.StrategyPrompt, p, 0)

		for range 3 {
			d, err := r.ResolveOne(c)
			require.NoError(t, err)
			assert.Equal(t, model.DecisionKeepDest, d)
		}

		assert.Equal(t, 1, p.calls["a.txt"])
	})

	t.Run("prompt abort becomes skip", func(t *testing.T) {
		p := newFakePrompter("", ErrPromptAborted)
		r := NewResolver(model.StrategyPrompt, p, 0)

		d, err := r.ResolveOne(c)
		require.NoError(t, err)
		assert.Equal(t, model.DecisionSkip, d)
	})

	t.Run("prompt strategy without prompter fails", func(t *testing.T) {
		r := NewResolver(model.StrategyPrompt, nil, 0)
		_, err := r.ResolveOne(c)
		assert.Error(t, err)
	})
}

func TestResolveBatch(t *testing.T) {
	now := time.Now()
	conflicts := []model.Conflict{
		{Path: "a.txt", Source: stat("a", now), Dest: stat("b", now)},
		{Path: "b.txt", Source: stat("c", now), Dest: stat("d", now)},
		// Same path surfacing again, e.g. from the second half of a
		// bidirectional run.
		{Path: "a.txt", Source: stat("a", now), Dest: stat("b", now)},
	}

	p := newFakePrompter(model.DecisionOverwriteDest, nil)
	r := NewResolver(model.StrategyPrompt, p, 0)

	decisions, err := r.ResolveBatch(conflicts)
	require.NoError(t, err)

	assert.Len(t, decisions, 2)
	assert.Equal(t, model.DecisionOverwriteDest, decisions["a.txt"])
	assert.Equal(t, 1, p.calls["a.txt"])
	assert.Equal(t, 1, p.calls["b.txt"])
}
