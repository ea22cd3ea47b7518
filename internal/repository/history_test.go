package repository

import (
	"path/filepath"
	"testing"
	"time"

	"sharesync/internal/db"
	"sharesync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *HistoryRepository {
	t.Helper()

	require.NoError(t, db.Init(filepath.Join(t.TempDir(), "history.db")))
	return NewHistoryRepository()
}

func outcome(pkg string, success bool) model.SyncOutcome {
	return model.SyncOutcome{
		Package:         pkg,
		Mapping:         model.Mapping{Project: "p", Shared: "s"},
		Direction:       model.DirectionBoth,
		Success:         success,
		FilesToShared:   []string{"a.txt"},
		FilesFromShared: []string{},
		Duration:        25 * time.Millisecond,
	}
}

func TestSaveAndGetRecent(t *testing.T) {
	repo := setupDB(t)

	require.NoError(t, repo.SaveOutcome(outcome("alpha", true)))
	require.NoError(t, repo.SaveOutcome(outcome("beta", false)))

	histories, err := repo.GetRecent(10)
	require.NoError(t, err)
	require.Len(t, histories, 2)

	for _, h := range histories {
		assert.Equal(t, 1, h.FilesToShared)
		assert.Equal(t, "BOTH", h.Direction)
	}
}

func TestStatusMapping(t *testing.T) {
	repo := setupDB(t)

	warned := outcome("warned", true)
	warned.SkippedConflicts = []string{"conflict.txt"}

	require.NoError(t, repo.SaveOutcome(outcome("ok", true)))
	require.NoError(t, repo.SaveOutcome(warned))
	require.NoError(t, repo.SaveOutcome(outcome("bad", false)))

	failed, err := repo.GetFailed()
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "bad", failed[0].Package)

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Success)
	assert.Equal(t, int64(1), stats.Failed)
}
