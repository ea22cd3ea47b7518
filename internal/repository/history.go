package repository

import (
	"strings"
	"time"

	"sharesync/internal/db"
	"sharesync/internal/model"
)

type HistoryRepository struct{}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

// SaveOutcome records one mapping outcome. A failed mapping is FAILED; a
// successful one with per-file errors or skipped conflicts is WARNING.
func (r *HistoryRepository) SaveOutcome(outcome model.SyncOutcome) error {
	status := model.StatusSuccess
	switch {
	case !outcome.Success:
		status = model.StatusFailed
	case len(outcome.Errors) > 0 || len(outcome.SkippedConflicts) > 0:
		status = model.StatusWarning
	}

	history := model.History{
		Package:         outcome.Package,
		ProjectPath:     outcome.Mapping.Project,
		SharedPath:      outcome.Mapping.Shared,
		Direction:       string(outcome.Direction),
		Status:          status,
		FilesToShared:   len(outcome.FilesToShared),
		FilesFromShared: len(outcome.FilesFromShared),
		Conflicts:       len(outcome.ConflictsResolved),
		DryRun:          outcome.DryRun,
		ErrMsg:          strings.Join(outcome.Errors, "; "),
		DurationMs:      outcome.Duration.Milliseconds(),
		SyncedAt:        time.Now(),
	}

	return db.DB.Create(&history).Error
}

func (r *HistoryRepository) GetRecent(limit int) ([]model.History, error) {
	var histories []model.History
	result := db.DB.
		Order("synced_at desc").
		Limit(limit).
		Find(&histories)

	return histories, result.Error
}

func (r *HistoryRepository) GetFailed() ([]model.History, error) {
	var histories []model.History
	result := db.DB.
		Where("status = ?", model.StatusFailed).
		Order("synced_at desc").
		Find(&histories)

	return histories, result.Error
}

type Stats struct {
	Total   int64
	Success int64
	Failed  int64
}

func (r *HistoryRepository) GetStats() (Stats, error) {
	var stats Stats
	if err := db.DB.Model(&model.History{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.History{}).
		Where("status = ?", model.StatusSuccess).
		Count(&stats.Success).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.History{}).
		Where("status = ?", model.StatusFailed).
		Count(&stats.Failed).Error; err != nil {
		return stats, err
	}

	return stats, nil
}
