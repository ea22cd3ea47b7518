package model

import (
	"time"

	"gorm.io/gorm"
)

type SyncStatus string

const (
	StatusSuccess SyncStatus = "SUCCESS"
	StatusWarning SyncStatus = "WARNING"
	StatusFailed  SyncStatus = "FAILED"
)

type History struct {
	gorm.Model
	Package         string     `gorm:"not null;index"`
	ProjectPath     string     `gorm:"not null"`
	SharedPath      string     `gorm:"not null"`
	Direction       string     `gorm:"not null"`
	Status          SyncStatus `gorm:"not null"`
	FilesToShared   int
	FilesFromShared int
	Conflicts       int
	DryRun          bool
	ErrMsg          string
	DurationMs      int64
	SyncedAt        time.Time `gorm:"not null;index"`
}
