package model

import (
	"fmt"
	"time"
)

type Direction string

const (
	DirectionToShared   Direction = "TO_SHARED"
	DirectionFromShared Direction = "FROM_SHARED"
	DirectionBoth       Direction = "BOTH"
)

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "to", "to-shared":
		return DirectionToShared, nil
	case "from", "from-shared":
		return DirectionFromShared, nil
	case "both", "":
		return DirectionBoth, nil
	default:
		return "", fmt.Errorf("unknown direction: %s", s)
	}
}

type Strategy string

const (
	StrategySourceWins Strategy = "SOURCE_WINS"
	StrategyTargetWins Strategy = "TARGET_WINS"
	StrategyPrompt     Strategy = "PROMPT"
)

func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "source", "source-wins":
		return StrategySourceWins, nil
	case "target", "target-wins":
		return StrategyTargetWins, nil
	case "prompt", "":
		return StrategyPrompt, nil
	default:
		return "", fmt.Errorf("unknown strategy: %s", s)
	}
}

type Decision string

const (
	DecisionOverwriteDest Decision = "OVERWRITE_DEST"
	DecisionKeepDest      Decision = "KEEP_DEST"
	DecisionSkip          Decision = "SKIP"
)

type Classification string

const (
	ClassIdentical   Classification = "IDENTICAL"
	ClassSourceNewer Classification = "SOURCE_NEWER"
	ClassDestNewer   Classification = "DEST_NEWER"
	ClassConflict    Classification = "CONFLICT"
)

// FileStat is the lazily computed state of one file. Hash is a hex
// digest and is empty when the file is missing or unreadable.
type FileStat struct {
	Path    string    `json:"path"`
	Exists  bool      `json:"exists"`
	Hash    string    `json:"hash,omitempty"`
	ModTime time.Time `json:"mod_time,omitempty"`
	Size    int64     `json:"size,omitempty"`
}

type Conflict struct {
	Path   string   `json:"path"`
	Source FileStat `json:"source"`
	Dest   FileStat `json:"dest"`
	Reason string   `json:"reason"`
}

type SyncOutcome struct {
	Package           string        `json:"package"`
	Mapping           Mapping       `json:"mapping"`
	Direction         Direction     `json:"direction"`
	DryRun            bool          `json:"dry_run"`
	Success           bool          `json:"success"`
	FilesToShared     []string      `json:"files_to_shared"`
	FilesFromShared   []string      `json:"files_from_shared"`
	ConflictsResolved []string      `json:"conflicts_resolved"`
	SkippedConflicts  []string      `json:"skipped_conflicts,omitempty"`
	GitCommitOK       bool          `json:"git_commit_ok"`
	GitPushOK         bool          `json:"git_push_ok"`
	Errors            []string      `json:"errors,omitempty"`
	Duration          time.Duration `json:"duration"`
}

func (o *SyncOutcome) AddError(err error) {
	if err == nil {
		return
	}
	o.Errors = append(o.Errors, err.Error())
}

type RunStatus string

const (
	RunSucceeded RunStatus = "SUCCEEDED"
	RunWarnings  RunStatus = "COMPLETED_WITH_WARNINGS"
	RunFailed    RunStatus = "FAILED"
)

type PackageResult struct {
	Package  string        `json:"package"`
	Status   RunStatus     `json:"status"`
	Outcomes []SyncOutcome `json:"outcomes"`
	// NotRun lists mappings never dispatched because an earlier mapping
	// failed without continue-on-error.
	NotRun []string `json:"not_run,omitempty"`
}

func (r *PackageResult) OverallSuccess() bool {
	return r.Status != RunFailed
}
