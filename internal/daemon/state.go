package daemon

import (
	"sync"
	"time"

	"sharesync/internal/model"
)

type PackageState struct {
	mu sync.RWMutex

	Name            string
	Running         bool
	Dirty           bool
	Runs            int
	Failures        int
	FilesToShared   int
	FilesFromShared int
	Conflicts       int
	LastRun         *time.Time
	LastStatus      model.RunStatus
}

func NewPackageState(name string) *PackageState {
	return &PackageState{Name: name}
}

// markRunning flags the state as busy; a trigger landing while busy sets the
// dirty flag instead so the manager reruns the package afterwards.
func (s *PackageState) markRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Running {
		s.Dirty = true
		return false
	}

	s.Running = true
	return true
}

// finishRun records a completed run and reports whether a rerun is due.
func (s *PackageState) finishRun(result model.PackageResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Running = false
	s.Runs++
	s.LastRun = new(time.Now())
	s.LastStatus = result.Status

	for _, o := range result.Outcomes {
		s.FilesToShared += len(o.FilesToShared)
		s.FilesFromShared += len(o.FilesFromShared)
		s.Conflicts += len(o.ConflictsResolved)
		if !o.Success {
			s.Failures++
		}
	}

	rerun := s.Dirty
	s.Dirty = false
	return rerun
}

type PackageSnapshot struct {
	Name            string          `json:"name"`
	Running         bool            `json:"running"`
	Runs            int             `json:"runs"`
	Failures        int             `json:"failures"`
	FilesToShared   int             `json:"files_to_shared"`
	FilesFromShared int             `json:"files_from_shared"`
	Conflicts       int             `json:"conflicts"`
	LastRun         *time.Time      `json:"last_run,omitempty"`
	LastStatus      model.RunStatus `json:"last_status,omitempty"`
}

func (s *PackageState) Snapshot() PackageSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return PackageSnapshot{
		Name:            s.Name,
		Running:         s.Running,
		Runs:            s.Runs,
		Failures:        s.Failures,
		FilesToShared:   s.FilesToShared,
		FilesFromShared: s.FilesFromShared,
		Conflicts:       s.Conflicts,
		LastRun:         s.LastRun,
		LastStatus:      s.LastStatus,
	}
}
