package pipeline

import (
	"sync"

	"sharesync/internal/compare"
	"sharesync/internal/logger"
	"sharesync/internal/model"

	"go.uber.org/zap"
)

// ChecksumFilter drops events whose file content is unchanged since the
// last event for the same path, so mtime-only touches never trigger a run.
type ChecksumFilter struct {
	mu    sync.Mutex
	cache map[string]string
}

func NewChecksumFilter() *ChecksumFilter {
	return &ChecksumFilter{
		cache: make(map[string]string),
	}
}

func (cf *ChecksumFilter) Run(inCh <-chan model.FileEvent) <-chan model.FileEvent {
	outCh := make(chan model.FileEvent, cap(inCh))

	go func() {
		defer close(outCh)

		for event := range inCh {
			if event.Type == model.EventRemove || event.Type == model.EventRename {
				cf.mu.Lock()
				delete(cf.cache, event.Path)
				cf.mu.Unlock()
				outCh <- event
				continue
			}

			stat := compare.Stat(event.Path)
			if !stat.Exists {
				logger.Log.Debug("checksum unavailable, skipping",
					zap.String("path", event.Path))
				continue
			}

			cf.mu.Lock()
			prev, exists := cf.cache[event.Path]
			changed := !exists || prev != stat.Hash
			if changed {
				cf.cache[event.Path] = stat.Hash
			}
			cf.mu.Unlock()

			if changed {
				outCh <- event
			} else {
				logger.Log.Debug("checksum unchanged, skipping",
					zap.String("path", event.Path))
			}
		}
	}()

	return outCh
}
