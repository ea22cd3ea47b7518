package pipeline

import (
	"path/filepath"

	"sharesync/internal/compare"
	"sharesync/internal/model"
)

// Filter drops events whose path matches the ignore list, using the same
// exclusion semantics as the sync engine.
func Filter(inCh <-chan model.FileEvent, ignoreList []string) <-chan model.FileEvent {
	outCh := make(chan model.FileEvent, cap(inCh))

	go func() {
		defer close(outCh)

		for event := range inCh {
			if compare.IsExcluded(filepath.ToSlash(event.Path), ignoreList) {
				continue
			}
			outCh <- event
		}
	}()

	return outCh
}
