package pipeline

import (
	"time"

	"sharesync/internal/model"
)

// Debounce holds back rapid event bursts on one path and emits only the
// latest event after the delay elapses. Timer expiry is routed back into the
// owning goroutine, so the per-path state is only ever touched from one
// goroutine.
func Debounce(inCh <-chan model.FileEvent, delay time.Duration) <-chan model.FileEvent {
	outCh := make(chan model.FileEvent, cap(inCh))
	expired := make(chan string, cap(inCh)+1)

	go func() {
		defer close(outCh)

		timers := make(map[string]*time.Timer)
		events := make(map[string]model.FileEvent)

		emit := func(path string) {
			if e, ok := events[path]; ok {
				outCh <- e
				delete(events, path)
				delete(timers, path)
			}
		}

		for {
			select {
			case event, ok := <-inCh:
				if !ok {
					// Flush timers that had not fired yet; every timer that
					// already fired has an expiry notice in flight, so drain
					// those until nothing is pending.
					for path, t := range timers {
						if t.Stop() {
							emit(path)
						}
					}
					for len(events) > 0 {
						emit(<-expired)
					}
					return
				}

				path := event.Path
				if t, ok := timers[path]; ok {
					t.Stop()
				}

				events[path] = event
				timers[path] = time.AfterFunc(delay, func() {
					expired <- path
				})

			case path := <-expired:
				emit(path)
			}
		}
	}()

	return outCh
}
