package stacked

import (
	"context"
	"sync"
)

// Event is delivered to watchers every time an outermost commit lands in
// the committed store.
type Event struct {
	// Records is the number of records the commit applied, tombstones
	// included.
	Records int
}

// Watch returns a channel that receives an event for every outermost
// commit applied to the store after this call. The channel is closed, and
// the observer removed, when the context is done. An observer that does
// not drain its channel misses events instead of blocking commits.
func (s *Store) Watch(ctx context.Context) <-chan Event {
	obs := &observer{ch: make(chan Event, eventBufferSize)}

	s.watcher.add(obs)

	go func() {
		<-ctx.Done()
		s.watcher.remove(obs)
		close(obs.ch)
	}()

	return obs.ch
}

const eventBufferSize = 64

type observer struct {
	ch chan Event
}

// watcher fans commit events out to the registered observers.
type watcher struct {
	sync.RWMutex

	observers map[*observer]struct{}
}

func newWatcher() *watcher {
	return &watcher{
		observers: make(map[*observer]struct{}),
	}
}

func (w *watcher) add(obs *observer) {
	w.Lock()
	w.observers[obs] = struct{}{}
	w.Unlock()
}

func (w *watcher) remove(obs *observer) {
	w.Lock()
	delete(w.observers, obs)
	w.Unlock()
}

func (w *watcher) notify(event Event) {
	w.RLock()
	defer w.RUnlock()

	for obs := range w.observers {
		select {
		case obs.ch <- event:
		default:
			// Slow observers lose events rather than holding the commit.
		}
	}
}
