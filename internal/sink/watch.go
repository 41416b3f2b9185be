package sink

import "sync"

// watch is a single-cell observable: one writer (the sink consumer), many
// readers. Subscribers get every change through a buffered channel where a
// pending unread value is replaced by the newer one.
type watch struct {
	mu   sync.Mutex
	cur  *NowPlaying
	subs map[int]chan *NowPlaying
	next int
}

func newWatch() *watch {
	return &watch{subs: make(map[int]chan *NowPlaying)}
}

func (w *watch) current() *NowPlaying {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cur
}

func (w *watch) publish(np *NowPlaying) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cur = np
	for _, ch := range w.subs {
		// drop a stale pending value so the send below cannot block
		select {
		case <-ch:
		default:
		}
		ch <- np
	}
}

func (w *watch) subscribe() (<-chan *NowPlaying, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.next
	w.next++
	ch := make(chan *NowPlaying, 1)
	w.subs[id] = ch

	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs, id)
	}
	return ch, cancel
}
