package player

import "sync"

// cancelRegistry maps task names to cancellation channels. Each scheduled or
// recurring task registers one channel for its lifetime; cancelling a task
// closes its channel, which its timer goroutine observes.
type cancelRegistry struct {
	mu sync.Mutex
	m  map[string]chan struct{}
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{m: make(map[string]chan struct{})}
}

// CreateCancel registers a cancellation channel for the named task, replacing
// any previous one.
func (p *Player) CreateCancel(name string) <-chan struct{} {
	p.cancels.mu.Lock()
	defer p.cancels.mu.Unlock()

	ch := make(chan struct{})
	p.cancels.m[name] = ch
	return ch
}

// DeleteCancel removes the named task's cancellation channel without firing
// it. It reports whether a channel was registered.
func (p *Player) DeleteCancel(name string) bool {
	p.cancels.mu.Lock()
	defer p.cancels.mu.Unlock()

	_, ok := p.cancels.m[name]
	delete(p.cancels.m, name)
	return ok
}

// Cancel fires and removes the named task's cancellation channel. It reports
// whether a channel was registered.
func (p *Player) Cancel(name string) bool {
	p.cancels.mu.Lock()
	defer p.cancels.mu.Unlock()

	ch, ok := p.cancels.m[name]
	if ok {
		close(ch)
		delete(p.cancels.m, name)
	}
	return ok
}
