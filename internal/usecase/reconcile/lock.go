package reconcile

import "sync"

// componentLocks serializes rescans and admissions per component. Callers
// for different components never contend.
type componentLocks struct {
	mu sync.Mutex
	m  map[int64]*sync.Mutex
}

func newComponentLocks() *componentLocks {
	return &componentLocks{m: map[int64]*sync.Mutex{}}
}

// lock acquires the component's mutex and returns its release func.
func (l *componentLocks) lock(id int64) func() {
	l.mu.Lock()
	m, ok := l.m[id]
	if !ok {
		m = &sync.Mutex{}
		l.m[id] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
