// Package lock provides keyed mutual exclusion for check-then-act sequences,
// such as validating an organizer's balance and inserting a withdrawal.
package lock

import (
	"context"
	"sync"
)

// Locker serializes critical sections that share a key.
type Locker interface {
	// Acquire blocks until the key is held or ctx is done. The returned
	// release func must be called exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// ─── Local Locker ───────────────────────────────────────────────────────────

// Local is an in-process keyed mutex. Entries are reference counted and
// dropped when the last holder or waiter leaves.
type Local struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{} // buffered(1): a token in the channel means held
	refs int
}

// NewLocal creates an in-process locker.
func NewLocal() *Local {
	return &Local{locks: make(map[string]*entry)}
}

// Acquire implements Locker.
func (l *Local) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.drop(key, e)
		})
	}, nil
}

func (l *Local) drop(key string, e *entry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// Len returns the number of keys currently held or waited on.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
