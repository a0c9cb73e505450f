// Package ownerlock serializes writes that belong to one owner.
package ownerlock

import (
	"context"
	"errors"
)

var ErrLockTimeout = errors.New("owner lock: timed out waiting for lock")

// Locker hands out exclusive per-key locks. The returned release func must be
// called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// Local is an in-process keyed mutex. Waiters honor ctx cancellation.
type Local struct {
	mu    chan struct{}
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocal() *Local {
	l := &Local{mu: make(chan struct{}, 1), slots: map[string]*slot{}}
	return l
}

func (l *Local) acquireSlot(key string) *slot {
	l.mu <- struct{}{}
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	<-l.mu
	return s
}

func (l *Local) dropSlot(key string, s *slot) {
	l.mu <- struct{}{}
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
	<-l.mu
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	s := l.acquireSlot(key)
	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.dropSlot(key, s)
		return nil, ctx.Err()
	}
	var released bool
	return func() {
		if released {
			return
		}
		released = true
		<-s.ch
		l.dropSlot(key, s)
	}, nil
}

// Held reports how many keys currently have a holder or waiter.
func (l *Local) Held() int {
	l.mu <- struct{}{}
	defer func() { <-l.mu }()
	return len(l.slots)
}
