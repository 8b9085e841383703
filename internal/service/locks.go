package service

import "sync"

// roundLocks hands out one mutex per round ID, dropping it once nobody holds it
type roundLocks struct {
	mu    sync.Mutex
	locks map[string]*roundLock
}

type roundLock struct {
	mu   sync.Mutex
	refs int
}

func newRoundLocks() *roundLocks {
	return &roundLocks{locks: make(map[string]*roundLock)}
}

// lock blocks until the caller holds the round's mutex and returns the release func
func (l *roundLocks) lock(roundID string) func() {
	l.mu.Lock()
	rl, ok := l.locks[roundID]
	if !ok {
		rl = &roundLock{}
		l.locks[roundID] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()

	return func() {
		rl.mu.Unlock()

		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, roundID)
		}
		l.mu.Unlock()
	}
}
