package syncutil

import "time"

// TimedMutex is a mutual-exclusion lock whose acquisition can be
// bounded by a deadline, the shape RTOS semaphores give a driver:
// take-with-timeout, then give. sync.Mutex offers no timed acquire, so
// the lock is a one-slot channel.
//
// The zero value is not usable; call NewTimedMutex.
type TimedMutex struct {
	ch chan struct{}
}

// NewTimedMutex returns an unlocked TimedMutex.
func NewTimedMutex() *TimedMutex {
	return &TimedMutex{ch: make(chan struct{}, 1)}
}

// Lock acquires the lock, blocking without bound.
func (m *TimedMutex) Lock() {
	m.ch <- struct{}{}
}

// TryLock acquires the lock if it is free, without blocking.
func (m *TimedMutex) TryLock() bool {
	select {
	case m.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// TryLockTimeout acquires the lock, waiting at most d. It reports
// whether the lock was acquired. A non-positive d degrades to TryLock.
func (m *TimedMutex) TryLockTimeout(d time.Duration) bool {
	if m.TryLock() {
		return true
	}
	if d <= 0 {
		return false
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case m.ch <- struct{}{}:
		return true
	case <-t.C:
		return false
	}
}

// Unlock releases the lock. Unlocking an unheld TimedMutex panics, as
// with sync.Mutex.
func (m *TimedMutex) Unlock() {
	select {
	case <-m.ch:
	default:
		panic("syncutil: unlock of unlocked TimedMutex")
	}
}
