// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import "sync"

// codeLock is a mutex shared by all writers of one code.
type codeLock struct {
	mu   sync.Mutex
	refs int
}

// codeLocks hands out one mutex per code. Entries are dropped once the
// last holder releases them, so the table only grows with active writers.
type codeLocks struct {
	mu    sync.Mutex
	locks map[string]*codeLock
}

func newCodeLocks() *codeLocks {
	return &codeLocks{locks: make(map[string]*codeLock)}
}

// lock acquires the mutex for code and returns its release function.
func (l *codeLocks) lock(code string) func() {
	l.mu.Lock()
	cl, ok := l.locks[code]
	if !ok {
		cl = &codeLock{}
		l.locks[code] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.mu.Lock()

	return func() {
		cl.mu.Unlock()

		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.locks, code)
		}
		l.mu.Unlock()
	}
}

// size returns the number of codes currently locked or waited on.
func (l *codeLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
