//go:build !deadlock

// Package syncutil provides the mutex types used to give a bus session a
// single owner. Standard sync types are used by default; build with
// -tags=deadlock to swap in github.com/sasha-s/go-deadlock, which reports a
// session lock held across a stalled clock wait.
package syncutil

import "sync"

// Mutex wraps sync.Mutex. Build with -tags=deadlock for deadlock detection.
//
//nolint:gocritic // Embedding sync.Mutex to expose Lock/Unlock directly
type Mutex struct {
	sync.Mutex
}

// RWMutex wraps sync.RWMutex. Build with -tags=deadlock for deadlock detection.
//
//nolint:gocritic // Embedding sync.RWMutex to expose its interface directly
type RWMutex struct {
	sync.RWMutex
}
