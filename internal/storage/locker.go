package storage

import (
	"sort"
	"sync"
)

// Locker serializes load-mutate-save sequences per collection identifier.
// Two concurrent writers on the same collection would otherwise race at the
// document granularity and silently drop one update.
type Locker struct {
	mu     sync.Mutex
	guards map[Collection]*sync.Mutex
}

// NewLocker returns a Locker with no collections registered yet; guards are
// created on first use.
func NewLocker() *Locker {
	return &Locker{guards: map[Collection]*sync.Mutex{}}
}

func (l *Locker) guard(collection Collection) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	guard, ok := l.guards[collection]
	if !ok {
		guard = &sync.Mutex{}
		l.guards[collection] = guard
	}
	return guard
}

// Lock acquires the guards for the given collections in sorted order, so
// overlapping multi-collection operations cannot deadlock. The returned
// function releases them in reverse order.
func (l *Locker) Lock(collections ...Collection) (unlock func()) {
	ordered := make([]Collection, 0, len(collections))
	seen := map[Collection]bool{}
	for _, collection := range collections {
		if seen[collection] {
			continue
		}
		seen[collection] = true
		ordered = append(ordered, collection)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	guards := make([]*sync.Mutex, 0, len(ordered))
	for _, collection := range ordered {
		guard := l.guard(collection)
		guard.Lock()
		guards = append(guards, guard)
	}

	return func() {
		for i := len(guards) - 1; i >= 0; i-- {
			guards[i].Unlock()
		}
	}
}
