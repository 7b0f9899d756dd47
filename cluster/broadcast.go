package cluster

import "sync"

// A Broadcast is a publish-once, read-many value shared with
// every worker for the duration of one round.
//
// The publisher creates the Broadcast, workers call Read any
// number of times within the round, and the publisher calls
// Release once the round's barrier has passed. Reading after
// release panics: it means a worker held the handle across a
// round boundary.
//
// Readers must treat the value as immutable.
type Broadcast[T any] struct {
	lock     sync.Mutex
	value    T
	released bool
}

// NewBroadcast publishes a value for one round.
func NewBroadcast[T any](value T) *Broadcast[T] {
	return &Broadcast[T]{value: value}
}

// Read gets the published value.
func (b *Broadcast[T]) Read() T {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.released {
		panic("read of a released Broadcast")
	}
	return b.value
}

// Release ends the broadcast. After Release, the published
// value may no longer be read.
func (b *Broadcast[T]) Release() {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.released {
		panic("Broadcast released twice")
	}
	b.released = true
	var zero T
	b.value = zero
}
