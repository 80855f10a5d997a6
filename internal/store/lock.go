package store

import (
	"context"
	"sync"
)

// keyedLock serializes work per key. Waiters on a key block on a one-slot
// channel, so they are released in the order they arrived.
type keyedLock struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{slots: map[string]*slot{}}
}

func (k *keyedLock) lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	sl, ok := k.slots[key]
	if !ok {
		sl = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = sl
	}
	sl.refs++
	k.mu.Unlock()

	select {
	case sl.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, sl)
		return nil, ctx.Err()
	}
	return func() {
		<-sl.ch
		k.release(key, sl)
	}, nil
}

func (k *keyedLock) release(key string, sl *slot) {
	k.mu.Lock()
	sl.refs--
	if sl.refs == 0 {
		delete(k.slots, key)
	}
	k.mu.Unlock()
}
