package resilience

import "sync"

// Flight collapses concurrent calls for the same key into one
// execution; waiters receive the leader's result.
type Flight[T any] struct {
	mu      sync.Mutex
	pending map[string]*flightCall[T]
}

type flightCall[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Do runs fn once per key at a time. The bool result reports whether
// this caller shared another caller's execution.
func (f *Flight[T]) Do(key string, fn func() (T, error)) (T, error, bool) {
	f.mu.Lock()
	if f.pending == nil {
		f.pending = make(map[string]*flightCall[T])
	}
	if c, ok := f.pending[key]; ok {
		f.mu.Unlock()
		<-c.done
		return c.val, c.err, true
	}

	c := &flightCall[T]{done: make(chan struct{})}
	f.pending[key] = c
	f.mu.Unlock()

	c.val, c.err = fn()
	close(c.done)

	f.mu.Lock()
	delete(f.pending, key)
	f.mu.Unlock()

	return c.val, c.err, false
}
