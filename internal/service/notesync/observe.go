package notesync

import "sync"

// registry is a set of listeners keyed by subscription id.
type registry[T any] struct {
	mu        sync.Mutex
	next      int
	listeners map[int]func(T)
}

func (r *registry[T]) add(fn func(T)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listeners == nil {
		r.listeners = make(map[int]func(T))
	}
	id := r.next
	r.next++
	r.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.listeners, id)
			r.mu.Unlock()
		})
	}
}

func (r *registry[T]) empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners) == 0
}

// emit calls every listener with v. Listeners run on the caller's goroutine
// and must not block.
func (r *registry[T]) emit(v T) {
	r.mu.Lock()
	fns := make([]func(T), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
