package viewer

import (
	"sort"
	"sync"

	"tourcms/internal/tourgraph"
)

// Event names the notifications a session raises.
type Event string

const (
	EventNodeChanged     Event = "node-changed"
	EventHotspotSelected Event = "hotspot-selected"
	EventResize          Event = "resize"
)

// NodeChanged is the payload of EventNodeChanged.
type NodeChanged struct {
	Node *tourgraph.Node
}

// HotspotSelected is the payload of EventHotspotSelected.
type HotspotSelected struct {
	Marker tourgraph.Marker
}

// Resize is the payload of EventResize.
type Resize struct {
	Width  int
	Height int
}

// listeners is a typed callback set keyed by registration id.
type listeners[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (l *listeners[T]) add(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	id := l.next
	l.next++
	l.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

// emit calls listeners in registration order outside the lock so a
// callback may unsubscribe itself.
func (l *listeners[T]) emit(v T) {
	l.mu.Lock()
	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, l.fns[id])
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (l *listeners[T]) clear() {
	l.mu.Lock()
	l.fns = nil
	l.mu.Unlock()
}

func (l *listeners[T]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}
