package database

import "sync"

// Notifier fans a payload-less "something changed" signal out to observers.
// Stores embed it and call Notify after each committed mutation.
type Notifier struct {
	mu        sync.Mutex
	nextID    int
	observers map[int]func()
}

// Subscribe registers fn and returns a function that removes it again.
func (n *Notifier) Subscribe(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.observers == nil {
		n.observers = make(map[int]func())
	}
	id := n.nextID
	n.nextID++
	n.observers[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.observers, id)
	}
}

// Notify calls every observer. Observers run outside the lock so they may
// read from the store or unsubscribe.
func (n *Notifier) Notify() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.observers))
	for _, fn := range n.observers {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
