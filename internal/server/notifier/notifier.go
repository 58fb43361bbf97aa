// Package notifier fans scene revisions out to live subscribers.
package notifier

import "sync"

// Notifier broadcasts scene revision numbers to all subscribed listeners.
// A listener that falls behind only sees the latest revision; it should
// re-read the scene rather than replay every change.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan uint64]struct{}
	revision  uint64
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan uint64]struct{}),
	}
}

// Subscribe returns a channel that receives revisions as they are published.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe() chan uint64 {
	ch := make(chan uint64, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan uint64) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Len returns the number of subscribed listeners.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

// Revision returns the last published revision.
func (n *Notifier) Revision() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.revision
}

// Broadcast bumps the revision and sends it to all listeners.
// Non-blocking: a pending unread revision is replaced by the new one.
func (n *Notifier) Broadcast() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.revision++
	for ch := range n.listeners {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- n.revision:
		default:
		}
	}
	return n.revision
}
