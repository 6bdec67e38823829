package signal

import "sync"

// Notifier is a channel-based condition variable: Wait() returns a
// channel that receives one value when one or more Signal() calls are
// pending.
// It is the per-socket wakeup primitive behind spec §4.E's receive
// queue ("a wakeup is signalled on every enqueue") and §5's blocking
// recv suspension point.
type Notifier struct {
	mu sync.Mutex
	c  chan struct{}
}

// NewNotifier creates a new Notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		c: make(chan struct{}, 1),
	}
}

// Signal wakes up a pending or future Wait() caller. Multiple Signal()
// calls between two Wait() calls collapse into a single wakeup, which
// is fine for this use: the caller always rechecks its queue/state
// after waking, rather than counting signals.
func (n *Notifier) Signal() {
	n.mu.Lock()
	defer n.mu.Unlock()
	select {
	case n.c <- struct{}{}:
	default:
	}
}

// Wait returns a channel that receives a value when Signal is called.
func (n *Notifier) Wait() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.c
}
