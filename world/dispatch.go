package world

import "sync"

// Dispatcher queues work posted from background goroutines until the owner
// drains it.
type Dispatcher struct {
	mu    sync.Mutex
	items []func()
	ready chan struct{}
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{ready: make(chan struct{}, 1)}
}

// Post is safe from any goroutine.
func (d *Dispatcher) Post(fn func()) {
	if d == nil || fn == nil {
		return
	}
	d.mu.Lock()
	d.items = append(d.items, fn)
	d.mu.Unlock()
	select {
	case d.ready <- struct{}{}:
	default:
	}
}

// Ready is signalled after Post. It may fire with an empty queue.
func (d *Dispatcher) Ready() <-chan struct{} { return d.ready }

func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Drain runs queued work on the calling goroutine, including work posted
// while draining, and returns how many items ran.
func (d *Dispatcher) Drain() int {
	if d == nil {
		return 0
	}
	n := 0
	for {
		d.mu.Lock()
		items := d.items
		d.items = nil
		d.mu.Unlock()
		if len(items) == 0 {
			return n
		}
		for _, fn := range items {
			fn()
		}
		n += len(items)
	}
}
