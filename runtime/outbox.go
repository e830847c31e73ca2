package runtime

import (
	"fmt"
	"log/slog"
	"sync"

	"chat-hub/contract"
)

// WriteFunc delivers one envelope on the underlying transport. It runs
// on the outbox goroutine only, so writes to one connection never
// interleave.
type WriteFunc func(e contract.Envelope) error

// Outbox is the bounded outbound queue of one connection. A single
// writer goroutine drains it, which keeps per-recipient pushes
// serialized while isolating a slow or dead connection from everyone
// else. Delivery failures are logged and forgotten.
type Outbox struct {
	log    *slog.Logger
	write  WriteFunc
	queue  chan contract.Envelope
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewOutbox(log *slog.Logger, write WriteFunc, capacity int) *Outbox {
	if capacity <= 0 {
		capacity = 16
	}
	return &Outbox{
		log:   log,
		write: write,
		queue: make(chan contract.Envelope, capacity),
		done:  make(chan struct{}),
	}
}

// Enqueue never blocks. When the queue is full or the outbox is closed
// the push is dropped; best-effort delivery is the contract.
func (o *Outbox) Enqueue(e contract.Envelope) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return false
	}
	select {
	case o.queue <- e:
		return true
	default:
		o.log.Debug(fmt.Sprintf("Outbound queue full, dropping %s push", e.Kind))
		return false
	}
}

// Run drains the queue until Close. It is the only goroutine touching
// the transport write side.
func (o *Outbox) Run() {
	defer close(o.done)
	for e := range o.queue {
		if err := o.write(e); err != nil {
			o.log.Debug(fmt.Sprintf("Push %s not delivered: %v", e.Kind, err))
		}
	}
}

// Close stops accepting pushes and lets Run finish the ones already
// queued. Safe to call more than once.
func (o *Outbox) Close() {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()
}

// Wait blocks until the writer goroutine has drained the queue.
func (o *Outbox) Wait() {
	<-o.done
}
