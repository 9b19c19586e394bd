// Package chann implements an unbounded FIFO channel. The scheduler uses it
// as the ready queue: producers are workers completing upstream jobs, so a
// bounded queue could deadlock the pool against itself when a completion
// tries to enqueue a newly ready dependent while every worker is blocked on
// the same send.
package chann

import (
	"sync/atomic"
)

// Chann is an unbounded multi-producer / multi-consumer channel. Sends on
// In() never block; receives on Out() block until an element or Close. FIFO
// order is preserved end to end.
type Chann[T any] struct {
	in  chan T
	out chan T
	len atomic.Int64
}

// New returns a running unbounded channel.
func New[T any]() *Chann[T] {
	ch := &Chann[T]{
		in:  make(chan T),
		out: make(chan T),
	}
	go ch.pump()
	return ch
}

// In returns the send side. After Close, sending on it panics, as with any
// closed channel; the owner must stop producers before closing.
func (ch *Chann[T]) In() chan<- T { return ch.in }

// Out returns the receive side. It is closed once Close has been called and
// every buffered element has been delivered.
func (ch *Chann[T]) Out() <-chan T { return ch.out }

// Close stops the channel. Buffered elements are still delivered to
// receivers before Out is closed.
func (ch *Chann[T]) Close() {
	close(ch.in)
}

// Len returns an approximation of the number of undelivered elements.
func (ch *Chann[T]) Len() int {
	return int(ch.len.Load())
}

// pump shuttles elements from in to out through an elastic buffer. It keeps
// the in case disabled after close (nil channel) and exits once the buffer
// has drained.
func (ch *Chann[T]) pump() {
	var queue []T
	in := ch.in
	for in != nil || len(queue) > 0 {
		var out chan T
		var next T
		if len(queue) > 0 {
			out = ch.out
			next = queue[0]
		}
		select {
		case v, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			ch.len.Add(1)
			queue = append(queue, v)
		case out <- next:
			ch.len.Add(-1)
			queue = queue[1:]
		}
	}
	close(ch.out)
}
