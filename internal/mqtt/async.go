package mqtt

import (
	"errors"
	"log"
	"sync"

	"github.com/sweeney/acswitch/internal/logic"
)

// ErrQueueFull is returned when the async queue cannot take another message.
var ErrQueueFull = errors.New("mqtt: publish queue full")

// ErrClosed is returned when publishing on a closed Async.
var ErrClosed = errors.New("mqtt: publisher closed")

type job struct {
	event  *logic.Event
	system *SystemEvent
}

// Async hands events to a worker goroutine so callers never wait on the
// network. The relay control loop must keep feeding the watchdog.
type Async struct {
	inner Publisher
	queue chan job
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewAsync starts a worker publishing to inner with a queue of depth messages.
func NewAsync(inner Publisher, depth int) *Async {
	a := &Async{
		inner: inner,
		queue: make(chan job, depth),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for j := range a.queue {
		switch {
		case j.event != nil:
			if err := a.inner.Publish(*j.event); err != nil {
				log.Printf("publish error: %v", err)
			}
		case j.system != nil:
			if err := a.inner.PublishSystem(*j.system); err != nil {
				log.Printf("publish system error: %v", err)
			}
		}
	}
}

func (a *Async) enqueue(j job) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

// Publish queues a relay event. It never blocks.
func (a *Async) Publish(event logic.Event) error {
	return a.enqueue(job{event: &event})
}

// PublishSystem queues a system event. It never blocks.
func (a *Async) PublishSystem(event SystemEvent) error {
	return a.enqueue(job{system: &event})
}

// Close stops accepting messages, drains the queue and closes inner.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.inner.Close()
}
