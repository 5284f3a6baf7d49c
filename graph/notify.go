package graph

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	events "github.com/docker/go-events"
	"github.com/sirupsen/logrus"

	"github.com/forgepkg/forge/digest"
)

// TagEvent is emitted whenever a tag stream gains or loses an entry.
// Action is "push" or "remove".
type TagEvent struct {
	Action    string
	Name      string
	Tag       Tag
	Timestamp time.Time
}

// eventQueue accepts tag events into an unbounded, thread-safe queue
// for asynchronous consumption by a sink, grounded directly on
// notifications/sinks.go's eventQueue -- same container/list-backed
// producer/consumer shape, adapted from distribution's generic
// events.Event payload to this package's TagEvent.
type eventQueue struct {
	sink   events.Sink
	events *list.List
	cond   *sync.Cond
	mu     sync.Mutex
	closed bool
}

func newEventQueue(sink events.Sink) *eventQueue {
	eq := &eventQueue{sink: sink, events: list.New()}
	eq.cond = sync.NewCond(&eq.mu)
	go eq.run()
	return eq
}

var errQueueClosed = fmt.Errorf("graph: tag event queue is closed")

func (eq *eventQueue) Write(event TagEvent) error {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	if eq.closed {
		return errQueueClosed
	}

	eq.events.PushBack(event)
	eq.cond.Signal()
	return nil
}

func (eq *eventQueue) Close() error {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	if eq.closed {
		return errQueueClosed
	}
	eq.closed = true
	eq.cond.Signal()
	eq.cond.Wait()
	return eq.sink.Close()
}

func (eq *eventQueue) run() {
	for {
		event, ok := eq.next()
		if !ok {
			return
		}
		if err := eq.sink.Write(event); err != nil {
			logrus.Warnf("graph: error writing tag event to sink, event dropped: %v", err)
		}
	}
}

func (eq *eventQueue) next() (TagEvent, bool) {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	for eq.events.Len() < 1 {
		if eq.closed {
			eq.cond.Broadcast()
			return TagEvent{}, false
		}
		eq.cond.Wait()
	}

	front := eq.events.Front()
	event := front.Value.(TagEvent)
	eq.events.Remove(front)
	return event, true
}

// Notifier wraps a Store so every PushTag/RemoveTagStream call also
// enqueues a TagEvent for delivery to an events.Sink -- the graph
// store's half of the notification pipeline the rest of the system
// (build publication, garbage collection) subscribes to.
type Notifier struct {
	*Store
	queue *eventQueue
}

// NewNotifier wraps store so its tag mutations are published to sink.
func NewNotifier(store *Store, sink events.Sink) *Notifier {
	return &Notifier{Store: store, queue: newEventQueue(sink)}
}

// PushTag behaves like Store.PushTag but also emits a "push" TagEvent.
func (n *Notifier) PushTag(name string, d digest.Digest, user, message string, now time.Time) error {
	if err := n.Store.PushTag(name, d, user, message, now); err != nil {
		return err
	}
	return n.queue.Write(TagEvent{
		Action:    "push",
		Name:      name,
		Tag:       Tag{Digest: d, User: user, Message: message, Timestamp: now},
		Timestamp: now,
	})
}

// RemoveTagStream behaves like Store.RemoveTagStream but also emits a
// "remove" TagEvent.
func (n *Notifier) RemoveTagStream(name string) error {
	if err := n.Store.RemoveTagStream(name); err != nil {
		return err
	}
	return n.queue.Write(TagEvent{Action: "remove", Name: name, Timestamp: time.Now()})
}

// Close flushes and shuts down the underlying event queue.
func (n *Notifier) Close() error {
	return n.queue.Close()
}
