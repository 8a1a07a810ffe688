package di

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// EventKind tells what happened to a key.
type EventKind int

const (
	// Created is emitted when a key is first stored.
	Created EventKind = iota
	// Overridden is emitted when an override is installed.
	Overridden
	// Restored is emitted when cancelling an override changes the current value.
	Restored
	// Updated is emitted when the current value is replaced in place.
	Updated
	// Removed is emitted when a key is evicted.
	Removed
	// Migrated is emitted by the receiving registry for every key moved in by a promotion.
	Migrated
)

var eventKindNames = map[EventKind]string{
	Created:    "created",
	Overridden: "overridden",
	Restored:   "restored",
	Updated:    "updated",
	Removed:    "removed",
	Migrated:   "migrated",
}

// String implements fmt.Stringer.
func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event describes a committed change to the registry.
type Event struct {
	Kind EventKind
	Key  string
	// Depth is the number of overrides installed on the key after the change.
	Depth int
}

// Subscription identifies an observer added with Subscribe.
type Subscription struct {
	ID uuid.UUID
}

type observer struct {
	id uuid.UUID
	fn func(Event)
}

// notifier delivers events one at a time, in the order they were queued.
// Events are queued while the registry lock is held and delivered after it is
// released. Whichever goroutine finds no delivery in progress drains the
// queue; an observer that changes the registry only queues more events for
// the running drain.
type notifier struct {
	mu        sync.Mutex
	observers []observer
	queue     []Event
	draining  bool
	onPanic   func(Event, any)
}

func newNotifier(onPanic func(Event, any)) *notifier {
	return &notifier{onPanic: onPanic}
}

func (n *notifier) subscribe(fn func(Event)) Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	o := observer{id: uuid.New(), fn: fn}
	n.observers = append(n.observers, o)
	return Subscription{ID: o.id}
}

func (n *notifier) enqueue(e Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.observers) == 0 {
		return
	}
	n.queue = append(n.queue, e)
}

func (n *notifier) drain() {
	n.mu.Lock()
	if n.draining {
		n.mu.Unlock()
		return
	}
	n.draining = true
	for len(n.queue) > 0 {
		ev := n.queue[0]
		n.queue = n.queue[1:]
		observers := slices.Clone(n.observers)
		n.mu.Unlock()
		for _, o := range observers {
			n.deliver(o, ev)
		}
		n.mu.Lock()
	}
	n.draining = false
	n.mu.Unlock()
}

func (n *notifier) deliver(o observer, ev Event) {
	defer func() {
		if rec := recover(); rec != nil && n.onPanic != nil {
			n.onPanic(ev, rec)
		}
	}()
	o.fn(ev)
}

// reset drops every observer and undelivered event, returning how many
// observers were removed.
func (n *notifier) reset() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	dropped := len(n.observers)
	n.observers = nil
	n.queue = nil
	return dropped
}

func (n *notifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.observers)
}
