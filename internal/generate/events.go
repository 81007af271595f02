package generate

import (
	"sync"
)

// Event names a notification a Generator emits.
type Event string

const (
	// EventWrite fires after each destination was written.
	EventWrite Event = "write"
	// EventFinish fires once when every destination of a run succeeded.
	EventFinish Event = "finish"
	// EventError fires once when at least one destination of a run failed.
	EventError Event = "error"
)

// ListenableEvents returns the events a Generator emits, in emission order.
func ListenableEvents() []Event {
	return []Event{EventWrite, EventFinish, EventError}
}

// Notification is passed to listeners. Fields not relevant to Event are zero.
type Notification struct {
	Event Event
	RunID string

	// Data is the event data configured with WithEventData or RunEventData.
	Data any

	// Write events.
	Filepath string
	Kind     string
	Bytes    int64
	Digest   string

	// Finish events.
	Written int

	// Error events.
	Err error
}

// Listener receives notifications. The listeners of one run are invoked one
// at a time, so they need no locking of their own. A listener may start
// another run on the same Generator.
type Listener func(Notification)

// Subscription identifies a registered listener.
type Subscription struct {
	id    uint64
	event Event
}

// Event returns the event the subscription listens to.
func (s Subscription) Event() Event {
	return s.event
}

type registration struct {
	id       uint64
	event    Event
	listener Listener
}

// emitter is an instance-scoped observer list.
type emitter struct {
	mu        sync.Mutex
	nextID    uint64
	listeners []registration
}

func (e *emitter) on(event Event, l Listener) Subscription {
	if l == nil {
		return Subscription{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.listeners = append(e.listeners, registration{id: e.nextID, event: event, listener: l})
	return Subscription{id: e.nextID, event: event}
}

func (e *emitter) off(sub Subscription) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, r := range e.listeners {
		if r.id == sub.id {
			e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
			return true
		}
	}
	return false
}

func (e *emitter) offAll(event Event) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	kept := e.listeners[:0:0]
	for _, r := range e.listeners {
		if event != "" && r.event != event {
			kept = append(kept, r)
		}
	}
	removed := len(e.listeners) - len(kept)
	e.listeners = kept
	return removed
}

func (e *emitter) targets(event Event) []Listener {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Listener
	for _, r := range e.listeners {
		if r.event == event {
			out = append(out, r.listener)
		}
	}
	return out
}

// forRun returns the dispatcher for one Generate call.
func (e *emitter) forRun() *runEmitter {
	return &runEmitter{emitter: e}
}

// runEmitter serializes the listener invocations of a single run. Runs
// dispatch independently, so nested runs started from a listener proceed.
type runEmitter struct {
	emitter *emitter
	mu      sync.Mutex
}

func (r *runEmitter) emit(n Notification) {
	targets := r.emitter.targets(n.Event)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range targets {
		l(n)
	}
}
