// Package scene manages the placed objects of a session. Objects are
// immutable after placement except for their computed render transform,
// which is recomputed, never stored, each frame; they are destroyed only
// by an explicit scene clear.
package scene

import (
	"sync"
	"time"

	"github.com/arlock/arlock/internal/anchor"
)

// Kind is the shape of a placed object.
type Kind int

const (
	KindModel Kind = iota
	KindCube
	KindSphere
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindModel:
		return "model"
	case KindCube:
		return "cube"
	case KindSphere:
		return "sphere"
	default:
		return "unknown"
	}
}

// Object is one placed object.
type Object struct {
	// ID is the creation timestamp in unix nanoseconds, bumped on
	// collision so IDs stay unique and monotonic within a registry.
	ID int64

	Kind Kind

	// ModelRef names the catalog entry to load. Set iff Kind is
	// KindModel.
	ModelRef string

	Scale float64

	// Anchor is the durable placement record. No component reads or
	// writes it after creation except the world-lock engine's per-frame
	// resolution.
	Anchor anchor.Record
}

// EventType represents the type of registry event.
type EventType int

const (
	EventTypePlaced EventType = iota
	EventTypeCleared
)

// Event represents a change in the scene registry.
type Event struct {
	Type      EventType
	Object    *Object // nil for clear events
	Timestamp time.Time
}

// Registry holds the placed objects of one session.
type Registry struct {
	objects  map[int64]*Object
	order    []int64
	lastID   int64
	mutex    sync.RWMutex
	watchers []chan Event
}

// NewRegistry creates an empty scene registry.
func NewRegistry() *Registry {
	return &Registry{
		objects: make(map[int64]*Object),
	}
}

// Place creates a placed object from a resolved anchor record and adds
// it to the scene. The object ID is the creation timestamp.
func (r *Registry) Place(kind Kind, modelRef string, scale float64, rec anchor.Record) *Object {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	id := time.Now().UnixNano()
	if id <= r.lastID {
		id = r.lastID + 1
	}
	r.lastID = id

	obj := &Object{
		ID:       id,
		Kind:     kind,
		ModelRef: modelRef,
		Scale:    scale,
		Anchor:   rec,
	}
	r.objects[id] = obj
	r.order = append(r.order, id)

	r.notify(Event{Type: EventTypePlaced, Object: obj, Timestamp: time.Now()})
	return obj
}

// Objects returns the placed objects in placement order.
func (r *Registry) Objects() []*Object {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*Object, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.objects[id])
	}
	return result
}

// Get retrieves an object by ID.
func (r *Registry) Get(id int64) (*Object, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	obj, exists := r.objects[id]
	return obj, exists
}

// Count returns the number of placed objects.
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.objects)
}

// Clear removes every placed object, detaching native anchor handles.
func (r *Registry) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, obj := range r.objects {
		if rec, ok := obj.Anchor.(*anchor.Native); ok && rec.Handle != nil {
			rec.Handle.Detach()
		}
	}
	r.objects = make(map[int64]*Object)
	r.order = r.order[:0]

	r.notify(Event{Type: EventTypeCleared, Timestamp: time.Now()})
}

// Watch returns a channel that receives registry events.
func (r *Registry) Watch() <-chan Event {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan Event, 64)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it.
func (r *Registry) UnWatch(ch <-chan Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// notify delivers an event to every watcher, dropping when a channel is
// full. Callers hold the write lock.
func (r *Registry) notify(event Event) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
		}
	}
}
