package kb

import (
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/conjunction-screener/model"
)

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventObjectAdded EventType = iota
	EventConjunctionFlagged
)

// Event is emitted to subscribers when something interesting happens.
type Event struct {
	Type        EventType
	ObjectID    string
	Conjunction *model.ConjunctionEvent // set for EventConjunctionFlagged
}

// Catalog is an in-memory, thread-safe store for tracked objects.
// It is the only state shared between screening runs; everything else
// in the pipeline is pure transformation.
type Catalog struct {
	mu sync.RWMutex

	objects map[string]*model.ObjectDefinition

	subs []func(Event)
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		objects: make(map[string]*model.ObjectDefinition),
	}
}

// AddObject adds a new tracked object. It returns an error if the ID
// already exists.
func (c *Catalog) AddObject(o *model.ObjectDefinition) error {
	c.mu.Lock()
	if _, exists := c.objects[o.ID]; exists {
		c.mu.Unlock()
		return fmt.Errorf("object with ID %q already exists", o.ID)
	}
	c.objects[o.ID] = o
	subs := append([]func(Event){}, c.subs...)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(Event{Type: EventObjectAdded, ObjectID: o.ID})
	}
	return nil
}

// GetObject returns the object with the given ID, or nil if not found.
func (c *Catalog) GetObject(id string) *model.ObjectDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.objects[id]
}

// ListObjects returns a snapshot slice of all objects, sorted by ID so
// pair enumeration over the result is deterministic.
func (c *Catalog) ListObjects() []*model.ObjectDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make([]*model.ObjectDefinition, 0, len(c.objects))
	for _, o := range c.objects {
		res = append(res, o)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Count returns the number of tracked objects.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.objects)
}

// Subscribe registers a callback invoked on catalog events. Callbacks
// run on the notifying goroutine and must not call back into the
// catalog while holding their own locks.
func (c *Catalog) Subscribe(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// NotifyConjunction publishes a flagged conjunction to subscribers.
// The catalog itself stores nothing about the event; conjunction
// records are discarded after reporting.
func (c *Catalog) NotifyConjunction(ev model.ConjunctionEvent) {
	c.mu.RLock()
	subs := append([]func(Event){}, c.subs...)
	c.mu.RUnlock()

	for _, fn := range subs {
		fn(Event{Type: EventConjunctionFlagged, ObjectID: ev.ObjectA, Conjunction: &ev})
	}
}
