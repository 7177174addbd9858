package canvas

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/contractgrid/internal/props"
	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrInstanceNotFound is returned when an operation names an instance
	// that is not on the canvas.
	ErrInstanceNotFound = errors.New("instance not found")
	// ErrDuplicateInstance is returned when an instance id is already taken.
	ErrDuplicateInstance = errors.New("instance already exists")
	// ErrConnectionNotFound is returned by RemoveConnection for an unknown edge.
	ErrConnectionNotFound = errors.New("connection not found")
)

// Editor is the live, mutable canvas. It only guarantees referential
// integrity: connections always point at existing instances and removing an
// instance removes every connection touching it. Everything else is the
// validator's job.
//
// Editor is safe for concurrent use.
type Editor struct {
	mu          sync.RWMutex
	instances   []Instance
	connections []Connection
	version     uint64
	updatedAt   time.Time

	now   func() time.Time
	newID func() string
}

// EditorOption customises an Editor.
type EditorOption func(*Editor)

// WithClock sets the clock used to stamp snapshots.
func WithClock(now func() time.Time) EditorOption {
	return func(e *Editor) { e.now = now }
}

// WithIDGenerator sets the generator used by AddInstance.
func WithIDGenerator(gen func() string) EditorOption {
	return func(e *Editor) { e.newID = gen }
}

// NewEditor creates an empty canvas.
func NewEditor(opts ...EditorOption) *Editor {
	e := &Editor{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.updatedAt = e.now()
	return e
}

// NewEditorFrom creates an editor seeded with a copy of state.
func NewEditorFrom(state *State, opts ...EditorOption) *Editor {
	e := NewEditor(opts...)
	s := state.Clone()
	e.instances = s.Instances
	e.connections = s.Connections
	e.version = s.Version
	return e
}

// touch records an edit. Callers must hold the write lock.
func (e *Editor) touch() {
	e.version++
	e.updatedAt = e.now()
}

func (e *Editor) indexOf(id string) int {
	for i := range e.instances {
		if e.instances[i].ID == id {
			return i
		}
	}
	return -1
}

// AddInstance places a new instance of a template on the canvas and returns
// its generated id.
func (e *Editor) AddInstance(templateID string, properties props.Bag) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.newID()
	for e.indexOf(id) >= 0 {
		id = e.newID()
	}
	e.instances = append(e.instances, Instance{ID: id, TemplateID: templateID, Properties: properties.Clone()})
	e.touch()
	return id
}

// AddInstanceWithID places an instance with a caller-chosen id.
func (e *Editor) AddInstanceWithID(id, templateID string, properties props.Bag) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.indexOf(id) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateInstance, id)
	}
	e.instances = append(e.instances, Instance{ID: id, TemplateID: templateID, Properties: properties.Clone()})
	e.touch()
	return nil
}

// RemoveInstance removes an instance and every connection touching it.
func (e *Editor) RemoveInstance(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrInstanceNotFound, id)
	}
	e.instances = append(e.instances[:idx:idx], e.instances[idx+1:]...)

	kept := e.connections[:0:0]
	for _, c := range e.connections {
		if c.From != id && c.To != id {
			kept = append(kept, c)
		}
	}
	e.connections = kept
	e.touch()
	return nil
}

// SetProperty sets (or, with a null value, clears) one property.
func (e *Editor) SetProperty(id, name string, value cty.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrInstanceNotFound, id)
	}
	bag := e.instances[idx].Properties.Clone()
	if bag == nil {
		bag = props.Bag{}
	}
	if value == cty.NilVal || value.IsNull() {
		delete(bag, name)
	} else {
		bag[name] = value
	}
	e.instances[idx].Properties = bag
	e.touch()
	return nil
}

// AddConnection connects two existing instances. Compatibility is not
// checked here.
func (e *Editor) AddConnection(from, to string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, id := range []string{from, to} {
		if e.indexOf(id) < 0 {
			return fmt.Errorf("%w: %q", ErrInstanceNotFound, id)
		}
	}
	e.connections = append(e.connections, Connection{From: from, To: to})
	e.touch()
	return nil
}

// RemoveConnection removes the first connection from -> to.
func (e *Editor) RemoveConnection(from, to string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, c := range e.connections {
		if c.From == from && c.To == to {
			e.connections = append(e.connections[:i:i], e.connections[i+1:]...)
			e.touch()
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrConnectionNotFound, from, to)
}

// Version returns the number of edits applied so far.
func (e *Editor) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// Snapshot returns an immutable deep copy of the current canvas.
func (e *Editor) Snapshot() *State {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := &State{
		Instances:   e.instances,
		Connections: e.connections,
		Version:     e.version,
		Timestamp:   e.updatedAt,
	}
	return s.Clone()
}
