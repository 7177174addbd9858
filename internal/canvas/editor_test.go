package canvas

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/contractgrid/internal/props"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestEditor_AddInstance(t *testing.T) {
	e := NewEditor(WithIDGenerator(sequentialIDs()))

	a := e.AddInstance("state-variable", props.Bag{"name": cty.StringVal("balance")})
	b := e.AddInstance("function", nil)
	assert.Equal(t, "id-1", a)
	assert.Equal(t, "id-2", b)

	s := e.Snapshot()
	require.Len(t, s.Instances, 2)
	assert.Equal(t, "balance", s.Instances[0].DisplayName())
	assert.Equal(t, "id-2", s.Instances[1].DisplayName())
	assert.Equal(t, uint64(2), s.Version)
}

func TestEditor_DefaultIDsAreUUIDs(t *testing.T) {
	e := NewEditor()
	id := e.AddInstance("function", nil)
	assert.Len(t, id, 36)
}

func TestEditor_AddInstanceWithID_Duplicate(t *testing.T) {
	e := NewEditor()
	require.NoError(t, e.AddInstanceWithID("x", "function", nil))
	err := e.AddInstanceWithID("x", "event", nil)
	assert.ErrorIs(t, err, ErrDuplicateInstance)
}

func TestEditor_ConnectionReferentialIntegrity(t *testing.T) {
	e := NewEditor()
	require.NoError(t, e.AddInstanceWithID("v", "state-variable", nil))
	require.NoError(t, e.AddInstanceWithID("f", "function", nil))

	require.NoError(t, e.AddConnection("v", "f"))
	assert.ErrorIs(t, e.AddConnection("v", "ghost"), ErrInstanceNotFound)
	assert.ErrorIs(t, e.AddConnection("ghost", "f"), ErrInstanceNotFound)

	require.NoError(t, e.RemoveConnection("v", "f"))
	assert.ErrorIs(t, e.RemoveConnection("v", "f"), ErrConnectionNotFound)
	assert.Empty(t, e.Snapshot().Connections)
}

func TestEditor_RemoveInstanceCascades(t *testing.T) {
	e := NewEditor()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, e.AddInstanceWithID(id, "function", nil))
	}
	require.NoError(t, e.AddConnection("a", "b"))
	require.NoError(t, e.AddConnection("b", "c"))
	require.NoError(t, e.AddConnection("a", "c"))

	require.NoError(t, e.RemoveInstance("b"))

	s := e.Snapshot()
	assert.Equal(t, []Connection{{From: "a", To: "c"}}, s.Connections)
	require.Len(t, s.Instances, 2)
	assert.Equal(t, "a", s.Instances[0].ID)
	assert.Equal(t, "c", s.Instances[1].ID)

	assert.ErrorIs(t, e.RemoveInstance("b"), ErrInstanceNotFound)
}

func TestEditor_SnapshotIsImmutable(t *testing.T) {
	e := NewEditor()
	require.NoError(t, e.AddInstanceWithID("v", "state-variable", props.Bag{"name": cty.StringVal("before")}))
	snap := e.Snapshot()

	require.NoError(t, e.SetProperty("v", "name", cty.StringVal("after")))
	require.NoError(t, e.AddInstanceWithID("w", "state-variable", nil))

	assert.Equal(t, "before", snap.Instances[0].DisplayName())
	assert.Len(t, snap.Instances, 1)
	assert.Equal(t, "after", e.Snapshot().Instances[0].DisplayName())

	// Mutating the snapshot does not leak back into the editor either.
	snap.Instances[0].Properties["name"] = cty.StringVal("hacked")
	assert.Equal(t, "after", e.Snapshot().Instances[0].DisplayName())
}

func TestEditor_SetProperty(t *testing.T) {
	e := NewEditor()
	require.NoError(t, e.AddInstanceWithID("v", "state-variable", nil))

	require.NoError(t, e.SetProperty("v", "name", cty.StringVal("total")))
	v, ok := e.Snapshot().Instance("v")
	require.True(t, ok)
	assert.Equal(t, "total", v.DisplayName())

	require.NoError(t, e.SetProperty("v", "name", cty.NullVal(cty.String)))
	v, _ = e.Snapshot().Instance("v")
	assert.Equal(t, "v", v.DisplayName())

	assert.ErrorIs(t, e.SetProperty("ghost", "name", cty.StringVal("x")), ErrInstanceNotFound)
}

func TestEditor_VersionAndClock(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	e := NewEditor(WithClock(func() time.Time { return ts }))
	assert.Equal(t, uint64(0), e.Version())

	require.NoError(t, e.AddInstanceWithID("a", "function", nil))
	require.NoError(t, e.AddInstanceWithID("b", "function", nil))
	require.NoError(t, e.AddConnection("a", "b"))

	s := e.Snapshot()
	assert.Equal(t, uint64(3), s.Version)
	assert.Equal(t, ts, s.Timestamp)
}

func TestEditor_ConcurrentEdits(t *testing.T) {
	e := NewEditor()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := e.AddInstance("function", nil)
			_ = e.Snapshot()
			_ = e.SetProperty(id, "name", cty.StringVal("f"))
		}()
	}
	wg.Wait()

	s := e.Snapshot()
	assert.Len(t, s.Instances, 50)
	assert.Equal(t, uint64(100), s.Version)
}

func TestNewEditorFrom(t *testing.T) {
	src := &State{
		Instances:   []Instance{{ID: "a", TemplateID: "function"}},
		Connections: []Connection{{From: "a", To: "a"}},
		Version:     7,
	}
	e := NewEditorFrom(src)
	require.NoError(t, e.AddInstanceWithID("b", "function", nil))

	assert.Len(t, src.Instances, 1, "the seed state is copied")
	assert.Equal(t, uint64(8), e.Version())
}
