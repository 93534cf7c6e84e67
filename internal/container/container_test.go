package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	colerr "github.com/colonnade/colonnade/internal/errors"
)

// TestNewBase tests name validation and object id generation.
func TestNewBase(t *testing.T) {
	b, err := NewBase("thing")
	require.NoError(t, err)
	assert.Equal(t, "thing", b.Name())
	assert.NotEmpty(t, b.ObjectID())
	assert.Nil(t, b.Parent())
	assert.True(t, b.Modified())

	// Two containers never share an object id
	b2, err := NewBase("thing")
	require.NoError(t, err)
	assert.NotEqual(t, b.ObjectID(), b2.ObjectID())

	// Slashes are reserved for paths
	_, err = NewBase("a/b")
	require.Error(t, err)
	assert.Equal(t, colerr.CodeInvalidName, colerr.GetCode(err))
}

type testContainer struct {
	Base
}

func newTestContainer(t *testing.T, name string, specs ...FieldSpec) *testContainer {
	t.Helper()
	b, err := NewBase(name, specs...)
	require.NoError(t, err)
	return &testContainer{Base: b}
}

// TestSetParent tests one-shot ownership.
func TestSetParent(t *testing.T) {
	parent := newTestContainer(t, "parent")
	child := newTestContainer(t, "child")

	require.NoError(t, SetParent(child, parent))
	assert.Same(t, Container(parent), child.Parent())
	assert.Len(t, parent.Children(), 1)

	// Re-assigning to the same parent is a no-op
	require.NoError(t, SetParent(child, parent))
	assert.Len(t, parent.Children(), 1)

	// Re-assigning to a different parent is refused
	other := newTestContainer(t, "other")
	err := SetParent(child, other)
	require.Error(t, err)
	assert.Equal(t, colerr.CodeOwnership, colerr.GetCode(err))
	assert.Same(t, Container(parent), child.Parent())
}

// TestPendingParent tests placeholder parents resolved on first
// concrete assignment.
func TestPendingParent(t *testing.T) {
	child := newTestContainer(t, "child")
	require.NoError(t, SetPendingParent(child, func(c Container) bool {
		return c.Name() == "wanted"
	}))

	// A rejected candidate is recorded, not adopted
	wrong := newTestContainer(t, "unwanted")
	require.NoError(t, SetParent(child, wrong))
	assert.Nil(t, child.Parent())

	right := newTestContainer(t, "wanted")
	require.NoError(t, SetParent(child, right))
	assert.Same(t, Container(right), child.Parent())
}

// TestSetModifiedPropagates tests upward modified propagation.
func TestSetModifiedPropagates(t *testing.T) {
	parent := newTestContainer(t, "parent")
	child := newTestContainer(t, "child")
	require.NoError(t, SetParent(child, parent))

	parent.SetModified(false)
	child.SetModified(false)
	require.False(t, parent.Modified())

	child.SetModified(true)
	assert.True(t, child.Modified())
	assert.True(t, parent.Modified())

	// Clearing a child does not clear the parent
	parent.SetModified(false)
	child.SetModified(false)
	child.SetModified(true)
	child.SetModified(false)
	assert.True(t, parent.Modified())
}

// TestRemoveChild tests child detachment.
func TestRemoveChild(t *testing.T) {
	parent := newTestContainer(t, "parent")
	child := newTestContainer(t, "child")
	require.NoError(t, SetParent(child, parent))

	require.NoError(t, RemoveChild(parent, child))
	assert.Nil(t, child.Parent())
	assert.Empty(t, parent.Children())

	err := RemoveChild(parent, child)
	require.Error(t, err)
	assert.Equal(t, colerr.CodeChildNotFound, colerr.GetCode(err))
}

// TestGenerateNewID tests id regeneration with and without recursion.
func TestGenerateNewID(t *testing.T) {
	parent := newTestContainer(t, "parent")
	child := newTestContainer(t, "child")
	require.NoError(t, SetParent(child, parent))

	pid, cid := parent.ObjectID(), child.ObjectID()
	parent.GenerateNewID(false)
	assert.NotEqual(t, pid, parent.ObjectID())
	assert.Equal(t, cid, child.ObjectID())

	parent.GenerateNewID(true)
	assert.NotEqual(t, cid, child.ObjectID())
}

// TestSetField tests declared field semantics.
func TestSetField(t *testing.T) {
	c := newTestContainer(t, "c",
		FieldSpec{Name: "description", Doc: "doc", Settable: true},
		FieldSpec{Name: "fixed", Doc: "doc"},
	)

	require.NoError(t, SetField(c, "description", "hello"))
	assert.Equal(t, "hello", c.Fields().Get("description"))

	// Set-once
	err := SetField(c, "description", "again")
	require.Error(t, err)
	assert.Equal(t, colerr.CodeAlreadySet, colerr.GetCode(err))

	// Unknown fields are rejected
	err = SetField(c, "nope", 1)
	require.Error(t, err)
	assert.Equal(t, colerr.CodeInvalidFieldSpec, colerr.GetCode(err))

	// Nil assignment is a no-op
	require.NoError(t, SetField(c, "fixed", nil))
	assert.False(t, c.Fields().IsSet("fixed"))
}

// TestChildField tests that container-valued child fields are parented
// on assignment.
func TestChildField(t *testing.T) {
	owner := newTestContainer(t, "owner",
		FieldSpec{Name: "part", Doc: "doc", Settable: true, Child: true},
	)
	part := newTestContainer(t, "part")

	require.NoError(t, SetField(owner, "part", part))
	assert.Same(t, Container(owner), part.Parent())

	// A value that already has a parent is linked, not re-owned
	owner2 := newTestContainer(t, "owner2",
		FieldSpec{Name: "part", Doc: "doc", Settable: true, Child: true},
	)
	require.NoError(t, SetField(owner2, "part", part))
	assert.Same(t, Container(owner), part.Parent())
}

// TestRequiredName tests fields constrained to a fixed container name.
func TestRequiredName(t *testing.T) {
	owner := newTestContainer(t, "owner",
		FieldSpec{Name: "slot", Doc: "doc", Settable: true, RequiredName: "exact"},
	)
	wrong := newTestContainer(t, "inexact")
	err := SetField(owner, "slot", wrong)
	require.Error(t, err)
	assert.Equal(t, colerr.CodeInvalidName, colerr.GetCode(err))

	right := newTestContainer(t, "exact")
	require.NoError(t, SetField(owner, "slot", right))
}

// TestAncestor tests upward predicate search.
func TestAncestor(t *testing.T) {
	root := newTestContainer(t, "root")
	mid := newTestContainer(t, "mid")
	leaf := newTestContainer(t, "leaf")
	require.NoError(t, SetParent(mid, root))
	require.NoError(t, SetParent(leaf, mid))

	got := Ancestor(leaf, func(c Container) bool { return c.Name() == "root" })
	assert.Same(t, Container(root), got)

	assert.Nil(t, Ancestor(leaf, func(c Container) bool { return c.Name() == "nope" }))
}
