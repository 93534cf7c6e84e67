// Package container implements the identity and ownership graph that all
// Colonnade objects participate in. Every table and column is a Container:
// it has a name, a globally unique object ID, at most one owning parent,
// an ordered list of children, and a modified flag that propagates upward.
package container

import (
	"strings"

	"github.com/google/uuid"

	colerr "github.com/colonnade/colonnade/internal/errors"
)

// Container is the common interface of every node in the ownership graph.
// Concrete types embed Base to satisfy it.
type Container interface {
	// Name returns the node's name. Names never contain '/'.
	Name() string

	// ObjectID returns the node's UUID string.
	ObjectID() string

	// Parent returns the owning parent, or nil if the node is unattached.
	Parent() Container

	// Children returns the node's children in insertion order.
	Children() []Container

	// Modified reports whether the node has been changed since the flag
	// was last cleared.
	Modified() bool

	// SetModified sets the dirty flag. Setting it true also marks every
	// ancestor.
	SetModified(modified bool)

	// Fields returns the node's declared field map for generic traversal.
	Fields() *FieldMap

	base() *Base
}

// Unresolved is a weak placeholder parent: the child is waiting for a
// parent that satisfies Matches. It resolves exactly once, on the first
// SetParent call whose parent satisfies the predicate.
type Unresolved struct {
	// Matches decides whether a proposed parent resolves this placeholder.
	// A nil Matches accepts any parent.
	Matches func(Container) bool

	candidates []Container
}

// Candidates returns parents that were proposed but did not satisfy the
// placeholder's predicate.
func (u *Unresolved) Candidates() []Container {
	return u.candidates
}

// Base is the embeddable implementation of Container. It must be
// initialized with NewBase before use.
type Base struct {
	name     string
	objectID string
	parent   Container
	pending  *Unresolved
	children []Container
	modified bool
	fields   *FieldMap
}

// NewBase initializes a Base with the given name and declared fields.
// It fails if the name contains '/' or the field specs are invalid.
func NewBase(name string, specs ...FieldSpec) (Base, error) {
	if strings.Contains(name, "/") {
		return Base{}, colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeInvalidName,
			"name %q cannot contain '/'", name)
	}
	fields, err := newFieldMap(specs)
	if err != nil {
		return Base{}, err
	}
	return Base{
		name:     name,
		objectID: uuid.NewString(),
		modified: true,
		fields:   fields,
	}, nil
}

func (b *Base) Name() string     { return b.name }
func (b *Base) ObjectID() string { return b.objectID }

func (b *Base) Parent() Container { return b.parent }

func (b *Base) Children() []Container {
	return append([]Container(nil), b.children...)
}

func (b *Base) Modified() bool { return b.modified }

// SetModified sets the dirty flag. A true flag walks up the parent chain;
// the walk is bounded by tree height.
func (b *Base) SetModified(modified bool) {
	b.modified = modified
	if modified && b.parent != nil {
		b.parent.SetModified(true)
	}
}

// Fields returns the declared field map.
func (b *Base) Fields() *FieldMap { return b.fields }

// GenerateNewID assigns a fresh UUID to this node and, if recurse is
// true, to all of its descendants.
func (b *Base) GenerateNewID(recurse bool) {
	b.objectID = uuid.NewString()
	b.SetModified(true)
	if recurse {
		for _, c := range b.children {
			c.base().GenerateNewID(true)
		}
	}
}

func (b *Base) base() *Base { return b }

// SetPendingParent marks child as placeholder-parented: it has no owner
// yet, but the first SetParent whose parent satisfies match will bind it.
// It fails if the child already has a concrete parent.
func SetPendingParent(child Container, match func(Container) bool) error {
	cb := child.base()
	if cb.parent != nil {
		return colerr.Newf(colerr.ErrCategoryContainer, colerr.CodeOwnership,
			"cannot mark %q as unresolved: parent is already %q", child.Name(), cb.parent.Name())
	}
	cb.pending = &Unresolved{Matches: match}
	return nil
}

// SetParent binds child to parent. Parent assignment is one-shot: a child
// with a concrete parent cannot be reassigned to a different one. A child
// with an unresolved placeholder parent is bound once the placeholder's
// predicate accepts the proposed parent; a non-matching parent is recorded
// as a candidate and the placeholder stays in place.
func SetParent(child, parent Container) error {
	cb := child.base()
	if cb.parent == parent {
		return nil
	}
	if cb.parent != nil {
		return colerr.Newf(colerr.ErrCategoryContainer, colerr.CodeOwnership,
			"cannot reassign parent of %q: parent is already %q", child.Name(), cb.parent.Name())
	}
	if cb.pending != nil {
		if cb.pending.Matches != nil && !cb.pending.Matches(parent) {
			cb.pending.candidates = append(cb.pending.candidates, parent)
			return nil
		}
		cb.pending = nil
	}
	cb.parent = parent
	pb := parent.base()
	pb.children = append(pb.children, child)
	parent.SetModified(true)
	return nil
}

// RemoveChild detaches child from parent. It fails if child is not
// currently one of parent's children. Both nodes are marked modified.
func RemoveChild(parent, child Container) error {
	pb := parent.base()
	for i, c := range pb.children {
		if c == child {
			pb.children = append(pb.children[:i], pb.children[i+1:]...)
			child.base().parent = nil
			child.SetModified(true)
			parent.SetModified(true)
			return nil
		}
	}
	return colerr.Newf(colerr.ErrCategoryContainer, colerr.CodeChildNotFound,
		"%q is not a child of %q", child.Name(), parent.Name())
}

// Ancestor walks the parent chain and returns the first container for
// which pred returns true, or nil if none matches.
func Ancestor(c Container, pred func(Container) bool) Container {
	for p := c.Parent(); p != nil; p = p.Parent() {
		if pred(p) {
			return p
		}
	}
	return nil
}

// RestoreObjectID replaces the generated object id with a persisted one.
// Reconstruction paths use this to keep identity stable across a
// round-trip; it does not mark the container modified.
func (b *Base) RestoreObjectID(id string) {
	if id != "" {
		b.objectID = id
	}
}
