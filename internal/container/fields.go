package container

import (
	colerr "github.com/colonnade/colonnade/internal/errors"
)

// FieldSpec declares one exported field of a container type. Fields are
// registered explicitly at construction time; accessors on concrete types
// delegate to the field map.
type FieldSpec struct {
	// Name is the field's key in the field map.
	Name string

	// Doc is a human-readable description of the field.
	Doc string

	// Settable controls whether SetField may bind a value after
	// construction. Non-settable fields can only be bound internally.
	Settable bool

	// Child marks a field whose assigned container value(s) are
	// auto-parented to the owner.
	Child bool

	// RequiredName, when non-empty, requires the assigned value to be a
	// Container carrying exactly this name.
	RequiredName string
}

// FieldMap holds a container's declared field specs and their bound
// values. Each field may be bound at most once with a non-nil value.
type FieldMap struct {
	specs  []FieldSpec
	byName map[string]int
	values map[string]any
}

func newFieldMap(specs []FieldSpec) (*FieldMap, error) {
	byName := make(map[string]int, len(specs))
	for i, s := range specs {
		if s.Name == "" {
			return nil, colerr.NewValidationError(colerr.CodeInvalidFieldSpec,
				"field spec must have a name")
		}
		if _, dup := byName[s.Name]; dup {
			return nil, colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeInvalidFieldSpec,
				"duplicate field spec %q", s.Name)
		}
		byName[s.Name] = i
	}
	return &FieldMap{
		specs:  specs,
		byName: byName,
		values: make(map[string]any),
	}, nil
}

// Specs returns the declared field specs in declaration order.
func (m *FieldMap) Specs() []FieldSpec {
	return append([]FieldSpec(nil), m.specs...)
}

// Names returns the declared field names in declaration order.
func (m *FieldMap) Names() []string {
	out := make([]string, len(m.specs))
	for i, s := range m.specs {
		out[i] = s.Name
	}
	return out
}

// Get returns the bound value for name, or nil if unbound.
func (m *FieldMap) Get(name string) any {
	return m.values[name]
}

// Has reports whether the field is declared.
func (m *FieldMap) Has(name string) bool {
	_, ok := m.byName[name]
	return ok
}

// IsSet reports whether the field currently holds a value.
func (m *FieldMap) IsSet(name string) bool {
	_, ok := m.values[name]
	return ok
}

// SetField binds val to the named field of owner. A nil val is a no-op.
// Binding a field that already holds a value fails with ALREADY_SET.
// Child fields auto-parent assigned container values to owner; fields
// with a required name reject values that do not carry it.
func SetField(owner Container, name string, val any) error {
	m := owner.Fields()
	i, ok := m.byName[name]
	if !ok {
		return colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeInvalidFieldSpec,
			"%q has no field %q", owner.Name(), name)
	}
	if val == nil {
		return nil
	}
	spec := m.specs[i]
	if !spec.Settable {
		return colerr.Newf(colerr.ErrCategoryContainer, colerr.CodeAlreadySet,
			"field %q on %q is not settable", name, owner.Name())
	}
	if _, set := m.values[name]; set {
		return colerr.Newf(colerr.ErrCategoryContainer, colerr.CodeAlreadySet,
			"can't set field %q on %q -- already set", name, owner.Name())
	}
	if spec.RequiredName != "" {
		c, isContainer := val.(Container)
		if !isContainer {
			return colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeInvalidName,
				"field %q on %q has a required name and must be a Container", name, owner.Name())
		}
		if c.Name() != spec.RequiredName {
			return colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeInvalidName,
				"field %q on %q must be named %q", name, owner.Name(), spec.RequiredName)
		}
	}
	m.values[name] = val
	if spec.Child {
		for _, c := range containerValues(val) {
			if c.Parent() == nil {
				if err := SetParent(c, owner); err != nil {
					return err
				}
			}
			// a value with an existing parent becomes a link; the
			// persistence layer records it without reparenting
		}
	}
	return nil
}

func containerValues(val any) []Container {
	switch v := val.(type) {
	case Container:
		return []Container{v}
	case []Container:
		return v
	default:
		return nil
	}
}
