// Package build converts containers to and from a neutral tree of
// builders, the unit that snapshot persistence serializes. A
// GroupBuilder holds attributes plus named child groups and datasets;
// a DatasetBuilder holds a flat payload with its kind.
package build

import (
	colerr "github.com/colonnade/colonnade/internal/errors"
)

// Attribute names used by the table build/reconstruct pipeline.
const (
	attrDataType    = "data_type"
	attrObjectID    = "object_id"
	attrDescription = "description"
	attrColnames    = "colnames"
	attrTarget      = "target"
	attrElements    = "elements"
	attrTable       = "table"
)

// GroupBuilder is an interior node of a builder tree. Children keep
// insertion order.
type GroupBuilder struct {
	Name       string            `json:"name"`
	Attributes map[string]any    `json:"attributes,omitempty"`
	Groups     []*GroupBuilder   `json:"groups,omitempty"`
	Datasets   []*DatasetBuilder `json:"datasets,omitempty"`
}

// DatasetBuilder is a leaf holding a flat payload.
type DatasetBuilder struct {
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes,omitempty"`

	// Kind names the payload's element kind ("int", "uint", "float",
	// "string", "bool", "any").
	Kind string `json:"kind"`
	Data []any  `json:"data"`
}

// NewGroupBuilder creates an empty group.
func NewGroupBuilder(name string) *GroupBuilder {
	return &GroupBuilder{Name: name, Attributes: make(map[string]any)}
}

// NewDatasetBuilder creates a dataset with the given payload.
func NewDatasetBuilder(name, kind string, data []any) *DatasetBuilder {
	return &DatasetBuilder{
		Name:       name,
		Attributes: make(map[string]any),
		Kind:       kind,
		Data:       data,
	}
}

// SetAttribute sets an attribute on the group.
func (g *GroupBuilder) SetAttribute(name string, val any) {
	if g.Attributes == nil {
		g.Attributes = make(map[string]any)
	}
	g.Attributes[name] = val
}

// SetAttribute sets an attribute on the dataset.
func (d *DatasetBuilder) SetAttribute(name string, val any) {
	if d.Attributes == nil {
		d.Attributes = make(map[string]any)
	}
	d.Attributes[name] = val
}

// AddGroup appends a child group; names must be unique within the
// parent.
func (g *GroupBuilder) AddGroup(child *GroupBuilder) error {
	if g.Group(child.Name) != nil || g.Dataset(child.Name) != nil {
		return colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeDuplicateColumn,
			"builder group '%s' already has a child named '%s'", g.Name, child.Name)
	}
	g.Groups = append(g.Groups, child)
	return nil
}

// AddDataset appends a child dataset; names must be unique within the
// parent.
func (g *GroupBuilder) AddDataset(child *DatasetBuilder) error {
	if g.Group(child.Name) != nil || g.Dataset(child.Name) != nil {
		return colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeDuplicateColumn,
			"builder group '%s' already has a child named '%s'", g.Name, child.Name)
	}
	g.Datasets = append(g.Datasets, child)
	return nil
}

// Group returns the child group with the given name, or nil.
func (g *GroupBuilder) Group(name string) *GroupBuilder {
	for _, c := range g.Groups {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Dataset returns the child dataset with the given name, or nil.
func (g *GroupBuilder) Dataset(name string) *DatasetBuilder {
	for _, c := range g.Datasets {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Attr returns a group attribute as a string, or "".
func (g *GroupBuilder) Attr(name string) string {
	s, _ := g.Attributes[name].(string)
	return s
}

// Attr returns a dataset attribute as a string, or "".
func (d *DatasetBuilder) Attr(name string) string {
	s, _ := d.Attributes[name].(string)
	return s
}
