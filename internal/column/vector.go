package column

import (
	colerr "github.com/colonnade/colonnade/internal/errors"
	"github.com/colonnade/colonnade/internal/container"
	"github.com/colonnade/colonnade/internal/termset"
	"github.com/colonnade/colonnade/pkg/types"
)

// Column is the interface shared by everything that can occupy a column
// slot in a DynamicTable.
type Column interface {
	container.Container

	// Description returns the column's description.
	Description() string

	// Len returns the number of logical rows in the column. For an index
	// column this is the number of ragged groups, not flat elements.
	Len() int

	// AddRow appends one row's value to the column.
	AddRow(val any) error

	// Get selects rows from the column. Scalar selection returns the cell
	// value; ranged selection returns an Array of cell values.
	Get(ix types.Index) (any, error)
}

// VectorData is a named, described, homogeneous column. It may carry a
// term set, in which case values added through AddRow must be members.
type VectorData struct {
	container.Data
	terms *termset.TermSet
}

// Option configures a VectorData.
type Option func(*vectorConfig)

type vectorConfig struct {
	terms *termset.TermSet
	specs []container.FieldSpec
}

// WithTermSet attaches a controlled vocabulary validated on AddRow.
func WithTermSet(ts *termset.TermSet) Option {
	return func(c *vectorConfig) { c.terms = ts }
}

// WithFieldSpecs registers additional declared fields, for types that
// extend VectorData with attributes of their own.
func WithFieldSpecs(specs ...container.FieldSpec) Option {
	return func(c *vectorConfig) { c.specs = append(c.specs, specs...) }
}

// NewVectorData creates a column with the given payload. A nil payload
// starts the column empty.
func NewVectorData(name, description string, data types.Array, opts ...Option) (*VectorData, error) {
	var cfg vectorConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	specs := append([]container.FieldSpec{
		{Name: "description", Doc: "a description for this column", Settable: true},
	}, cfg.specs...)
	d, err := container.NewData(name, data, specs...)
	if err != nil {
		return nil, err
	}
	v := &VectorData{Data: d, terms: cfg.terms}
	if err := container.SetField(v, "description", description); err != nil {
		return nil, err
	}
	return v, nil
}

// Description returns the column description.
func (v *VectorData) Description() string {
	s, _ := v.Fields().Get("description").(string)
	return s
}

// TermSet returns the attached vocabulary, or nil.
func (v *VectorData) TermSet() *termset.TermSet { return v.terms }

// AddRow appends a value, validating it against the term set if one is
// attached.
func (v *VectorData) AddRow(val any) error {
	if v.terms != nil && !v.terms.Validate(val) {
		return colerr.Newf(colerr.ErrCategoryColumn, colerr.CodeTermSetRejected,
			"%v is not in the term set", val)
	}
	return v.Append(val)
}

// Extend appends all elements of vals, validating each against the term
// set if one is attached. Bulk appends through an index column land
// here, so ragged groups see the same vocabulary checks as flat rows.
func (v *VectorData) Extend(vals types.Array) error {
	if v.terms != nil {
		for i := 0; i < vals.Len(); i++ {
			if !v.terms.Validate(vals.Value(i)) {
				return colerr.Newf(colerr.ErrCategoryColumn, colerr.CodeTermSetRejected,
					"%v is not in the term set", vals.Value(i))
			}
		}
	}
	return v.Data.Extend(vals)
}
