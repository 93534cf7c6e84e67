package table

import (
	colerr "github.com/colonnade/colonnade/internal/errors"
	"github.com/colonnade/colonnade/pkg/types"
)

// ToFrame materializes the whole table.
func (t *DynamicTable) ToFrame(opts ...GetOption) (*Frame, error) {
	if t.Len() == 0 {
		var cfg getConfig
		for _, opt := range opts {
			opt(&cfg)
		}
		names := make([]string, 0, len(t.colnames))
		for _, n := range t.colnames {
			if _, skip := cfg.exclude[n]; skip {
				continue
			}
			names = append(names, n)
		}
		return NewFrame(t.Name(), names), nil
	}
	return t.Rows(types.Span{Start: 0, End: t.Len()}, opts...)
}

// FrameOption configures FromFrame.
type FrameOption func(*frameConfig)

type frameConfig struct {
	indexCol string
	descs    map[string]string
}

// WithIndexColumn sources row identifiers from the named frame column
// instead of the frame's IDs. The column is consumed and does not become
// a table column.
func WithIndexColumn(name string) FrameOption {
	return func(c *frameConfig) { c.indexCol = name }
}

// WithDescriptions sets per-column descriptions. Columns absent from
// the map fall back to their own name.
func WithDescriptions(descs map[string]string) FrameOption {
	return func(c *frameConfig) { c.descs = descs }
}

// FromFrame builds a table from a frame. Columns whose cells are
// list-like become ragged through one index level; row ids carry over
// unless an index column is named.
func FromFrame(name, description string, f *Frame, opts ...FrameOption) (*DynamicTable, error) {
	var cfg frameConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	ids := f.IDs
	if cfg.indexCol != "" {
		cells, ok := f.Cells[cfg.indexCol]
		if !ok {
			return nil, colerr.Newf(colerr.ErrCategorySelection, colerr.CodeUnknownColumn,
				"'%s' is not a column in the frame", cfg.indexCol)
		}
		ids = make([]int64, len(cells))
		for i, v := range cells {
			id, ok := types.AsInt64(v)
			if !ok {
				return nil, colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeInvalidData,
					"index column '%s' value %v is not an integer", cfg.indexCol, v)
			}
			ids[i] = id
		}
	}

	t, err := NewDynamicTable(name, description, WithIDs(ids...))
	if err != nil {
		return nil, err
	}
	for _, col := range f.Colnames {
		if col == cfg.indexCol {
			continue
		}
		cells := f.Cells[col]
		desc := col
		if d, ok := cfg.descs[col]; ok {
			desc = d
		}
		colOpts := []ColumnOption{WithData(cells)}
		if anyNested(cells) {
			colOpts = append(colOpts, WithIndex())
		}
		if err := t.AddColumn(col, desc, colOpts...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func anyNested(cells []any) bool {
	for _, v := range cells {
		if _, ok := nestedElem(v); ok {
			return true
		}
	}
	return false
}

// ContentEquals reports whether two tables hold the same name,
// description, column order, ids, and cell values. Storage details such
// as index widths and object ids do not participate.
func (t *DynamicTable) ContentEquals(other *DynamicTable) bool {
	if other == nil {
		return false
	}
	if t.Name() != other.Name() || t.Description() != other.Description() {
		return false
	}
	a, err := t.ToFrame()
	if err != nil {
		return false
	}
	b, err := other.ToFrame()
	if err != nil {
		return false
	}
	return a.Equal(b)
}

// Copy returns a new table sharing this table's columns. The copy gets
// its own identity and derived state; the column data is not
// duplicated.
func (t *DynamicTable) Copy() (*DynamicTable, error) {
	return NewDynamicTable(t.Name(), t.Description(),
		WithIDColumn(t.id),
		WithColumns(t.columns...),
		WithColnames(t.colnames...),
		WithColumnSpecs(t.specs...),
	)
}
