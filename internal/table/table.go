// Package table implements DynamicTable, a group of equal-length
// columns addressed by row position. Columns can be flat vectors,
// ragged arrays reached through index chains, dictionary-encoded
// enums, or regions referencing rows of other tables.
package table

import (
	"fmt"
	"strings"

	colerr "github.com/colonnade/colonnade/internal/errors"
	"github.com/colonnade/colonnade/internal/column"
	"github.com/colonnade/colonnade/internal/container"
	"github.com/colonnade/colonnade/internal/termset"
	"github.com/colonnade/colonnade/pkg/types"
)

// reservedNames are table accessors a column may shadow in name-based
// lookup contexts. Columns with these names stay reachable, but we warn
// because downstream tooling tends to special-case them.
var reservedNames = map[string]struct{}{
	"id": {}, "name": {}, "description": {}, "colnames": {}, "columns": {},
}

// ColumnSpec declares a column a table knows about before any data
// exists for it. Required columns are created empty at construction;
// optional ones materialize on first use.
type ColumnSpec struct {
	Name        string
	Description string
	Required    bool

	// Index is the number of ragged index levels, zero for a flat
	// column.
	Index int

	// Table marks the column as a region referencing rows of another
	// table.
	Table bool

	// Enum marks the column as dictionary-encoded.
	Enum bool

	// TermSet optionally restricts the column to a controlled
	// vocabulary.
	TermSet *termset.TermSet
}

// DynamicTable is a group of equal-length columns addressed by row
// position, with an identifier column tying the rows together. Columns
// may be flat, ragged through index chains, dictionary-encoded, or
// references into other tables.
type DynamicTable struct {
	container.Base

	id       *column.ElementIdentifiers
	colnames []string
	columns  []column.Column
	colids   map[string]int
	dfCols   []column.Column
	indices  map[string]*column.VectorIndex
	specs    []ColumnSpec
	uninit   map[string]ColumnSpec
}

type tableConfig struct {
	ids     []int64
	idCol   *column.ElementIdentifiers
	columns []column.Column
	names   []string
	specs   []ColumnSpec
}

// TableOption configures a DynamicTable under construction.
type TableOption func(*tableConfig)

// WithIDs seeds the identifier column with explicit row ids.
func WithIDs(ids ...int64) TableOption {
	return func(c *tableConfig) { c.ids = ids }
}

// WithIDColumn supplies a prebuilt identifier column.
func WithIDColumn(id *column.ElementIdentifiers) TableOption {
	return func(c *tableConfig) { c.idCol = id }
}

// WithColumns supplies prebuilt columns, including any index and
// dictionary columns, in storage order.
func WithColumns(cols ...column.Column) TableOption {
	return func(c *tableConfig) { c.columns = append(c.columns, cols...) }
}

// WithColnames fixes the public column order. Requires WithColumns; the
// storage order is reconstructed so each column's index chain precedes
// it, outermost first.
func WithColnames(names ...string) TableOption {
	return func(c *tableConfig) { c.names = names }
}

// WithColumnSpecs declares predefined columns.
func WithColumnSpecs(specs ...ColumnSpec) TableOption {
	return func(c *tableConfig) { c.specs = append(c.specs, specs...) }
}

// NewDynamicTable creates a table. With no column options the table
// starts empty; supplied columns must agree on length with each other
// and with any supplied ids.
func NewDynamicTable(name, description string, opts ...TableOption) (*DynamicTable, error) {
	var cfg tableConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	base, err := container.NewBase(name,
		container.FieldSpec{Name: "description", Doc: "a description of what is in this table", Settable: true},
	)
	if err != nil {
		return nil, err
	}
	t := &DynamicTable{
		Base:    base,
		colids:  make(map[string]int),
		indices: make(map[string]*column.VectorIndex),
		uninit:  make(map[string]ColumnSpec),
		specs:   cfg.specs,
	}
	if err := container.SetField(t, "description", description); err != nil {
		return nil, err
	}

	switch {
	case cfg.idCol != nil:
		t.id = cfg.idCol
	default:
		id, err := column.NewElementIdentifiers("id", cfg.ids...)
		if err != nil {
			return nil, err
		}
		t.id = id
	}

	if len(cfg.columns) > 0 {
		if err := t.checkColumns(cfg.columns); err != nil {
			return nil, err
		}
	}
	if cfg.names != nil {
		if len(cfg.columns) == 0 {
			return nil, colerr.New(colerr.ErrCategoryValidation, colerr.CodeInvalidColumnSpec,
				"must supply columns when specifying colnames")
		}
		t.colnames = append([]string(nil), cfg.names...)
		cols, err := storageOrder(cfg.names, cfg.columns)
		if err != nil {
			return nil, err
		}
		t.columns = cols
	} else {
		t.columns = append([]column.Column(nil), cfg.columns...)
		t.colnames = publicOrder(cfg.columns)
	}
	if err := t.finalize(); err != nil {
		return nil, err
	}
	if err := t.adopt(t.id); err != nil {
		return nil, err
	}

	for _, spec := range cfg.specs {
		if _, ok := t.colids[spec.Name]; ok {
			continue
		}
		if !spec.Required {
			t.uninit[spec.Name] = spec
			continue
		}
		if err := t.AddColumn(spec.Name, spec.Description, specOptions(spec)...); err != nil {
			return nil, err
		}
	}
	t.SetModified(true)
	return t, nil
}

func specOptions(spec ColumnSpec) []ColumnOption {
	var opts []ColumnOption
	if spec.Index > 0 {
		opts = append(opts, WithRaggedLevels(spec.Index))
	}
	if spec.Table {
		opts = append(opts, AsRegion(nil))
	}
	if spec.Enum {
		opts = append(opts, AsEnum())
	}
	if spec.TermSet != nil {
		opts = append(opts, WithColumnTermSet(spec.TermSet))
	}
	return opts
}

// checkColumns validates supplied columns: unique names, unique index
// targets, resolvable targets, and equal lengths. It also reconciles
// the identifier column with the column length, auto-populating ids
// for a fresh table.
func (t *DynamicTable) checkColumns(cols []column.Column) error {
	names := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, dup := names[c.Name()]; dup {
			return colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeDuplicateColumn,
				"columns with duplicate name '%s' supplied to DynamicTable '%s'", c.Name(), t.Name())
		}
		names[c.Name()] = struct{}{}
	}

	targets := make(map[string]string, len(cols))
	for _, c := range cols {
		ix, ok := c.(*column.VectorIndex)
		if !ok {
			continue
		}
		tgt := ix.Target().Name()
		if prev, dup := targets[tgt]; dup {
			return colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeDuplicateIndexTarget,
				"'%s' is the target of both '%s' and '%s'", tgt, prev, ix.Name())
		}
		targets[tgt] = ix.Name()
	}

	// Count lengths over top-level columns only: index targets and
	// dictionary elements are reached through their wrappers and may
	// legitimately differ in flat length.
	colset := make(map[string]column.Column, len(cols))
	for _, c := range cols {
		colset[c.Name()] = c
	}
	for _, c := range cols {
		switch col := c.(type) {
		case *column.VectorIndex:
			if _, ok := colset[col.Target().Name()]; !ok {
				return colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeInvalidColumnSpec,
					"found VectorIndex '%s' but not its target '%s'", col.Name(), col.Target().Name())
			}
			delete(colset, col.Target().Name())
		case *column.EnumData:
			delete(colset, col.Elements().Name())
		}
	}

	rows := -1
	for _, c := range colset {
		if rows == -1 {
			rows = c.Len()
			continue
		}
		if c.Len() != rows {
			return colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeLengthMismatch,
				"columns supplied to DynamicTable '%s' must be the same length", t.Name())
		}
	}
	if rows >= 0 && rows != t.id.Len() {
		if t.id.Len() > 0 {
			return colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeLengthMismatch,
				"must provide %d ids to match the length of the supplied columns, got %d", rows, t.id.Len())
		}
		for i := 0; i < rows; i++ {
			if err := t.id.AppendID(int64(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// publicOrder derives the public column order from storage order: index
// columns and dictionary element columns are internal and do not appear.
func publicOrder(cols []column.Column) []string {
	elems := make(map[string]struct{})
	for _, c := range cols {
		if e, ok := c.(*column.EnumData); ok {
			elems[e.Elements().Name()] = struct{}{}
		}
	}
	var out []string
	for _, c := range cols {
		if _, ok := c.(*column.VectorIndex); ok {
			continue
		}
		if _, ok := elems[c.Name()]; ok {
			continue
		}
		out = append(out, c.Name())
	}
	return out
}

// storageOrder rebuilds the storage column order from a public order:
// each public column is preceded by its full index chain, outermost
// first, and a dictionary column is followed by its element column when
// that was supplied.
func storageOrder(names []string, cols []column.Column) ([]column.Column, error) {
	byName := make(map[string]column.Column, len(cols))
	for _, c := range cols {
		byName[c.Name()] = c
	}

	// For every index column, walk its chain down to the non-index
	// target; the longest chain seen for a target wins.
	chains := make(map[string][]column.Column)
	for _, c := range cols {
		ix, ok := c.(*column.VectorIndex)
		if !ok {
			continue
		}
		chain := []column.Column{ix}
		cur := ix
		for {
			nxt, ok := cur.Target().(*column.VectorIndex)
			if !ok {
				break
			}
			chain = append(chain, nxt)
			cur = nxt
		}
		base := cur.Target().Name()
		if len(chain) > len(chains[base]) {
			chains[base] = chain
		}
	}

	var out []column.Column
	for _, name := range names {
		c, ok := byName[name]
		if !ok {
			return nil, colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeInvalidColumnSpec,
				"column '%s' listed in colnames but not supplied", name)
		}
		out = append(out, chains[name]...)
		out = append(out, c)
		if e, ok := c.(*column.EnumData); ok {
			if _, supplied := byName[e.Elements().Name()]; supplied {
				out = append(out, e.Elements())
			}
		}
	}
	return out, nil
}

// finalize builds the derived lookup state from colnames and the
// storage columns, and parents orphan columns to the table.
func (t *DynamicTable) finalize() error {
	type chainInfo struct {
		outer *column.VectorIndex
		depth int
	}
	chains := make(map[string]chainInfo)
	byName := make(map[string]column.Column, len(t.columns))

	for _, c := range t.columns {
		if err := t.adopt(c); err != nil {
			return err
		}
		if ix, ok := c.(*column.VectorIndex); ok {
			t.indices[ix.Name()] = ix
			depth := 1
			cur := ix
			for {
				nxt, ok := cur.Target().(*column.VectorIndex)
				if !ok {
					break
				}
				depth++
				cur = nxt
			}
			base := cur.Target().Name()
			if prev, ok := chains[base]; !ok || depth > prev.depth {
				chains[base] = chainInfo{outer: ix, depth: depth}
			}
			continue
		}
		if _, ok := byName[c.Name()]; !ok {
			byName[c.Name()] = c
		}
	}

	t.dfCols = make([]column.Column, 1, len(t.colnames)+1)
	t.dfCols[0] = t.id
	for i, name := range t.colnames {
		if _, dup := t.colids[name]; dup {
			return colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeDuplicateColumn,
				"duplicate column name '%s' in DynamicTable '%s'", name, t.Name())
		}
		var slot column.Column
		if ci, ok := chains[name]; ok {
			slot = ci.outer
		} else if c, ok := byName[name]; ok {
			slot = c
		} else {
			return colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeInvalidColumnSpec,
				"column '%s' listed in colnames but not supplied", name)
		}
		t.colids[name] = i + 1
		t.dfCols = append(t.dfCols, slot)
		t.warnReserved(name)
	}
	return nil
}

func (t *DynamicTable) warnReserved(name string) {
	if _, ok := reservedNames[name]; ok {
		logger.Warn().
			Str("table", t.Name()).
			Str("column", name).
			Msg("column name collides with a table accessor; it stays reachable through name-based lookup")
	}
}

func (t *DynamicTable) adopt(c container.Container) error {
	if c.Parent() != nil {
		return nil
	}
	return container.SetParent(c, t)
}

// Description returns the table description.
func (t *DynamicTable) Description() string {
	s, _ := t.Fields().Get("description").(string)
	return s
}

// Len returns the number of rows.
func (t *DynamicTable) Len() int { return t.id.Len() }

// Colnames returns the public column order.
func (t *DynamicTable) Colnames() []string {
	return append([]string(nil), t.colnames...)
}

// Columns returns the storage columns, index chains outermost first.
func (t *DynamicTable) Columns() []column.Column {
	return append([]column.Column(nil), t.columns...)
}

// IDs returns the identifier column.
func (t *DynamicTable) IDs() *column.ElementIdentifiers { return t.id }

// HasColumn reports whether name is a public column of the table.
func (t *DynamicTable) HasColumn(name string) bool {
	_, ok := t.colids[name]
	return ok
}

// IsRagged reports whether the named column is reached through an index
// chain.
func (t *DynamicTable) IsRagged(name string) bool {
	slot, ok := t.colids[name]
	if !ok {
		return false
	}
	_, ragged := t.dfCols[slot].(*column.VectorIndex)
	return ragged
}

// Index returns the index column with the given name, or nil.
func (t *DynamicTable) Index(name string) *column.VectorIndex {
	return t.indices[name]
}

type colConfig struct {
	data     any
	levels   int
	existing *column.VectorIndex
	region   bool
	regionTo *DynamicTable
	enum     bool
	elements any
	terms    *termset.TermSet
}

// ColumnOption configures AddColumn.
type ColumnOption func(*colConfig)

// WithData supplies the column's initial payload; its length after any
// ragged flattening must match the table's current row count.
func WithData(data any) ColumnOption {
	return func(c *colConfig) { c.data = data }
}

// WithIndex makes the column ragged through a single index level.
func WithIndex() ColumnOption { return WithRaggedLevels(1) }

// WithRaggedLevels makes the column ragged through n index levels.
// Nested payload data is flattened automatically.
func WithRaggedLevels(n int) ColumnOption {
	return func(c *colConfig) { c.levels = n }
}

// WithExistingIndex attaches a caller-built index column instead of
// deriving one. Prefer WithRaggedLevels; this exists for reconstruction
// paths.
func WithExistingIndex(ix *column.VectorIndex) ColumnOption {
	return func(c *colConfig) { c.existing = ix }
}

// AsRegion makes the column a region referencing rows of target, which
// may be nil and set later.
func AsRegion(target *DynamicTable) ColumnOption {
	return func(c *colConfig) {
		c.region = true
		c.regionTo = target
	}
}

// AsEnum makes the column dictionary-encoded.
func AsEnum() ColumnOption {
	return func(c *colConfig) { c.enum = true }
}

// WithEnumElements presets the dictionary for an enum column.
func WithEnumElements(vals any) ColumnOption {
	return func(c *colConfig) {
		c.enum = true
		c.elements = vals
	}
}

// WithColumnTermSet restricts the column to a controlled vocabulary.
// Supplied data is validated against it.
func WithColumnTermSet(ts *termset.TermSet) ColumnOption {
	return func(c *colConfig) { c.terms = ts }
}

// AddColumn adds a column to the table. The column's effective length
// must equal the current row count; nothing about the table changes
// when an error is returned.
func (t *DynamicTable) AddColumn(name, description string, opts ...ColumnOption) error {
	var cfg colConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, dup := t.colids[name]; dup {
		return colerr.Newf(colerr.ErrCategoryTable, colerr.CodeDuplicateColumn,
			"column '%s' already exists in DynamicTable '%s'", name, t.Name())
	}

	if spec, pre := t.uninit[name]; pre {
		t.reconcileSpec(name, spec, &cfg)
	}
	if cfg.region && cfg.enum {
		return colerr.Newf(colerr.ErrCategoryTable, colerr.CodeConflictingColumnKind,
			"column '%s' cannot be both a table region and an enum", name)
	}
	if cfg.existing != nil {
		logger.Warn().
			Str("table", t.Name()).
			Str("column", name).
			Msg("attaching a prebuilt index column may behave unexpectedly; prefer ragged levels")
	}

	arr, err := asColumnData(cfg.data)
	if err != nil {
		return err
	}

	flat := arr
	var offsets [][]uint64
	if cfg.levels > 0 && arr.Len() > 0 {
		flat, offsets, err = flattenRagged(arr, cfg.levels)
		if err != nil {
			return err
		}
	}

	if cfg.terms != nil {
		if err := checkTerms(cfg.terms, flat); err != nil {
			return err
		}
	}

	col, extra, err := t.buildColumn(name, description, flat, &cfg)
	if err != nil {
		return err
	}

	outer, newCols, err := wrapRagged(name, col, offsets, &cfg)
	if err != nil {
		return err
	}
	newCols = append(newCols, extra...)

	if outer.Len() != t.id.Len() {
		return colerr.Newf(colerr.ErrCategoryTable, colerr.CodeLengthMismatch,
			"column '%s' must have the same length as the table (%d rows, got %d)",
			name, t.id.Len(), outer.Len())
	}

	for _, c := range newCols {
		if err := t.adopt(c); err != nil {
			return err
		}
	}
	t.columns = append(t.columns, newCols...)
	t.colnames = append(t.colnames, name)
	t.colids[name] = len(t.dfCols)
	t.dfCols = append(t.dfCols, outer)
	for _, c := range newCols {
		if ix, ok := c.(*column.VectorIndex); ok {
			t.indices[ix.Name()] = ix
		}
	}
	delete(t.uninit, name)
	t.warnReserved(name)
	t.SetModified(true)
	return nil
}

// reconcileSpec resolves drift between a predeclared column and the
// settings requested at materialization time. The declaration wins.
func (t *DynamicTable) reconcileSpec(name string, spec ColumnSpec, cfg *colConfig) {
	if cfg.levels != spec.Index && cfg.existing == nil {
		logger.Warn().
			Str("table", t.Name()).
			Str("column", name).
			Int("declared_levels", spec.Index).
			Int("requested_levels", cfg.levels).
			Msg("column is predeclared with a different index setting; the declaration wins")
		cfg.levels = spec.Index
	}
	if cfg.region != spec.Table {
		logger.Warn().
			Str("table", t.Name()).
			Str("column", name).
			Bool("declared_region", spec.Table).
			Msg("column is predeclared with a different region setting; the declaration wins")
		cfg.region = spec.Table
	}
	if cfg.enum != spec.Enum {
		logger.Warn().
			Str("table", t.Name()).
			Str("column", name).
			Bool("declared_enum", spec.Enum).
			Msg("column is predeclared with a different enum setting; the declaration wins")
		cfg.enum = spec.Enum
	}
	if cfg.terms == nil {
		cfg.terms = spec.TermSet
	}
}

// buildColumn creates the base column over flat data. For enum columns
// it returns the element column as an extra storage column.
func (t *DynamicTable) buildColumn(name, description string, flat types.Array, cfg *colConfig) (column.Column, []column.Column, error) {
	switch {
	case cfg.enum:
		var elements *column.VectorData
		if cfg.elements != nil {
			earr, err := types.AsArray(cfg.elements)
			if err != nil {
				return nil, nil, colerr.Wrap(colerr.ErrCategoryValidation, colerr.CodeInvalidColumnSpec,
					"enum elements for column '"+name+"'", err)
			}
			elements, err = column.NewVectorData(name+"_elements",
				fmt.Sprintf("fixed set of elements referenced by %s", name), earr)
			if err != nil {
				return nil, nil, err
			}
		}
		e, err := column.NewEnumData(name, description, nil, elements)
		if err != nil {
			return nil, nil, err
		}
		for i := 0; i < flat.Len(); i++ {
			if err := e.AddRow(flat.Value(i)); err != nil {
				return nil, nil, err
			}
		}
		return e, []column.Column{e.Elements()}, nil

	case cfg.region:
		r, err := NewDynamicTableRegion(name, description, flat, cfg.regionTo)
		if err != nil {
			return nil, nil, err
		}
		return r, nil, nil

	default:
		var opts []column.Option
		if cfg.terms != nil {
			opts = append(opts, column.WithTermSet(cfg.terms))
		}
		v, err := column.NewVectorData(name, description, flat, opts...)
		if err != nil {
			return nil, nil, err
		}
		return v, nil, nil
	}
}

// wrapRagged builds the index chain over col. It returns the column to
// expose as the public slot and the storage columns in order, index
// chain outermost first.
func wrapRagged(name string, col column.Column, offsets [][]uint64, cfg *colConfig) (column.Column, []column.Column, error) {
	if cfg.existing != nil {
		return cfg.existing, []column.Column{cfg.existing, col}, nil
	}
	if cfg.levels == 0 {
		return col, []column.Column{col}, nil
	}

	cur := col
	newCols := []column.Column{col}
	ixName := name
	for i := 0; i < cfg.levels; i++ {
		ixName += "_index"
		var offs []uint64
		if offsets != nil {
			offs = offsets[len(offsets)-1-i]
		}
		ix, err := column.NewVectorIndex(ixName, offs, cur)
		if err != nil {
			return nil, nil, err
		}
		newCols = append([]column.Column{ix}, newCols...)
		cur = ix
	}
	return cur, newCols, nil
}

// asColumnData normalizes AddColumn payloads. A nil payload starts the
// column empty.
func asColumnData(data any) (types.Array, error) {
	if data == nil {
		return types.NewAnyArray(), nil
	}
	arr, err := types.AsArray(data)
	if err != nil {
		return nil, colerr.Wrap(colerr.ErrCategoryValidation, colerr.CodeInvalidData,
			"column data", err)
	}
	return arr, nil
}

// flattenRagged flattens levels of nesting out of data, recording the
// cumulative end offsets at each level. offsets[0] is the outermost
// level. Every element at every flattened level must itself be
// list-like.
func flattenRagged(data types.Array, levels int) (types.Array, [][]uint64, error) {
	cur := data
	offsets := make([][]uint64, 0, levels)
	for l := 0; l < levels; l++ {
		offs := make([]uint64, 0, cur.Len())
		var next []any
		var total uint64
		for i := 0; i < cur.Len(); i++ {
			el, ok := nestedElem(cur.Value(i))
			if !ok {
				return nil, nil, colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeInvalidColumnSpec,
					"cannot build a %d-level index: element %d at level %d is not list-like", levels, i, l)
			}
			total += uint64(el.Len())
			offs = append(offs, total)
			next = append(next, el.Values()...)
		}
		offsets = append(offsets, offs)
		flat, err := types.AsArray(next)
		if err != nil {
			return nil, nil, err
		}
		cur = flat
	}
	return cur, offsets, nil
}

func nestedElem(v any) (types.Array, bool) {
	if v == nil {
		return nil, false
	}
	switch v.(type) {
	case string, bool, int, int64, uint64, float64, float32, int32, uint32:
		return nil, false
	}
	arr, err := types.AsArray(v)
	if err != nil {
		return nil, false
	}
	return arr, true
}

// checkTerms validates every value of flat against the vocabulary and
// reports all rejects in one error.
func checkTerms(ts *termset.TermSet, flat types.Array) error {
	var bad []string
	for i := 0; i < flat.Len(); i++ {
		v := flat.Value(i)
		if !ts.Validate(v) {
			bad = append(bad, fmt.Sprintf("%v", v))
		}
	}
	if len(bad) > 0 {
		return colerr.Newf(colerr.ErrCategoryColumn, colerr.CodeTermSetRejected,
			"%s is not in the term set", strings.Join(bad, ", "))
	}
	return nil
}
