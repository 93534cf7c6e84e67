package table

import (
	"fmt"
	"sort"
	"strings"

	colerr "github.com/colonnade/colonnade/internal/errors"
	"github.com/colonnade/colonnade/internal/column"
	"github.com/colonnade/colonnade/internal/termset"
	"github.com/colonnade/colonnade/pkg/types"
)

type rowConfig struct {
	id      int64
	hasID   bool
	enforce bool
}

// RowOption configures AddRow.
type RowOption func(*rowConfig)

// WithRowID sets the new row's identifier explicitly. It takes
// precedence over an "id" key in the row data.
func WithRowID(id int64) RowOption {
	return func(c *rowConfig) {
		c.id = id
		c.hasID = true
	}
}

// EnforceUniqueID rejects the row if its identifier already exists.
func EnforceUniqueID() RowOption {
	return func(c *rowConfig) { c.enforce = true }
}

// AddRow appends one row across all columns. Every initialized column
// must receive a value and every key must name a column; an optional
// predeclared column named in data materializes first, which is only
// possible while the table is empty. Validation happens before any
// column is touched, so a rejected row leaves the table unchanged.
func (t *DynamicTable) AddRow(data map[string]any, opts ...RowOption) error {
	var cfg rowConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	row := make(map[string]any, len(data))
	for k, v := range data {
		row[k] = v
	}
	if v, ok := row["id"]; ok && !cfg.hasID {
		id, ok := types.AsInt64(v)
		if !ok {
			return colerr.Newf(colerr.ErrCategoryTable, colerr.CodeInvalidData,
				"row id %v is not an integer", v)
		}
		cfg.id = id
		cfg.hasID = true
	}
	delete(row, "id")

	var missing, extra []string
	var materialize []string
	for name := range row {
		if _, ok := t.colids[name]; ok {
			continue
		}
		if _, ok := t.uninit[name]; ok {
			materialize = append(materialize, name)
			continue
		}
		extra = append(extra, name)
	}
	for name := range t.colids {
		if _, ok := row[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return rowShapeError(t.Name(), missing, extra)
	}

	// An uninitialized optional column can only come up to the table's
	// row count by materializing while the table is empty.
	if len(materialize) > 0 && t.id.Len() > 0 {
		sort.Strings(materialize)
		return colerr.Newf(colerr.ErrCategoryTable, colerr.CodeLengthMismatch,
			"cannot initialize columns %v on a table with %d rows", materialize, t.id.Len())
	}

	if err := t.checkRowTerms(row, materialize); err != nil {
		return err
	}
	if err := t.validateCells(row, materialize); err != nil {
		return err
	}

	if !cfg.hasID {
		cfg.id = int64(t.id.Len())
	}
	if cfg.enforce && t.id.Contains(cfg.id) {
		return colerr.Newf(colerr.ErrCategoryTable, colerr.CodeDuplicateID,
			"id %d already in the table", cfg.id)
	}

	sort.Strings(materialize)
	for _, name := range materialize {
		spec := t.uninit[name]
		if err := t.AddColumn(name, spec.Description, specOptions(spec)...); err != nil {
			return err
		}
	}

	if err := t.id.AppendID(cfg.id); err != nil {
		return err
	}
	for _, name := range t.colnames {
		c := t.dfCols[t.colids[name]]
		if err := c.AddRow(row[name]); err != nil {
			return err
		}
	}
	t.SetModified(true)
	return nil
}

// vocabulary is satisfied by columns that can carry a term set.
type vocabulary interface {
	TermSet() *termset.TermSet
}

// checkRowTerms validates row values against column vocabularies and
// reports every reject in one error. Index chains resolve to their base
// column, so ragged values are checked leaf by leaf before anything is
// appended.
func (t *DynamicTable) checkRowTerms(row map[string]any, materialize []string) error {
	var bad []string
	for _, name := range t.colnames {
		c := t.dfCols[t.colids[name]]
		depth := 0
		for {
			ix, ok := c.(*column.VectorIndex)
			if !ok {
				break
			}
			c = ix.Target()
			depth++
		}
		vd, ok := c.(vocabulary)
		if !ok || vd.TermSet() == nil {
			continue
		}
		collectRejects(vd.TermSet(), row[name], depth, &bad)
	}
	for _, name := range materialize {
		spec := t.uninit[name]
		if spec.TermSet == nil {
			continue
		}
		collectRejects(spec.TermSet, row[name], spec.Index, &bad)
	}
	if len(bad) > 0 {
		return colerr.Newf(colerr.ErrCategoryColumn, colerr.CodeTermSetRejected,
			"%s is not in the term set", strings.Join(bad, ", "))
	}
	return nil
}

// collectRejects walks depth levels of nesting and records every leaf
// not in the vocabulary. Malformed nesting is left to the cell check.
func collectRejects(ts *termset.TermSet, val any, depth int, bad *[]string) {
	if depth == 0 {
		if !ts.Validate(val) {
			*bad = append(*bad, fmt.Sprintf("%v", val))
		}
		return
	}
	arr, err := types.AsArray(val)
	if err != nil {
		return
	}
	for i := 0; i < arr.Len(); i++ {
		collectRejects(ts, arr.Value(i), depth-1, bad)
	}
}

// validateCells type-checks every row value against its column before
// the commit loop runs. Nothing mutates until all values are known to be
// acceptable, so a rejected row cannot leave columns at differing
// lengths.
func (t *DynamicTable) validateCells(row map[string]any, materialize []string) error {
	for _, name := range t.colnames {
		c := t.dfCols[t.colids[name]]
		if err := validateCell(c, row[name]); err != nil {
			return err
		}
	}
	for _, name := range materialize {
		if err := validateSpecCell(t.uninit[name], row[name]); err != nil {
			return err
		}
	}
	return nil
}

func validateCell(c column.Column, val any) error {
	switch col := c.(type) {
	case *column.VectorIndex:
		arr, err := types.AsArray(val)
		if err != nil {
			return colerr.Wrap(colerr.ErrCategoryColumn, colerr.CodeInvalidData,
				"adding vector to '"+col.Name()+"'", err)
		}
		for i := 0; i < arr.Len(); i++ {
			if err := validateCell(col.Target(), arr.Value(i)); err != nil {
				return err
			}
		}
		return nil
	case *DynamicTableRegion:
		_, err := col.checkPosition(val)
		return err
	case *column.EnumData:
		if !col.CanEncode(val) {
			return colerr.Newf(colerr.ErrCategoryColumn, colerr.CodeInvalidData,
				"%v cannot join the dictionary of '%s'", val, col.Name())
		}
		return nil
	case *column.VectorData:
		if !types.CanAppend(col.Array(), val) {
			return colerr.Newf(colerr.ErrCategoryColumn, colerr.CodeInvalidData,
				"cannot append %T to %s column '%s'", val, col.Array().Kind(), col.Name())
		}
		return nil
	default:
		return nil
	}
}

// validateSpecCell shape-checks a value destined for a column that will
// materialize from its declaration during this add.
func validateSpecCell(spec ColumnSpec, val any) error {
	return validateSpecLevels(spec, val, spec.Index)
}

func validateSpecLevels(spec ColumnSpec, val any, depth int) error {
	if depth == 0 {
		if spec.Table {
			if _, ok := types.AsInt64(val); !ok {
				return colerr.Newf(colerr.ErrCategoryColumn, colerr.CodeInvalidData,
					"region value %v is not a row position", val)
			}
		}
		return nil
	}
	arr, err := types.AsArray(val)
	if err != nil {
		return colerr.Wrap(colerr.ErrCategoryColumn, colerr.CodeInvalidData,
			"value for ragged column '"+spec.Name+"'", err)
	}
	for i := 0; i < arr.Len(); i++ {
		if err := validateSpecLevels(spec, arr.Value(i), depth-1); err != nil {
			return err
		}
	}
	return nil
}

// rowShapeError reports missing and unexpected row keys together so the
// caller sees the full mismatch at once.
func rowShapeError(table string, missing, extra []string) error {
	sort.Strings(missing)
	sort.Strings(extra)
	var b strings.Builder
	fmt.Fprintf(&b, "row data keys do not match the columns of DynamicTable '%s'", table)
	if len(extra) > 0 {
		fmt.Fprintf(&b, "; %d extra key(s): %v", len(extra), extra)
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "; %d missing key(s): %v", len(missing), missing)
	}
	code := colerr.CodeMissingColumn
	if len(missing) == 0 {
		code = colerr.CodeUnexpectedColumn
	}
	return colerr.New(colerr.ErrCategoryTable, code, b.String())
}
