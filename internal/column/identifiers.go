package column

import (
	"sort"

	colerr "github.com/colonnade/colonnade/internal/errors"
	"github.com/colonnade/colonnade/internal/container"
	"github.com/colonnade/colonnade/pkg/types"
)

// ElementIdentifiers is a table's primary-key column: a flat list of
// int64 identifiers, one per row.
type ElementIdentifiers struct {
	container.Data
	ids *types.Int64Array
}

// NewElementIdentifiers creates an identifier column with the given
// initial ids.
func NewElementIdentifiers(name string, ids ...int64) (*ElementIdentifiers, error) {
	arr := types.NewInt64Array(ids...)
	d, err := container.NewData(name, arr)
	if err != nil {
		return nil, err
	}
	return &ElementIdentifiers{Data: d, ids: arr}, nil
}

// AppendID adds an identifier.
func (e *ElementIdentifiers) AppendID(id int64) error {
	return e.Append(id)
}

// Int64s returns the identifiers. The slice must not be mutated.
func (e *ElementIdentifiers) Int64s() []int64 { return e.ids.Int64s() }

// Contains reports whether id is present.
func (e *ElementIdentifiers) Contains(id int64) bool {
	for _, v := range e.ids.Int64s() {
		if v == id {
			return true
		}
	}
	return false
}

// Search returns the positions at which any of the requested ids occur,
// sorted ascending. The result is ordered by position, not by the
// caller's input order, and ids that do not occur contribute nothing;
// searching [3, 1, 5] against ids [1, 2, 3] yields [0, 2].
func (e *ElementIdentifiers) Search(requested []int64) []int {
	want := make(map[int64]struct{}, len(requested))
	for _, id := range requested {
		want[id] = struct{}{}
	}
	var out []int
	for i, v := range e.ids.Int64s() {
		if _, ok := want[v]; ok {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

// ID returns the identifier at row position i.
func (e *ElementIdentifiers) ID(i int) (int64, error) {
	ids := e.ids.Int64s()
	if i < 0 || i >= len(ids) {
		return 0, colerr.Newf(colerr.ErrCategorySelection, colerr.CodeRowIndexOutOfRange,
			"index %d out of range for '%s' (length %d)", i, e.Name(), len(ids))
	}
	return ids[i], nil
}

// Description allows an ElementIdentifiers to occupy a column slot.
func (e *ElementIdentifiers) Description() string {
	return "unique identifiers for the rows of this table"
}

// AddRow appends a value coerced to int64.
func (e *ElementIdentifiers) AddRow(val any) error {
	id, ok := types.AsInt64(val)
	if !ok {
		return colerr.Newf(colerr.ErrCategoryColumn, colerr.CodeInvalidData,
			"identifier %v is not an integer", val)
	}
	return e.Append(id)
}
