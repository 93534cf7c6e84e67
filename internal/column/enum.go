package column

import (
	"fmt"

	colerr "github.com/colonnade/colonnade/internal/errors"
	"github.com/colonnade/colonnade/internal/container"
	"github.com/colonnade/colonnade/pkg/types"
)

// EnumData is a dictionary-encoded column: each row stores an integer
// code referencing a shared dictionary of distinct values (elements).
// Codes are packed at the narrowest width able to encode the dictionary
// size and re-encode transparently when the dictionary grows past a
// width boundary.
type EnumData struct {
	container.Base
	codes    *UintVector
	elements *VectorData
	revidx   map[any]uint64
}

// NewEnumData creates an enum column. A nil elements dictionary creates
// an empty one named "<name>_elements". Initial codes must reference
// existing dictionary entries.
func NewEnumData(name, description string, codes []uint64, elements *VectorData) (*EnumData, error) {
	base, err := container.NewBase(name,
		container.FieldSpec{Name: "description", Doc: "a description for this column", Settable: true},
		container.FieldSpec{Name: "elements", Doc: "lookup values for each code in data", Settable: true},
	)
	if err != nil {
		return nil, err
	}
	if elements == nil {
		elements, err = NewVectorData(name+"_elements", fmt.Sprintf("fixed set of elements referenced by %s", name), nil)
		if err != nil {
			return nil, err
		}
	}
	e := &EnumData{
		Base:     base,
		codes:    NewUintVector(),
		elements: elements,
		revidx:   make(map[any]uint64),
	}
	if err := container.SetField(e, "description", description); err != nil {
		return nil, err
	}
	if err := container.SetField(e, "elements", elements); err != nil {
		return nil, err
	}
	for i := 0; i < elements.Len(); i++ {
		e.revidx[elements.Array().Value(i)] = uint64(i)
	}
	if err := e.codes.EnsureWidth(codeWidth(elements.Len())); err != nil {
		return nil, err
	}
	for _, c := range codes {
		if int(c) >= elements.Len() {
			return nil, colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeInvalidColumnSpec,
				"code %d out of range for %d elements", c, elements.Len())
		}
		if err := e.codes.Append(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// codeWidth returns the storage width in bytes needed to encode a
// dictionary of n elements.
func codeWidth(n int) int {
	if n <= 1 {
		return 1
	}
	return widthFor(uint64(n - 1))
}

// Elements returns the dictionary column.
func (e *EnumData) Elements() *VectorData { return e.elements }

// Description returns the column description.
func (e *EnumData) Description() string {
	s, _ := e.Fields().Get("description").(string)
	return s
}

// Len returns the number of encoded rows.
func (e *EnumData) Len() int { return e.codes.Len() }

// Codes returns the decoded code values.
func (e *EnumData) Codes() []uint64 { return e.codes.Values() }

// CodeWidth returns the current code storage width in bytes.
func (e *EnumData) CodeWidth() int { return e.codes.Width() }

// AddRow appends a term. Unknown terms are added to the dictionary in
// first-occurrence order; if the dictionary growth crosses a width
// boundary, all existing codes are re-encoded first.
func (e *EnumData) AddRow(val any) error {
	code, err := e.addTerm(val)
	if err != nil {
		return err
	}
	if err := e.codes.Append(code); err != nil {
		return err
	}
	e.SetModified(true)
	return nil
}

// CanEncode reports whether a term is already in the dictionary or
// could be added to it, without mutating the column.
func (e *EnumData) CanEncode(term any) bool {
	if _, ok := e.revidx[term]; ok {
		return true
	}
	return types.CanAppend(e.elements.Array(), term)
}

// AddCode appends a pre-encoded code without dictionary lookup.
func (e *EnumData) AddCode(code uint64) error {
	if int(code) >= e.elements.Len() {
		return colerr.Newf(colerr.ErrCategoryColumn, colerr.CodeInvalidData,
			"code %d out of range for %d elements", code, e.elements.Len())
	}
	if err := e.codes.Append(code); err != nil {
		return err
	}
	e.SetModified(true)
	return nil
}

// Extend appends each element of vals through term encoding.
func (e *EnumData) Extend(vals types.Array) error {
	for i := 0; i < vals.Len(); i++ {
		if err := e.AddRow(vals.Value(i)); err != nil {
			return err
		}
	}
	return nil
}

func (e *EnumData) addTerm(term any) (uint64, error) {
	if code, ok := e.revidx[term]; ok {
		return code, nil
	}
	if err := e.elements.Append(term); err != nil {
		return 0, err
	}
	code := uint64(e.elements.Len() - 1)
	e.revidx[term] = code
	if err := e.codes.EnsureWidth(codeWidth(e.elements.Len())); err != nil {
		return 0, err
	}
	return code, nil
}

// Get selects rows and dereferences codes to dictionary elements.
func (e *EnumData) Get(ix types.Index) (any, error) {
	return e.get(ix, false)
}

// GetCodes selects rows and returns raw codes without dereferencing.
func (e *EnumData) GetCodes(ix types.Index) (any, error) {
	return e.get(ix, true)
}

func (e *EnumData) get(ix types.Index, raw bool) (any, error) {
	n := e.codes.Len()
	if at, ok := ix.(types.At); ok {
		i := int(at)
		if i < 0 || i >= n {
			return nil, e.outOfRange(i, n)
		}
		code := e.codes.At(i)
		if raw {
			return code, nil
		}
		return e.elements.Get(types.At(int(code)))
	}
	pos, err := types.Positions(ix, n)
	if err != nil {
		return nil, colerr.Wrap(colerr.ErrCategorySelection, colerr.CodeUnsupportedSelection,
			"selecting from '"+e.Name()+"'", err)
	}
	for _, p := range pos {
		if p < 0 || p >= n {
			return nil, e.outOfRange(p, n)
		}
	}
	if raw {
		out := types.NewAnyArray()
		for _, p := range pos {
			_ = out.Append(e.codes.At(p))
		}
		return out, nil
	}
	codePos := make([]int, len(pos))
	for i, p := range pos {
		codePos[i] = int(e.codes.At(p))
	}
	return e.elements.Array().Gather(codePos), nil
}

func (e *EnumData) outOfRange(i, n int) error {
	return colerr.Newf(colerr.ErrCategorySelection, colerr.CodeRowIndexOutOfRange,
		"index %d out of range for '%s' (length %d)", i, e.Name(), n)
}
