package build

import (
	json "github.com/goccy/go-json"

	colerr "github.com/colonnade/colonnade/internal/errors"
)

// EncodeJSON serializes a builder tree.
func EncodeJSON(g *GroupBuilder) ([]byte, error) {
	out, err := json.Marshal(g)
	if err != nil {
		return nil, colerr.Wrap(colerr.ErrCategoryStorage, colerr.CodeInvalidData,
			"encoding builder tree", err)
	}
	return out, nil
}

// DecodeJSON deserializes a builder tree.
func DecodeJSON(data []byte) (*GroupBuilder, error) {
	var g GroupBuilder
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, colerr.Wrap(colerr.ErrCategoryStorage, colerr.CodeInvalidData,
			"decoding builder tree", err)
	}
	return &g, nil
}
