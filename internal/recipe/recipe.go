// Package recipe converts drink recipes between their structured form and the
// JSON text persisted on each drink record.
package recipe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed reports recipe data that is not a sequence of ingredient entries.
var ErrMalformed = errors.New("malformed recipe")

// Ingredient is a single entry of a recipe. Parts is a relative quantity.
type Ingredient struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Parts int    `json:"parts"`
}

// Encode serializes entries for storage. A nil recipe encodes as an empty list.
func Encode(entries []Ingredient) (string, error) {
	if entries == nil {
		entries = []Ingredient{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode recipe: %w", err)
	}
	return string(data), nil
}

// Decode parses stored recipe text back into its ordered entries.
func Decode(text string) ([]Ingredient, error) {
	var entries []Ingredient
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if entries == nil {
		return nil, fmt.Errorf("%w: not a list", ErrMalformed)
	}
	return entries, nil
}

// Normalize accepts a recipe as submitted by a client. A single ingredient
// object is wrapped into a one-element list.
func Normalize(raw json.RawMessage) ([]Ingredient, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformed)
	}

	var entries []Ingredient
	switch trimmed[0] {
	case '{':
		var single Ingredient
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		entries = []Ingredient{single}
	case '[':
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	default:
		return nil, fmt.Errorf("%w: expected object or list", ErrMalformed)
	}

	for i, entry := range entries {
		if entry.Parts <= 0 {
			return nil, fmt.Errorf("%w: entry %d has non-positive parts", ErrMalformed, i)
		}
	}
	return entries, nil
}
