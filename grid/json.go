package grid

import (
	"encoding/json"
	"errors"
	"io"
	"io/ioutil"
)

var errNotRectangular = errors.New("grid: rows have differing lengths")

// ErrInvalidCode is returned by ReadJSON for a cell that isn't a terrain code
var ErrInvalidCode = errors.New("grid: invalid terrain code")

// WriteJSON writes g to w as a bare array of arrays of integers with no
// surrounding whitespace
func (g Grid) WriteJSON(w io.Writer) error {
	b, err := json.Marshal(g)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ReadJSON reads a grid previously written with WriteJSON. Dimensions are
// inferred from the array lengths.
func ReadJSON(r io.Reader) (Grid, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var g Grid
	if err := json.Unmarshal(b, &g); err != nil {
		return nil, err
	}

	if len(g) == 0 {
		return nil, ErrEmpty
	}
	for _, row := range g {
		if len(row) != len(g[0]) {
			return nil, errNotRectangular
		}
		for _, code := range row {
			if !code.Valid() {
				return nil, ErrInvalidCode
			}
		}
	}

	return g, nil
}
