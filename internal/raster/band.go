package raster

import (
	"math"

	"github.com/ctessum/sparse"
)

// Band is a named layer of a scene. NaN marks pixels without a value.
type Band struct {
	Name string
	Data *sparse.DenseArray
}

// NewBand allocates a band over g with every pixel set to NaN.
func NewBand(name string, g Grid) *Band {
	data := sparse.ZerosDense(g.Rows, g.Cols)
	for i := range data.Elements {
		data.Elements[i] = math.NaN()
	}
	return &Band{Name: name, Data: data}
}

// ConstantBand allocates a band holding v everywhere.
func ConstantBand(name string, g Grid, v float64) *Band {
	data := sparse.ZerosDense(g.Rows, g.Cols)
	for i := range data.Elements {
		data.Elements[i] = v
	}
	return &Band{Name: name, Data: data}
}

// At returns the value at flat index i.
func (b *Band) At(i int) float64 { return b.Data.Elements[i] }

// Renamed returns a band sharing b's values under another name.
func (b *Band) Renamed(name string) *Band {
	return &Band{Name: name, Data: b.Data}
}
