// Package spaces describes the shape and bounds of environment actions,
// observations, and goals.
package spaces

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Box is a bounded continuous space. Low and High have equal length and
// element-wise Low <= High.
type Box struct {
	low  *mat.VecDense
	high *mat.VecDense
}

// NewBox builds a Box from element-wise bounds.
func NewBox(low, high []float64) (Box, error) {
	if len(low) == 0 || len(low) != len(high) {
		return Box{}, fmt.Errorf("box bounds must be non-empty and equal length: %d vs %d", len(low), len(high))
	}
	for i := range low {
		if low[i] > high[i] {
			return Box{}, fmt.Errorf("box bound %d inverted: low %v > high %v", i, low[i], high[i])
		}
	}
	return Box{
		low:  mat.NewVecDense(len(low), append([]float64(nil), low...)),
		high: mat.NewVecDense(len(high), append([]float64(nil), high...)),
	}, nil
}

// NewUnitBox builds an n-dimensional Box bounded to [0, 1].
func NewUnitBox(n int) (Box, error) {
	low := make([]float64, n)
	high := make([]float64, n)
	for i := range high {
		high[i] = 1
	}
	return NewBox(low, high)
}

// Shape returns the dimensionality of the space.
func (b Box) Shape() int {
	if b.low == nil {
		return 0
	}
	return b.low.Len()
}

// Low returns the lower bound vector.
func (b Box) Low() *mat.VecDense { return b.low }

// High returns the upper bound vector.
func (b Box) High() *mat.VecDense { return b.high }

// Contains reports whether x has the space's shape and lies within bounds.
func (b Box) Contains(x *mat.VecDense) bool {
	if x == nil || x.Len() != b.Shape() {
		return false
	}
	for i := 0; i < x.Len(); i++ {
		v := x.AtVec(i)
		if v < b.low.AtVec(i) || v > b.high.AtVec(i) {
			return false
		}
	}
	return true
}

// Sample draws a uniform vector from the space.
func (b Box) Sample(rng *rand.Rand) *mat.VecDense {
	out := mat.NewVecDense(b.Shape(), nil)
	for i := 0; i < out.Len(); i++ {
		lo, hi := b.low.AtVec(i), b.high.AtVec(i)
		out.SetVec(i, lo+rng.Float64()*(hi-lo))
	}
	return out
}

// Discrete is a finite space {0 .. N-1}.
type Discrete struct {
	N int
}

// Contains reports whether v is a valid action index.
func (d Discrete) Contains(v int) bool {
	return v >= 0 && v < d.N
}

// Sample draws a uniform action index.
func (d Discrete) Sample(rng *rand.Rand) int {
	return rng.Intn(d.N)
}
