package models

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

var (
	// ErrInvalidDims is returned when a volume dimension is negative
	ErrInvalidDims = errors.New("invalid volume dimensions")

	// ErrDataLength is returned when the sample count does not match the dimensions
	ErrDataLength = errors.New("volume data length does not match dimensions")
)

// Dims holds the size of a volume along each axis
type Dims struct {
	Depth int
	Rows  int
	Cols  int
}

// Len returns the number of samples a volume of these dimensions holds.
// It does not check for overflow; use Size for untrusted dimensions.
func (d Dims) Len() int {
	return d.Depth * d.Rows * d.Cols
}

// Size returns the sample count, failing with ErrInvalidDims when a
// dimension is negative or the product does not fit in an int.
func (d Dims) Size() (int, error) {
	if d.Depth < 0 || d.Rows < 0 || d.Cols < 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidDims, d)
	}
	n := uint(1)
	for _, k := range [3]int{d.Depth, d.Rows, d.Cols} {
		hi, lo := bits.Mul(n, uint(k))
		if hi != 0 || lo > math.MaxInt {
			return 0, fmt.Errorf("%w: %s overflows", ErrInvalidDims, d)
		}
		n = lo
	}
	return int(n), nil
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%dx%d", d.Depth, d.Rows, d.Cols)
}

// Volume is a dense 3D array of single-precision samples.
// The column index varies fastest: idx = z*Rows*Cols + y*Cols + x.
type Volume struct {
	// Data holds the samples in depth-major, row-major order
	Data []float32

	Dims
}

// NewVolume wraps data as a volume of the given dimensions.
// The slice is not copied.
func NewVolume(dims Dims, data []float32) (*Volume, error) {
	n, err := dims.Size()
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, fmt.Errorf("%w: got %d samples, want %d for %s",
			ErrDataLength, len(data), n, dims)
	}
	return &Volume{Data: data, Dims: dims}, nil
}

// Index returns the linear offset of sample (z, y, x)
func (v *Volume) Index(z, y, x int) int {
	return z*v.Rows*v.Cols + y*v.Cols + x
}

// At returns sample (z, y, x)
func (v *Volume) At(z, y, x int) float32 {
	return v.Data[v.Index(z, y, x)]
}

// Offset locates the reference origin inside the search volume
type Offset struct {
	Z, Y, X int
}

// Less orders offsets lexicographically by (Z, Y, X), which is the
// enumeration order of the search.
func (o Offset) Less(other Offset) bool {
	if o.Z != other.Z {
		return o.Z < other.Z
	}
	if o.Y != other.Y {
		return o.Y < other.Y
	}
	return o.X < other.X
}

// Result is the outcome of a template search
type Result struct {
	// Offset is the best placement found, (0,0,0) if none improved on the baseline
	Offset

	// Score is the NCC at Offset, 0 if no candidate scored above 0
	Score float32

	// Valid reports whether the candidate range was non-empty.
	// An invalid result still carries the zero baseline values.
	Valid bool

	// Candidates is the number of offsets evaluated
	Candidates int
}

// Finite reports whether Score is neither NaN nor infinite
func (r Result) Finite() bool {
	s := float64(r.Score)
	return !math.IsNaN(s) && !math.IsInf(s, 0)
}

// Array returns the four-value form (z, y, x, score)
func (r Result) Array() [4]float32 {
	return [4]float32{float32(r.Z), float32(r.Y), float32(r.X), r.Score}
}
