// Package search implements exhaustive integer-offset template matching of a
// reference volume inside a larger search volume, scored by normalized
// cross-correlation (NCC).
package search

import (
	"errors"
	"fmt"
	"math"

	"pixelsearch/internal/models"
)

// ErrDimsMismatch is returned when two windows compared directly differ in size
var ErrDimsMismatch = errors.New("window dimensions differ")

// Sums holds the three NCC accumulators for one candidate placement.
//
//	A = sum(ref * search)
//	B = sum(ref * ref)
//	C = sum(search * search)
//
// They are accumulated in double precision regardless of the float32 input.
type Sums struct {
	A, B, C float64
}

// Score assembles the accumulators into an NCC value.
// A zero B or C gives 0/0 and therefore NaN; it is not guarded.
func (s Sums) Score() float32 {
	return float32(s.A / math.Sqrt(s.B*s.C))
}

// CandidateRange returns the number of valid offsets along each axis when
// placing ref inside search. The second result is false when the range is
// empty along any axis, in which case no candidate may be evaluated.
func CandidateRange(ref, search models.Dims) (models.Dims, bool) {
	r := models.Dims{
		Depth: search.Depth - ref.Depth + 1,
		Rows:  search.Rows - ref.Rows + 1,
		Cols:  search.Cols - ref.Cols + 1,
	}
	if r.Depth <= 0 || r.Rows <= 0 || r.Cols <= 0 {
		return models.Dims{}, false
	}
	return r, true
}

// Accumulate computes the NCC accumulators of ref placed at off inside search.
// The caller guarantees that off lies within CandidateRange.
func Accumulate(ref, search *models.Volume, off models.Offset) Sums {
	var s Sums
	cols := ref.Cols
	for k := 0; k < ref.Depth; k++ {
		for j := 0; j < ref.Rows; j++ {
			refRow := ref.Data[ref.Index(k, j, 0):][:cols]
			srcRow := search.Data[search.Index(k+off.Z, j+off.Y, off.X):][:cols]
			for i, r := range refRow {
				rv := float64(r)
				sv := float64(srcRow[i])
				s.A += rv * sv
				s.B += rv * rv
				s.C += sv * sv
			}
		}
	}
	return s
}

// CalculateNCC returns the NCC of two equally sized windows in double precision
func CalculateNCC(a, b *models.Volume) (float64, error) {
	if a.Dims != b.Dims {
		return 0, fmt.Errorf("%w: %s vs %s", ErrDimsMismatch, a.Dims, b.Dims)
	}
	s := Accumulate(a, b, models.Offset{})
	return s.A / math.Sqrt(s.B*s.C), nil
}
