package search

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"pixelsearch/internal/models"
)

// ErrGreyThreshold is returned when the reference window's mean grey value
// lies outside the configured range. No correlation is attempted.
var ErrGreyThreshold = errors.New("reference mean outside grey threshold")

// Params holds the node matching parameters.
type Params struct {
	// NumCores specifies how many goroutines share the candidate space.
	// Values below 2 run the search sequentially.
	NumCores int

	// Gate enables the grey threshold check
	Gate bool

	// GreyLow and GreyHigh bound the admissible mean value of the reference
	// window when Gate is set. Both ends are inclusive.
	GreyLow  float64
	GreyHigh float64
}

// Matcher correlates one node at a time: a reference window cut around the
// node in the first image, and a larger search window in the second.
type Matcher struct {
	params *Params
}

// NewMatcher creates a matcher with the provided parameters
func NewMatcher(params *Params) *Matcher {
	return &Matcher{params: params}
}

// MatchNode checks the reference against the grey threshold and, if it
// passes, runs the exhaustive search.
func (m *Matcher) MatchNode(ref, search *models.Volume) (models.Result, error) {
	if m.params.Gate {
		mean := meanOf(ref.Data)
		if mean < m.params.GreyLow || mean > m.params.GreyHigh {
			return models.Result{}, fmt.Errorf("%w: mean %.4f not in [%.4f, %.4f]",
				ErrGreyThreshold, mean, m.params.GreyLow, m.params.GreyHigh)
		}
	}
	return MatchParallel(ref, search, m.params.NumCores), nil
}

func meanOf(data []float32) float64 {
	if len(data) == 0 {
		return 0
	}
	x := make([]float64, len(data))
	for i, v := range data {
		x[i] = float64(v)
	}
	return stat.Mean(x, nil)
}
