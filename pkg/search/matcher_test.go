package search

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"pixelsearch/internal/models"
)

func TestMatcherGreyThreshold(t *testing.T) {
	ref := newVolume(t, 2, 2, 2, []float32{1, 2, 3, 4, 5, 6, 7, 8})
	search := newVolume(t, 3, 3, 3, make([]float32, 27))
	embed(search, ref, models.Offset{Z: 1, Y: 1, X: 1})

	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"gating disabled", Params{NumCores: 1}, false},
		{"bounds ignored without gate", Params{NumCores: 2, GreyLow: 5, GreyHigh: 10}, false},
		{"mean inside range", Params{NumCores: 2, Gate: true, GreyLow: 4, GreyHigh: 5}, false},
		{"mean on upper bound", Params{NumCores: 2, Gate: true, GreyLow: 0, GreyHigh: 4.5}, false},
		{"mean below range", Params{NumCores: 2, Gate: true, GreyLow: 5, GreyHigh: 10}, true},
		{"mean above range", Params{NumCores: 2, Gate: true, GreyLow: 0.5, GreyHigh: 4}, true},
		{"zero-width range", Params{NumCores: 2, Gate: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := tt.params
			res, err := NewMatcher(&params).MatchNode(ref, search)
			if tt.wantErr {
				if !errors.Is(err, ErrGreyThreshold) {
					t.Fatalf("Expected ErrGreyThreshold, got %v", err)
				}
				if res.Valid {
					t.Errorf("Expected no search on rejection, got %+v", res)
				}
				return
			}
			if err != nil {
				t.Fatalf("MatchNode: %v", err)
			}
			if res.Offset != (models.Offset{Z: 1, Y: 1, X: 1}) {
				t.Errorf("Expected offset (1,1,1), got %+v", res.Offset)
			}
			if !scalar.EqualWithinAbs(float64(res.Score), 1, tol) {
				t.Errorf("Expected score ~1.0, got %f", res.Score)
			}
		})
	}
}

func TestMeanOf(t *testing.T) {
	if got := meanOf([]float32{1, 2, 3, 6}); got != 3 {
		t.Errorf("Expected mean 3, got %f", got)
	}
	if got := meanOf(nil); got != 0 {
		t.Errorf("Expected mean 0 for empty data, got %f", got)
	}
}
