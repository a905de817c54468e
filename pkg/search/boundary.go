package search

import (
	"fmt"

	"pixelsearch/internal/models"
)

// MatchRaw runs Match on flat sample slices with explicit (depth, rows, cols)
// dimensions and returns (z, y, x, score). An error is returned only for
// malformed input; search-level degeneracies are reported through the score
// exactly as Match does.
func MatchRaw(refDims [3]int, refData []float32, searchDims [3]int, searchData []float32) ([4]float32, error) {
	ref, err := models.NewVolume(dimsOf(refDims), refData)
	if err != nil {
		return [4]float32{}, fmt.Errorf("reference: %w", err)
	}
	search, err := models.NewVolume(dimsOf(searchDims), searchData)
	if err != nil {
		return [4]float32{}, fmt.Errorf("search: %w", err)
	}
	return Match(ref, search).Array(), nil
}

func dimsOf(d [3]int) models.Dims {
	return models.Dims{Depth: d[0], Rows: d[1], Cols: d[2]}
}
