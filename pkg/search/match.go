package search

import (
	"sync"

	"pixelsearch/internal/models"
)

// best tracks the running maximum over a run of candidates
type best struct {
	offset   models.Offset
	score    float32
	improved bool
}

// beats reports whether b should replace cur when merging partial maxima:
// a strictly higher score, or an equal score at an earlier offset.
func (b best) beats(cur best) bool {
	if b.score != cur.score {
		return b.score > cur.score
	}
	return cur.improved && b.offset.Less(cur.offset)
}

// offsetAt decodes a flat candidate index into an offset. Flat indices
// ascend in the same order as the nested z, y, x enumeration.
func offsetAt(rng models.Dims, i int) models.Offset {
	plane := rng.Rows * rng.Cols
	return models.Offset{
		Z: i / plane,
		Y: (i % plane) / rng.Cols,
		X: i % rng.Cols,
	}
}

// scan evaluates candidates [lo, hi) in enumeration order. Starting from a
// zero score, a candidate replaces the current best only when strictly
// greater, so the first maximum wins and NaN never wins.
func scan(ref, search *models.Volume, rng models.Dims, lo, hi int) best {
	var b best
	for i := lo; i < hi; i++ {
		off := offsetAt(rng, i)
		cc := Accumulate(ref, search, off).Score()
		if cc > b.score {
			b = best{offset: off, score: cc, improved: true}
		}
	}
	return b
}

// Match performs the exhaustive NCC search of ref inside search.
//
// Every offset (z, y, x) with z in [0, D2-D1], y in [0, R2-R1] and
// x in [0, C2-C1] is scored, z outermost and x innermost. The returned
// offset is the first one reaching the maximum score. When no candidate
// scores above 0, or the range is empty, the result is offset (0,0,0) with
// score 0; Valid distinguishes the two cases.
func Match(ref, search *models.Volume) models.Result {
	rng, ok := CandidateRange(ref.Dims, search.Dims)
	if !ok {
		return models.Result{}
	}
	n := rng.Len()
	b := scan(ref, search, rng, 0, n)
	return models.Result{Offset: b.offset, Score: b.score, Valid: true, Candidates: n}
}

// MatchParallel is Match with the candidate space split into contiguous
// chunks, one goroutine per chunk. Equal partial maxima are resolved in
// favour of the smaller (z, y, x), so the result, tie-break included, is
// identical to Match.
func MatchParallel(ref, search *models.Volume, workers int) models.Result {
	if workers <= 1 {
		return Match(ref, search)
	}
	rng, ok := CandidateRange(ref.Dims, search.Dims)
	if !ok {
		return models.Result{}
	}

	n := rng.Len()
	if workers > n {
		workers = n
	}
	perWorker := (n + workers - 1) / workers

	partials := make([]best, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * perWorker
		hi := lo + perWorker
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}

		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			partials[w] = scan(ref, search, rng, lo, hi)
		}(w, lo, hi)
	}
	wg.Wait()

	var merged best
	for _, p := range partials {
		if p.improved && p.beats(merged) {
			merged = p
		}
	}
	return models.Result{Offset: merged.offset, Score: merged.score, Valid: true, Candidates: n}
}

// CorrelationMap returns the NCC score of every candidate offset as a volume
// shaped like the candidate range. Degenerate windows appear as NaN.
func CorrelationMap(ref, search *models.Volume) (*models.Volume, bool) {
	rng, ok := CandidateRange(ref.Dims, search.Dims)
	if !ok {
		return nil, false
	}
	scores := make([]float32, rng.Len())
	for i := range scores {
		scores[i] = Accumulate(ref, search, offsetAt(rng, i)).Score()
	}
	return &models.Volume{Data: scores, Dims: rng}, true
}
