package search

import (
	"math"
	"slices"

	"github.com/poiesic/inventree/core"
)

// Fusion weights. They are fixed; exact identifier matches must dominate.
const (
	SparseWeight = 0.7
	DenseWeight  = 0.3
)

type candidate struct {
	unit       core.TextUnit
	score      float64
	sparseRank int
	denseRank  int
}

// Fuse merges a sparse and a dense ranking into at most k results.
//
// Each list is scaled by its own top score so both contribute on [0, 1];
// negative similarities count as 0. Units are merged by Key and score
// SparseWeight*s + DenseWeight*d, where a missing component is 0. Results
// are ordered by score, then by sparse rank, then by dense rank. Units whose
// fused score is 0 matched neither index and are dropped.
func Fuse(sparseHits, denseHits []core.RankedResult, k int) []core.RankedResult {
	if k <= 0 {
		return []core.RankedResult{}
	}

	merged := make(map[core.ID]*candidate, len(sparseHits)+len(denseHits))
	var order []*candidate

	add := func(hits []core.RankedResult, weight float64, sparseList bool) {
		top := topScore(hits)
		for rank, hit := range hits {
			c, ok := merged[hit.Unit.Key]
			if !ok {
				c = &candidate{unit: hit.Unit, sparseRank: math.MaxInt, denseRank: math.MaxInt}
				merged[hit.Unit.Key] = c
				order = append(order, c)
			}
			// A unit listed twice in one ranking counts once, at its best rank.
			if sparseList {
				if c.sparseRank != math.MaxInt {
					continue
				}
				c.sparseRank = rank
			} else {
				if c.denseRank != math.MaxInt {
					continue
				}
				c.denseRank = rank
			}
			if top > 0 && hit.Score > 0 {
				c.score += weight * hit.Score / top
			}
		}
	}
	add(sparseHits, SparseWeight, true)
	add(denseHits, DenseWeight, false)

	order = slices.DeleteFunc(order, func(c *candidate) bool { return c.score <= 0 })

	slices.SortStableFunc(order, func(a, b *candidate) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		case a.sparseRank != b.sparseRank:
			return compareInt(a.sparseRank, b.sparseRank)
		default:
			return compareInt(a.denseRank, b.denseRank)
		}
	})
	if len(order) > k {
		order = order[:k]
	}

	results := make([]core.RankedResult, len(order))
	for i, c := range order {
		results[i] = core.RankedResult{Unit: c.unit, Score: c.score}
	}
	return results
}

func topScore(hits []core.RankedResult) float64 {
	var top float64
	for _, h := range hits {
		top = max(top, h.Score)
	}
	return top
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
