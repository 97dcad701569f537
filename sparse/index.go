// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sparse implements the lexical half of hybrid retrieval: an Okapi
// BM25 index over text unit content.
//
// The index is built wholesale from a unit sequence and never updated in
// place. It favours exact term and identifier matches, such as a literal
// patent id, which embeddings tend to blur.
package sparse

import (
	"math"
	"slices"

	"github.com/poiesic/inventree/core"
)

// BM25 parameters.
const (
	K1 = 1.5
	B  = 0.75
)

// Index holds BM25 term statistics for a fixed unit corpus.
// It is immutable after Build and safe for concurrent queries.
type Index struct {
	units     []core.TextUnit
	termFreqs []map[string]int
	docLens   []int
	docFreq   map[string]int
	idf       map[string]float64
	avgDocLen float64
}

// Build computes term statistics over the units. Unit order is kept and
// decides ties at query time.
func Build(units []core.TextUnit) *Index {
	termFreqs := make([]map[string]int, len(units))
	for i, unit := range units {
		tf := make(map[string]int)
		for _, tok := range Tokenize(unit.Content) {
			tf[tok]++
		}
		termFreqs[i] = tf
	}
	return newIndex(slices.Clone(units), termFreqs)
}

// newIndex derives document lengths and corpus statistics from per-unit
// term frequencies.
func newIndex(units []core.TextUnit, termFreqs []map[string]int) *Index {
	idx := &Index{
		units:     units,
		termFreqs: termFreqs,
		docLens:   make([]int, len(units)),
		docFreq:   make(map[string]int),
	}

	var total int
	for i, tf := range termFreqs {
		for term, n := range tf {
			idx.docLens[i] += n
			idx.docFreq[term]++
		}
		total += idx.docLens[i]
	}
	if len(units) > 0 {
		idx.avgDocLen = float64(total) / float64(len(units))
	}

	n := float64(len(units))
	idx.idf = make(map[string]float64, len(idx.docFreq))
	for term, df := range idx.docFreq {
		idx.idf[term] = math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
	}
	return idx
}

// Len returns the number of indexed units.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.units)
}

// Units returns a copy of the indexed units in build order.
func (idx *Index) Units() []core.TextUnit {
	if idx == nil {
		return nil
	}
	return slices.Clone(idx.units)
}

// Query returns up to k units with a positive BM25 score for text, best
// first. Equal scores keep build order. An empty or nil index, a
// non-positive k, or a query with no usable terms yields an empty result.
func (idx *Index) Query(text string, k int) []core.RankedResult {
	if idx.Len() == 0 || k <= 0 {
		return []core.RankedResult{}
	}
	terms := Tokenize(text)
	if len(terms) == 0 {
		return []core.RankedResult{}
	}

	type hit struct {
		doc   int
		score float64
	}
	var hits []hit
	for doc := range idx.units {
		if score := idx.score(doc, terms); score > 0 {
			hits = append(hits, hit{doc: doc, score: score})
		}
	}

	slices.SortStableFunc(hits, func(a, b hit) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return a.doc - b.doc
		}
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	results := make([]core.RankedResult, len(hits))
	for i, h := range hits {
		results[i] = core.RankedResult{Unit: idx.units[h.doc], Score: h.score}
	}
	return results
}

// score sums the BM25 contribution of each query term. Repeated query
// terms count once per occurrence.
func (idx *Index) score(doc int, terms []string) float64 {
	tf := idx.termFreqs[doc]
	norm := K1 * (1 - B + B*float64(idx.docLens[doc])/idx.avgDocLen)

	var score float64
	for _, term := range terms {
		f := float64(tf[term])
		if f == 0 {
			continue
		}
		score += idx.idf[term] * f * (K1 + 1) / (f + norm)
	}
	return score
}
