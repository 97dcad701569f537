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

// Package dense implements the semantic half of hybrid retrieval: exact
// nearest-neighbour search over unit embeddings.
//
// Every vector is scaled to unit length when the index is built and every
// query vector is scaled the same way, so the inner product used for ranking
// is cosine similarity. The metric is fixed and recorded in the persisted
// artifact together with the embedding model and dimension.
package dense

import (
	"context"
	"fmt"
	"slices"

	"github.com/poiesic/inventree/ai"
	"github.com/poiesic/inventree/core"
)

// Metric names the similarity function. It is the only supported value.
const Metric = "cosine"

// Index is an immutable set of unit vectors.
// It is safe for concurrent queries.
type Index struct {
	model   string
	dim     int
	units   []core.TextUnit
	vectors [][]float32
}

// New creates an index from precomputed vectors, one per unit. Vectors are
// normalized; they must all have the same non-zero length.
func New(model string, units []core.TextUnit, vectors [][]float32) (*Index, error) {
	if len(units) != len(vectors) {
		return nil, fmt.Errorf("%w: %d vectors for %d units", core.ErrEmbeddingUnavailable, len(vectors), len(units))
	}
	idx := &Index{
		model:   model,
		units:   slices.Clone(units),
		vectors: make([][]float32, len(vectors)),
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty vector for unit %d", core.ErrEmbeddingUnavailable, i)
		}
		if i == 0 {
			idx.dim = len(v)
		} else if len(v) != idx.dim {
			return nil, fmt.Errorf("%w: unit %d has dimension %d, want %d", core.ErrEmbeddingUnavailable, i, len(v), idx.dim)
		}
		idx.vectors[i] = NormalizeVector(v)
	}
	return idx, nil
}

// Model returns the embedding model the index was built with.
func (idx *Index) Model() string { return idx.model }

// Dimension returns the vector length, or 0 for an empty index.
func (idx *Index) Dimension() int { return idx.dim }

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

// Query embeds text and returns the k most similar units, best first. Equal
// similarities keep build order.
//
// A failing embedder yields core.ErrEmbeddingUnavailable, never an empty
// result. A query vector of the wrong length means the index was built with a
// different model and yields core.ErrIndexCorrupt.
func (idx *Index) Query(ctx context.Context, text string, embedder ai.Embedder, k int) ([]core.RankedResult, error) {
	if idx == nil {
		return nil, core.ErrDenseUnavailable
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: no embedder configured", core.ErrEmbeddingUnavailable)
	}
	if k <= 0 || len(idx.units) == 0 {
		return []core.RankedResult{}, nil
	}

	vector, err := embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrEmbeddingUnavailable, err)
	}
	if len(vector) != idx.dim {
		return nil, fmt.Errorf("%w: query vector has dimension %d, index has %d", core.ErrIndexCorrupt, len(vector), idx.dim)
	}
	return idx.search(NormalizeVector(vector), k), nil
}

// QueryVector ranks units against an already embedded query.
func (idx *Index) QueryVector(vector []float32, k int) ([]core.RankedResult, error) {
	if idx == nil {
		return nil, core.ErrDenseUnavailable
	}
	if k <= 0 || len(idx.units) == 0 {
		return []core.RankedResult{}, nil
	}
	if len(vector) != idx.dim {
		return nil, fmt.Errorf("%w: query vector has dimension %d, index has %d", core.ErrIndexCorrupt, len(vector), idx.dim)
	}
	return idx.search(NormalizeVector(vector), k), nil
}

func (idx *Index) search(query []float32, k int) []core.RankedResult {
	type hit struct {
		doc   int
		score float64
	}
	hits := make([]hit, len(idx.vectors))
	for i, v := range idx.vectors {
		hits[i] = hit{doc: i, score: Dot(query, v)}
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
