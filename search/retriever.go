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

package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/inventree/ai"
	"github.com/poiesic/inventree/core"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultK is the number of results returned when k is not positive.
	DefaultK = 5

	// SubQueryDepth is how many hits each index contributes before fusion,
	// independent of the requested k.
	SubQueryDepth = 5
)

// Response is the outcome of one retrieval.
type Response struct {
	// Results are ordered by non-increasing fused score.
	Results []core.RankedResult

	// Degraded is set when the dense index was unavailable and the results
	// come from the sparse index alone.
	Degraded bool

	// Warnings explain a degraded response.
	Warnings []string

	// Generation identifies the index generation that answered.
	Generation string
}

// Retriever answers queries against the current index handles.
type Retriever struct {
	source        HandleSource
	embedder      ai.Embedder
	denseFallback bool
	logger        *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithDenseFallback allows sparse-only answers when no dense index is
// loaded. Such responses are flagged Degraded and carry a warning.
func WithDenseFallback(enabled bool) Option {
	return func(r *Retriever) error {
		r.denseFallback = enabled
		return nil
	}
}

// NewRetriever creates a retriever. The embedder embeds query text for the
// dense index; it may be nil only when every generation is sparse-only and
// dense fallback is enabled.
func NewRetriever(source HandleSource, embedder ai.Embedder, opts ...Option) (*Retriever, error) {
	if source == nil {
		return nil, ErrHandleSourceRequired
	}

	r := &Retriever{
		source:   source,
		embedder: embedder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "retriever")
	return r, nil
}

// Retrieve returns up to k fused results for query. k <= 0 means DefaultK.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (*Response, error) {
	return r.RetrieveWithMonitor(ctx, query, k, nil)
}

// RetrieveWithMonitor is Retrieve with callbacks at each stage.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, query string, k int, monitor SearchMonitor) (*Response, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if k <= 0 {
		k = DefaultK
	}
	monitor.Start(query, k)

	h := r.source.Handles()
	if h == nil || h.Sparse == nil {
		return nil, ErrIndexNotLoaded
	}
	resp := &Response{Results: []core.RankedResult{}, Generation: h.Generation.ID}

	if strings.TrimSpace(query) == "" {
		monitor.Finish(resp.Results)
		return resp, nil
	}

	if h.Dense == nil {
		if !r.denseFallback {
			return nil, fmt.Errorf("%w: hybrid retrieval requires a dense index", core.ErrDenseUnavailable)
		}
		reason := "dense index unavailable, results are lexical only"
		r.logger.Warn(reason, "generation", h.Generation.ID)
		monitor.Degraded(reason)
		resp.Degraded = true
		resp.Warnings = append(resp.Warnings, reason)
	}

	var sparseHits, denseHits []core.RankedResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sparseHits = h.Sparse.Query(query, SubQueryDepth)
		return nil
	})
	if h.Dense != nil {
		g.Go(func() error {
			var err error
			denseHits, err = h.Dense.Query(gctx, query, r.embedder, SubQueryDepth)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Error("dense query failed", "generation", h.Generation.ID, "err", err)
		return nil, err
	}
	monitor.AfterSparseSearch(sparseHits)
	if h.Dense != nil {
		monitor.AfterDenseSearch(denseHits)
	}

	resp.Results = Fuse(sparseHits, denseHits, k)
	monitor.Finish(resp.Results)

	r.logger.Debug("retrieved", "k", k, "sparse_hits", len(sparseHits), "dense_hits", len(denseHits), "results", len(resp.Results))
	return resp, nil
}

// FormatContext joins result contents with blank lines, ready to be placed
// in a prompt.
func FormatContext(results []core.RankedResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Unit.Content
	}
	return strings.Join(parts, "\n\n")
}
