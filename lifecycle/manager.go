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

// Package lifecycle builds, persists and reloads the sparse and dense
// indices as one unit.
//
// Every rebuild produces a new generation. Both artifacts of a generation are
// committed together, and the current-generation pointer moves in the same
// transaction, so readers of the store see either the old pair or the new
// pair. In memory, the Manager publishes a fresh search.Handles snapshot only
// after the commit succeeds. A failed rebuild leaves both the stored and the
// published generation as they were.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/inventree/ai"
	"github.com/poiesic/inventree/core"
	"github.com/poiesic/inventree/dense"
	"github.com/poiesic/inventree/ingestion"
	"github.com/poiesic/inventree/normalize"
	"github.com/poiesic/inventree/search"
	"github.com/poiesic/inventree/sparse"
	"github.com/poiesic/inventree/storage"
)

// Manager owns the current index generation.
type Manager struct {
	source   ingestion.Source
	repo     storage.ArtifactRepository
	embedder ai.Embedder

	model            string
	sparseOnly       bool
	rebuildOnCorrupt bool
	denseOpts        []dense.Option
	logger           *slog.Logger

	building sync.Mutex
	current  atomic.Pointer[search.Handles]
}

var _ search.HandleSource = (*Manager)(nil)

// Option configures a Manager.
type Option func(*Manager) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// WithModel records the embedding model name in each generation. Stored
// generations built with another model are rejected on load.
func WithModel(model string) Option {
	return func(m *Manager) error {
		m.model = model
		return nil
	}
}

// WithSparseOnly skips the dense index. Generations are committed without a
// dense artifact and no embedder is needed.
func WithSparseOnly() Option {
	return func(m *Manager) error {
		m.sparseOnly = true
		return nil
	}
}

// WithRebuildOnCorrupt makes LoadOrBuild rebuild when the stored generation
// is unreadable instead of returning core.ErrIndexCorrupt.
func WithRebuildOnCorrupt(enabled bool) Option {
	return func(m *Manager) error {
		m.rebuildOnCorrupt = enabled
		return nil
	}
}

// WithDenseOptions passes options through to dense.Build.
func WithDenseOptions(opts ...dense.Option) Option {
	return func(m *Manager) error {
		m.denseOpts = append(m.denseOpts, opts...)
		return nil
	}
}

// NewManager creates a manager. Nothing is loaded until LoadOrBuild or a
// rebuild runs.
func NewManager(source ingestion.Source, repo storage.ArtifactRepository, embedder ai.Embedder, opts ...Option) (*Manager, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if repo == nil {
		return nil, ErrRepositoryRequired
	}

	m := &Manager{
		source:   source,
		repo:     repo,
		embedder: embedder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	if m.embedder == nil && !m.sparseOnly {
		return nil, ErrEmbedderRequired
	}
	m.logger = m.logger.With("component", "lifecycle")
	return m, nil
}

// Handles returns the published generation, or nil before the first load.
func (m *Manager) Handles() *search.Handles {
	return m.current.Load()
}

// Rebuild rebuilds from the records the source currently holds.
func (m *Manager) Rebuild(ctx context.Context) (*search.Handles, *BuildReport, error) {
	records, err := m.source.Records(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read records: %w", err)
	}
	return m.RebuildAll(ctx, records)
}

func (m *Manager) rebuildFromSource(ctx context.Context) (*search.Handles, error) {
	records, err := m.source.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	h, _, err := m.rebuildLocked(ctx, records)
	return h, err
}

// RebuildAll builds both indices from records, commits them as a new
// generation, and publishes it. Only one rebuild runs at a time; a call made
// while another is running fails with core.ErrRebuildInProgress.
func (m *Manager) RebuildAll(ctx context.Context, records []core.Record) (*search.Handles, *BuildReport, error) {
	if !m.building.TryLock() {
		return nil, nil, core.ErrRebuildInProgress
	}
	defer m.building.Unlock()
	return m.rebuildLocked(ctx, records)
}

// rebuildLocked must be called with m.building held.
func (m *Manager) rebuildLocked(ctx context.Context, records []core.Record) (*search.Handles, *BuildReport, error) {
	start := time.Now()
	report := &BuildReport{GenerationID: uuid.NewString(), Records: len(records)}
	logger := m.logger.With("generation", report.GenerationID)

	mark := time.Now()
	units, warnings := normalize.Normalize(records)
	report.NormalizeTime = time.Since(mark)
	report.Units = len(units)
	report.Warnings = warnings
	report.countKinds(units)
	for _, w := range warnings {
		logger.Warn("skipping record", "err", w)
	}

	mark = time.Now()
	sparseIdx := sparse.Build(units)
	sparseData, err := sparseIdx.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("encode sparse index: %w", err)
	}
	report.SparseTime = time.Since(mark)

	var denseIdx *dense.Index
	var denseData []byte
	if !m.sparseOnly {
		mark = time.Now()
		opts := append([]dense.Option{dense.WithModel(m.model)}, m.denseOpts...)
		denseIdx, err = dense.Build(ctx, units, m.embedder, opts...)
		if err != nil {
			logger.Error("dense build failed, keeping previous generation", "err", err)
			return nil, nil, err
		}
		if denseData, err = denseIdx.MarshalBinary(); err != nil {
			return nil, nil, fmt.Errorf("encode dense index: %w", err)
		}
		report.DenseTime = time.Since(mark)
		report.Dense = true
		report.Model = denseIdx.Model()
		report.Dimension = denseIdx.Dimension()
	}

	gen := core.Generation{
		ID:        report.GenerationID,
		CreatedAt: time.Now(),
		Units:     len(units),
		HasDense:  denseIdx != nil,
		Model:     report.Model,
		Dimension: report.Dimension,
	}

	mark = time.Now()
	if err := m.repo.Commit(ctx, &gen, sparseData, denseData); err != nil {
		logger.Error("commit failed, keeping previous generation", "err", err)
		return nil, nil, err
	}
	report.CommitTime = time.Since(mark)

	h := &search.Handles{Sparse: sparseIdx, Dense: denseIdx, Generation: gen}
	m.current.Store(h)

	if report.Pruned, err = m.repo.Prune(ctx); err != nil {
		logger.Warn("could not prune old generations", "err", err)
	}
	report.Total = time.Since(start)

	logger.Info("rebuilt indices",
		"units", report.Units,
		"skipped", len(report.Warnings),
		"dense", report.Dense,
		"duration", report.Total)
	return h, report, nil
}

// LoadOrBuild publishes the stored current generation, or rebuilds from the
// source when nothing is stored. An unreadable generation fails with
// core.ErrIndexCorrupt unless WithRebuildOnCorrupt is set. It holds the
// rebuild lock from the read to the publish, so it fails with
// core.ErrRebuildInProgress while a rebuild is running.
func (m *Manager) LoadOrBuild(ctx context.Context) (*search.Handles, error) {
	if !m.building.TryLock() {
		return nil, core.ErrRebuildInProgress
	}
	defer m.building.Unlock()

	h, err := m.load(ctx)
	switch {
	case err == nil:
		m.current.Store(h)
		m.logger.Info("loaded indices", "generation", h.Generation.ID, "units", h.Generation.Units, "dense", h.Dense != nil)
		return h, nil
	case errors.Is(err, storage.ErrNotFound):
		m.logger.Info("no stored generation, building")
	case errors.Is(err, core.ErrIndexCorrupt) && m.rebuildOnCorrupt:
		m.logger.Warn("stored generation unreadable, rebuilding", "err", err)
	default:
		return nil, err
	}

	return m.rebuildFromSource(ctx)
}

func (m *Manager) load(ctx context.Context) (*search.Handles, error) {
	artifacts, err := m.repo.Current(ctx)
	if err != nil {
		return nil, err
	}
	gen := artifacts.Generation

	sparseIdx, err := sparse.Unmarshal(artifacts.Sparse)
	if err != nil {
		return nil, fmt.Errorf("generation %s: %w", gen.ID, err)
	}
	h := &search.Handles{Sparse: sparseIdx, Generation: gen}
	if !gen.HasDense || m.sparseOnly {
		return h, nil
	}

	model := m.model
	if model == "" {
		model = gen.Model
	}
	denseIdx, err := dense.Unmarshal(artifacts.Dense, dense.ExpectModel(model), dense.ExpectDimension(gen.Dimension))
	if err != nil {
		return nil, fmt.Errorf("generation %s: %w", gen.ID, err)
	}
	h.Dense = denseIdx
	return h, nil
}
