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

// Package inventree answers questions about a patent portfolio and its
// research gaps with hybrid lexical and semantic retrieval.
//
// A Vault ties the pieces together: it reads records from JSON files,
// keeps index generations in a badger store, and serves ranked text units.
//
//	cfg, _ := config.Load("inventree.yaml")
//	v, err := inventree.Open(cfg)
//	if err != nil { ... }
//	defer v.Close()
//	if err := v.Load(ctx); err != nil { ... }
//	resp, err := v.Retrieve(ctx, "AIH-002 braking", 5)
package inventree

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/inventree/ai"
	"github.com/poiesic/inventree/ai/ollama"
	"github.com/poiesic/inventree/ai/openai"
	"github.com/poiesic/inventree/config"
	"github.com/poiesic/inventree/core"
	"github.com/poiesic/inventree/dense"
	"github.com/poiesic/inventree/ingestion"
	"github.com/poiesic/inventree/lifecycle"
	"github.com/poiesic/inventree/search"
	"github.com/poiesic/inventree/storage"
	"github.com/poiesic/inventree/storage/badger"
)

// Artifact file names written by Export.
const (
	SparseArtifactFile = "sparse.idx"
	DenseArtifactFile  = "dense.idx"
)

type Vault struct {
	backend   *badger.Backend
	repo      storage.ArtifactRepository
	provider  ai.AIProvider
	manager   *lifecycle.Manager
	retriever *search.Retriever
	k         int
	logger    *slog.Logger
}

// VaultOption configures a Vault.
type VaultOption func(*vaultOptions)

type vaultOptions struct {
	provider ai.AIProvider
	source   ingestion.Source
	progress io.Writer
	logger   *slog.Logger
}

// WithProvider supplies the embedding provider instead of creating one from
// the configuration. The Vault closes it on Close.
func WithProvider(provider ai.AIProvider) VaultOption {
	return func(o *vaultOptions) {
		o.provider = provider
	}
}

// WithSource replaces the configured record files.
func WithSource(source ingestion.Source) VaultOption {
	return func(o *vaultOptions) {
		o.source = source
	}
}

// WithProgress reports embedding progress to w during rebuilds.
func WithProgress(w io.Writer) VaultOption {
	return func(o *vaultOptions) {
		o.progress = w
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) VaultOption {
	return func(o *vaultOptions) {
		o.logger = logger
	}
}

// NewProvider creates the embedding provider named by cfg.Provider.
func NewProvider(cfg *ai.Config) (ai.AIProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case ai.ProviderOllama:
		return ollama.NewProvider(cfg)
	default:
		return openai.NewProvider(cfg)
	}
}

// Open opens the store and wires the index manager and retriever. No index
// is loaded until Load or Rebuild is called.
func Open(cfg *config.Config, opts ...VaultOption) (*Vault, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := &vaultOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.source == nil {
		options.source = &ingestion.FileSource{
			PatentsPath: cfg.Records.Patents,
			GapsPath:    cfg.Records.Gaps,
		}
	}

	provider := options.provider
	if provider == nil && !cfg.Embedding.SparseOnly {
		var err error
		if provider, err = NewProvider(cfg.AI()); err != nil {
			return nil, fmt.Errorf("failed to create embedding provider: %w", err)
		}
	}

	backend, err := badger.OpenBackend(cfg.Store.Path, cfg.Store.InMemory)
	if err != nil {
		closeProvider(provider, options.logger)
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	repo, err := badger.NewArtifactRepository(backend)
	if err != nil {
		backend.Close()
		closeProvider(provider, options.logger)
		return nil, err
	}

	v := &Vault{
		backend:  backend,
		repo:     repo,
		provider: provider,
		k:        cfg.Retrieval.K,
		logger:   options.logger,
	}

	managerOpts := []lifecycle.Option{
		lifecycle.WithLogger(options.logger),
		lifecycle.WithRebuildOnCorrupt(cfg.Retrieval.RebuildOnCorrupt),
		lifecycle.WithDenseOptions(denseOptions(cfg, options.progress)...),
	}
	var embedder ai.Embedder
	if cfg.Embedding.SparseOnly {
		managerOpts = append(managerOpts, lifecycle.WithSparseOnly())
	} else {
		embedder = provider.Embedder()
		managerOpts = append(managerOpts, lifecycle.WithModel(provider.Model()))
	}

	if v.manager, err = lifecycle.NewManager(options.source, repo, embedder, managerOpts...); err != nil {
		v.Close()
		return nil, err
	}

	// Sparse-only generations can only ever be answered lexically.
	fallback := cfg.Retrieval.DenseFallback || cfg.Embedding.SparseOnly
	v.retriever, err = search.NewRetriever(v.manager, embedder,
		search.WithLogger(options.logger),
		search.WithDenseFallback(fallback))
	if err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

func denseOptions(cfg *config.Config, progress io.Writer) []dense.Option {
	opts := []dense.Option{
		dense.WithBatchSize(cfg.Embedding.BatchSize),
		dense.WithRetry(cfg.Embedding.MaxRetries, cfg.Embedding.RetryDelay),
	}
	if cfg.Embedding.PoolSize > 0 {
		opts = append(opts, dense.WithPoolSize(cfg.Embedding.PoolSize))
	}
	if progress != nil {
		opts = append(opts, dense.WithProgress(progress))
	}
	return opts
}

// Load publishes the stored generation, building one if the store is empty.
func (v *Vault) Load(ctx context.Context) error {
	_, err := v.manager.LoadOrBuild(ctx)
	return err
}

// Rebuild rebuilds both indices from the record source.
func (v *Vault) Rebuild(ctx context.Context) (*lifecycle.BuildReport, error) {
	_, report, err := v.manager.Rebuild(ctx)
	return report, err
}

// Retrieve returns up to k ranked units for query. k <= 0 uses the
// configured default.
func (v *Vault) Retrieve(ctx context.Context, query string, k int) (*search.Response, error) {
	if k <= 0 {
		k = v.k
	}
	return v.retriever.Retrieve(ctx, query, k)
}

// Generation returns the published generation, if any.
func (v *Vault) Generation() (core.Generation, bool) {
	h := v.manager.Handles()
	if h == nil {
		return core.Generation{}, false
	}
	return h.Generation, true
}

// StoredGeneration returns the generation the store points at, which may
// differ from the published one until Load runs.
func (v *Vault) StoredGeneration(ctx context.Context) (core.Generation, error) {
	artifacts, err := v.repo.Current(ctx)
	if err != nil {
		return core.Generation{}, err
	}
	return artifacts.Generation, nil
}

// Generations lists the generations held in the store.
func (v *Vault) Generations(ctx context.Context) ([]core.Generation, error) {
	return v.repo.Generations(ctx)
}

// Export writes the stored current generation's artifacts into dir and
// returns the written paths. The files load with sparse.LoadFile and
// dense.LoadFile.
func (v *Vault) Export(ctx context.Context, dir string) ([]string, error) {
	artifacts, err := v.repo.Current(ctx)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	paths := []string{filepath.Join(dir, SparseArtifactFile)}
	if err := storage.WriteFileAtomic(paths[0], artifacts.Sparse); err != nil {
		return nil, err
	}
	if artifacts.Generation.HasDense {
		path := filepath.Join(dir, DenseArtifactFile)
		if err := storage.WriteFileAtomic(path, artifacts.Dense); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	v.logger.Info("exported generation", "generation", artifacts.Generation.ID, "dir", dir)
	return paths, nil
}

func (v *Vault) Close() error {
	closeProvider(v.provider, v.logger)

	if err := v.repo.Close(); err != nil {
		v.logger.Error("error closing artifact repository", "err", err)
		return err
	}
	if err := v.backend.Close(); err != nil {
		v.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func closeProvider(provider ai.AIProvider, logger *slog.Logger) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil {
		logger.Error("error closing AI provider", "err", err)
	}
}
