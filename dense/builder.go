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

package dense

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/inventree/ai"
	"github.com/poiesic/inventree/core"
)

// Build defaults.
const (
	DefaultBatchSize   = 16
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 500 * time.Millisecond
)

type builder struct {
	model       string
	batchSize   int
	poolSize    int
	maxAttempts int
	retryDelay  time.Duration
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures Build.
type Option func(*builder) error

// WithModel records the embedding model name in the index.
func WithModel(model string) Option {
	return func(b *builder) error {
		b.model = model
		return nil
	}
}

// WithBatchSize sets how many units are sent per EmbedTexts call.
func WithBatchSize(size int) Option {
	return func(b *builder) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		b.batchSize = size
		return nil
	}
}

// WithPoolSize sets the number of concurrent embedding calls.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(b *builder) error {
		if size < 1 {
			size = 1
		}
		b.poolSize = size
		return nil
	}
}

// WithRetry sets the attempts per batch and the base backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(b *builder) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		b.maxAttempts = maxAttempts
		b.retryDelay = baseDelay
		return nil
	}
}

// WithProgress writes progress lines to w while embedding.
func WithProgress(w io.Writer) Option {
	return func(b *builder) error {
		b.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// Build embeds every unit and returns the resulting index. Batches are
// embedded concurrently on a worker pool, each retried with backoff. The
// first batch that still fails cancels the rest and fails the build with
// core.ErrEmbeddingUnavailable.
func Build(ctx context.Context, units []core.TextUnit, embedder ai.Embedder, opts ...Option) (*Index, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	b := &builder{
		batchSize:   DefaultBatchSize,
		poolSize:    poolSize,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	b.logger = b.logger.With("component", "dense-builder")

	if embedder == nil {
		return nil, fmt.Errorf("%w: no embedder configured", core.ErrEmbeddingUnavailable)
	}
	if len(units) == 0 {
		return &Index{model: b.model}, nil
	}

	vectors, err := b.embedAll(ctx, units, embedder)
	if err != nil {
		return nil, err
	}
	return New(b.model, units, vectors)
}

func (b *builder) embedAll(ctx context.Context, units []core.TextUnit, embedder ai.Embedder) ([][]float32, error) {
	pool, err := ants.NewPool(b.poolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var tracker *ProgressTracker
	if b.progress != nil {
		tracker = NewProgressTracker(b.progress, len(units), b.batchSize)
		tracker.Start()
	}

	vectors := make([][]float32, len(units))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for start := 0; start < len(units); start += b.batchSize {
		end := min(start+b.batchSize, len(units))
		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = units[start+i].Content
		}

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			batch, err := b.embedBatch(ctx, embedder, texts)
			if err != nil {
				fail(fmt.Errorf("%w: units %d-%d: %w", core.ErrEmbeddingUnavailable, start, end-1, err))
				return
			}
			copy(vectors[start:end], batch)
			if tracker != nil {
				tracker.Increment(len(batch))
			}
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()

	if tracker != nil {
		tracker.Finish()
	}
	if firstErr != nil {
		b.logger.Error("dense build failed", "units", len(units), "err", firstErr)
		return nil, firstErr
	}
	b.logger.Debug("embedded units", "units", len(units), "batch_size", b.batchSize, "workers", b.poolSize)
	return vectors, nil
}

func (b *builder) embedBatch(ctx context.Context, embedder ai.Embedder, texts []string) ([][]float32, error) {
	var batch [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		batch, err = embedder.EmbedTexts(ctx, texts)
		if err == nil && len(batch) != len(texts) {
			err = fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(batch))
		}
		return err
	}, b.maxAttempts, b.retryDelay)
	if err != nil {
		return nil, fmt.Errorf("after %d attempts: %w", b.maxAttempts, err)
	}
	return batch, nil
}
