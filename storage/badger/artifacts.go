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

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/inventree/core"
	"github.com/poiesic/inventree/storage"
)

// ArtifactRepository implements storage.ArtifactRepository for BadgerDB.
type ArtifactRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.ArtifactRepository = (*ArtifactRepository)(nil)

// NewArtifactRepository creates a new ArtifactRepository.
func NewArtifactRepository(backend *Backend) (storage.ArtifactRepository, error) {
	return newArtifactRepository(backend)
}

func newArtifactRepository(backend *Backend) (*ArtifactRepository, error) {
	if backend == nil {
		return nil, errors.New("badger: backend is required")
	}
	return &ArtifactRepository{
		backend: backend,
		logger:  backend.logger.With("repository", "artifacts"),
	}, nil
}

// Commit writes a generation and flips the current pointer in one transaction.
func (r *ArtifactRepository) Commit(ctx context.Context, gen *core.Generation, sparse, dense []byte) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if gen == nil || gen.ID == "" {
		return fmt.Errorf("%w: generation id is required", storage.ErrSerializationFailed)
	}
	if len(sparse) == 0 {
		return storage.ErrEmptyArtifact
	}
	if gen.HasDense != (len(dense) > 0) {
		return fmt.Errorf("%w: generation %s dense flag does not match artifact", storage.ErrSerializationFailed, gen.ID)
	}

	err := r.backend.WithTransaction(ctx, func(ctx context.Context, tx *badger.Txn) error {
		if err := tx.Set(makeGenerationKey(gen.ID, suffixSparse), sparse); err != nil {
			return err
		}
		if gen.HasDense {
			if err := tx.Set(makeGenerationKey(gen.ID, suffixDense), dense); err != nil {
				return err
			}
		}
		if err := tx.Set(makeGenerationKey(gen.ID, suffixMeta), storage.MarshalGeneration(gen)); err != nil {
			return err
		}
		return tx.Set([]byte(currentGenerationKey), []byte(gen.ID))
	})
	if err != nil {
		return fmt.Errorf("commit generation %s: %w", gen.ID, err)
	}
	r.logger.Debug("committed generation", "generation", gen.ID, "sparse_bytes", len(sparse), "dense_bytes", len(dense))
	return nil
}

// Current returns the current generation and its artifacts.
func (r *ArtifactRepository) Current(ctx context.Context) (*storage.Artifacts, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var artifacts *storage.Artifacts
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(currentGenerationKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		meta, err := getValue(tx, makeGenerationKey(string(id), suffixMeta))
		if err != nil {
			return err
		}
		gen, err := storage.UnmarshalGeneration(meta)
		if err != nil {
			return fmt.Errorf("%w: generation %s: %w", core.ErrIndexCorrupt, id, err)
		}

		sparse, err := getValue(tx, makeGenerationKey(gen.ID, suffixSparse))
		if err != nil {
			return err
		}
		var dense []byte
		if gen.HasDense {
			if dense, err = getValue(tx, makeGenerationKey(gen.ID, suffixDense)); err != nil {
				return err
			}
		}

		artifacts = &storage.Artifacts{Generation: *gen, Sparse: sparse, Dense: dense}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}

// getValue reads a key that a committed generation must contain. A missing
// part means the stored generation is damaged.
func getValue(tx *badger.Txn, key []byte) ([]byte, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: missing %s", core.ErrIndexCorrupt, key)
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

// Generations lists stored generations ordered by creation time.
func (r *ArtifactRepository) Generations(ctx context.Context) ([]core.Generation, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var gens []core.Generation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(generationPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			if _, part, ok := parseGenerationKey(item.Key()); !ok || part != suffixMeta {
				continue
			}
			err := item.Value(func(val []byte) error {
				gen, err := storage.UnmarshalGeneration(val)
				if err != nil {
					return err
				}
				gens = append(gens, *gen)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(gens, func(a, b core.Generation) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return gens, nil
}

// Prune deletes all generations other than the current one.
func (r *ArtifactRepository) Prune(ctx context.Context) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	var current string
	stale := make(map[string]struct{})
	var keys [][]byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(currentGenerationKey))
		switch {
		case err == nil:
			id, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			current = string(id)
		case errors.Is(err, badger.ErrKeyNotFound):
			// Nothing committed yet, so nothing is protected.
		default:
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(generationPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().KeyCopy(nil)
			id, _, ok := parseGenerationKey(key)
			if !ok || id == current {
				continue
			}
			stale[id] = struct{}{}
			keys = append(keys, key)
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	if err := r.deleteKeys(ctx, keys); err != nil {
		return 0, err
	}
	r.logger.Debug("pruned generations", "count", len(stale), "current", current)
	return len(stale), nil
}

// deleteKeys removes keys, splitting the work across transactions when one
// grows too large.
func (r *ArtifactRepository) deleteKeys(ctx context.Context, keys [][]byte) error {
	for len(keys) > 0 {
		var done int
		err := r.backend.WithTransaction(ctx, func(ctx context.Context, tx *badger.Txn) error {
			for _, key := range keys {
				if err := tx.Delete(key); err != nil {
					if errors.Is(err, badger.ErrTxnTooBig) && done > 0 {
						return nil
					}
					return err
				}
				done++
			}
			return nil
		})
		if err != nil {
			return err
		}
		keys = keys[done:]
	}
	return nil
}

// Close is a no-op; the backend is owned by the caller.
func (r *ArtifactRepository) Close() error {
	return nil
}
