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

package storage

import (
	"context"

	"github.com/poiesic/inventree/core"
)

// Artifacts is one committed generation: its metadata plus the sealed
// sparse and dense index artifacts. Dense is nil for sparse-only generations.
type Artifacts struct {
	Generation core.Generation
	Sparse     []byte
	Dense      []byte
}

// ArtifactRepository stores index generations.
// Implementations must be thread-safe and support concurrent access.
type ArtifactRepository interface {
	// Commit writes both artifacts of a new generation and makes it current
	// in a single transaction. Either the whole generation becomes current or
	// nothing changes. The previous generation stays stored until Prune.
	Commit(ctx context.Context, gen *core.Generation, sparse, dense []byte) error

	// Current returns the current generation.
	// Returns ErrNotFound if nothing has been committed.
	Current(ctx context.Context) (*Artifacts, error)

	// Generations lists stored generations, current or not, oldest first.
	Generations(ctx context.Context) ([]core.Generation, error)

	// Prune deletes every generation except the current one and returns
	// how many were removed.
	Prune(ctx context.Context) (int, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
