package badger

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/inventree/core"
	"github.com/poiesic/inventree/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeneration(id string, dense bool, at time.Time) *core.Generation {
	gen := &core.Generation{ID: id, CreatedAt: at, Units: 2}
	if dense {
		gen.HasDense = true
		gen.Model = "mock-embed"
		gen.Dimension = 4
	}
	return gen
}

func TestArtifactRepository_CurrentEmpty(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	_, err = repo.Current(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestArtifactRepository_CommitAndSwap(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()
	ctx := context.Background()
	now := time.Now().UTC()

	first := newGeneration("g1", true, now)
	require.NoError(t, repo.Commit(ctx, first, []byte("sparse-1"), []byte("dense-1")))

	current, err := repo.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "g1", current.Generation.ID)
	assert.Equal(t, []byte("sparse-1"), current.Sparse)
	assert.Equal(t, []byte("dense-1"), current.Dense)

	second := newGeneration("g2", false, now.Add(time.Second))
	require.NoError(t, repo.Commit(ctx, second, []byte("sparse-2"), nil))

	current, err = repo.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "g2", current.Generation.ID)
	assert.Nil(t, current.Dense)

	gens, err := repo.Generations(ctx)
	require.NoError(t, err)
	require.Len(t, gens, 2, "old generation retained until prune")
	assert.Equal(t, "g1", gens[0].ID)
	assert.Equal(t, "g2", gens[1].ID)

	removed, err := repo.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	gens, err = repo.Generations(ctx)
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, "g2", gens[0].ID)

	removed, err = repo.Prune(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestArtifactRepository_CommitValidation(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	tests := []struct {
		name    string
		gen     *core.Generation
		sparse  []byte
		dense   []byte
		wantErr error
	}{
		{name: "nil generation", gen: nil, sparse: []byte("s"), wantErr: storage.ErrSerializationFailed},
		{name: "missing id", gen: &core.Generation{}, sparse: []byte("s"), wantErr: storage.ErrSerializationFailed},
		{name: "missing sparse", gen: newGeneration("g", false, time.Now()), wantErr: storage.ErrEmptyArtifact},
		{name: "dense flag without artifact", gen: newGeneration("g", true, time.Now()), sparse: []byte("s"), wantErr: storage.ErrSerializationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Commit(ctx, tt.gen, tt.sparse, tt.dense)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = repo.Current(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound, "failed commits leave nothing behind")
}

func TestArtifactRepository_MissingPartIsCorrupt(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	require.NoError(t, repo.Commit(ctx, newGeneration("g1", true, time.Now()), []byte("s"), []byte("d")))

	err = backend.WithTransaction(ctx, func(ctx context.Context, tx *badger.Txn) error {
		return tx.Delete(makeGenerationKey("g1", suffixDense))
	})
	require.NoError(t, err)

	_, err = repo.Current(ctx)
	assert.ErrorIs(t, err, core.ErrIndexCorrupt)
}

func TestArtifactRepository_Closed(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	ctx := context.Background()
	_, err = repo.Current(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, repo.Commit(ctx, newGeneration("g", false, time.Now()), []byte("s"), nil), storage.ErrStorageClosed)
}

func TestArtifactRepository_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	repo, err := NewArtifactRepository(backend)
	require.NoError(t, err)
	require.NoError(t, repo.Commit(ctx, newGeneration("g1", false, time.Now()), []byte("sparse"), nil))
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()
	repo, err = NewArtifactRepository(backend)
	require.NoError(t, err)

	current, err := repo.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("sparse"), current.Sparse)
}
