package dense

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/poiesic/inventree/ai/mock"
	"github.com/poiesic/inventree/core"
	"github.com/poiesic/inventree/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var roundTripQueries = []string{
	"AIH-002",
	"battery separator",
	"wet-road braking data",
	"phase change material",
	"predictive torque",
	"ceramic dendrites",
}

func buildCorpus(t *testing.T) (*Index, *mock.MockEmbedder) {
	t.Helper()
	embedder := mock.NewMockEmbedder()
	idx, err := Build(context.Background(), corpus(), embedder, WithModel(mock.MockModel))
	require.NoError(t, err)
	return idx, embedder
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	ctx := context.Background()
	original, embedder := buildCorpus(t)

	data, err := original.MarshalBinary()
	require.NoError(t, err)

	loaded, err := Unmarshal(data, ExpectModel(mock.MockModel), ExpectDimension(mock.DefaultDimension))
	require.NoError(t, err)
	assert.Equal(t, original.Model(), loaded.Model())
	assert.Equal(t, original.Dimension(), loaded.Dimension())
	assert.Equal(t, original.Units(), loaded.Units())

	for _, q := range roundTripQueries {
		want, err := original.Query(ctx, q, embedder, 5)
		require.NoError(t, err)
		got, err := loaded.Query(ctx, q, embedder, 5)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("query %q mismatch (-original +loaded):\n%s", q, diff)
		}
	}
}

func TestMarshalUnmarshal_EmptyIndex(t *testing.T) {
	idx, err := Build(context.Background(), nil, mock.NewMockEmbedder(), WithModel("m"))
	require.NoError(t, err)

	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	loaded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Zero(t, loaded.Len())
	assert.Equal(t, "m", loaded.Model())
}

func TestMarshalBinary_NilIndex(t *testing.T) {
	var idx *Index
	_, err := idx.MarshalBinary()
	assert.ErrorIs(t, err, core.ErrDenseUnavailable)
}

func TestUnmarshal_Corrupt(t *testing.T) {
	original, _ := buildCorpus(t)
	data, err := original.MarshalBinary()
	require.NoError(t, err)

	damaged := append([]byte(nil), data...)
	damaged[len(damaged)-10] ^= 0x01

	tests := []struct {
		name string
		data []byte
		opts []LoadOption
	}{
		{name: "empty", data: nil},
		{name: "flipped byte", data: damaged},
		{name: "truncated", data: data[:len(data)/2]},
		{name: "version mismatch", data: storage.Seal(storage.ArtifactDense, FormatVersion+1, nil)},
		{name: "sparse artifact", data: storage.Seal(storage.ArtifactSparse, FormatVersion, nil)},
		{name: "garbage payload", data: storage.Seal(storage.ArtifactDense, FormatVersion, []byte{1, 2, 3})},
		{name: "model mismatch", data: data, opts: []LoadOption{ExpectModel("text-embedding-3-small")}},
		{name: "dimension mismatch", data: data, opts: []LoadOption{ExpectDimension(768)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := Unmarshal(tt.data, tt.opts...)
			assert.ErrorIs(t, err, core.ErrIndexCorrupt)
			assert.Nil(t, idx, "never an empty index")
		})
	}
}

func TestSaveLoadFile(t *testing.T) {
	ctx := context.Background()
	original, embedder := buildCorpus(t)
	path := filepath.Join(t.TempDir(), "dense.idx")

	require.NoError(t, original.SaveFile(path))

	loaded, err := LoadFile(path, ExpectModel(mock.MockModel))
	require.NoError(t, err)

	for _, q := range roundTripQueries {
		want, err := original.Query(ctx, q, embedder, 3)
		require.NoError(t, err)
		got, err := loaded.Query(ctx, q, embedder, 3)
		require.NoError(t, err)
		assert.Equal(t, want, got, q)
	}
}
