package storage

import (
	"testing"
	"time"

	"github.com/poiesic/inventree/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalGeneration(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name string
		gen  *core.Generation
	}{
		{
			name: "sparse only",
			gen:  &core.Generation{ID: "a", CreatedAt: now, Units: 3},
		},
		{
			name: "with dense",
			gen: &core.Generation{
				ID:        "b",
				CreatedAt: now,
				Units:     12,
				HasDense:  true,
				Model:     "nomic-embed-text",
				Dimension: 768,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalGeneration(tt.gen)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalGeneration(data)
			require.NoError(t, err)
			assert.True(t, tt.gen.CreatedAt.Equal(decoded.CreatedAt))
			decoded.CreatedAt = tt.gen.CreatedAt
			assert.Equal(t, tt.gen, decoded)
		})
	}
}

func TestUnmarshalGeneration_Invalid(t *testing.T) {
	_, err := UnmarshalGeneration([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalTextUnits(t *testing.T) {
	units := []core.TextUnit{
		core.NewTextUnit("ID: A", core.Metadata{ID: "A", Kind: core.KindPatent}),
		core.NewTextUnit("TARGET_ID: A", core.Metadata{ID: "A", Kind: core.KindGap}),
	}

	data := MarshalTextUnits(units)
	decoded, n, err := UnmarshalTextUnits(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, units, decoded)

	_, _, err = UnmarshalTextUnits(data[:3])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
