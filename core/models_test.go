package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "simple", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, IDFromContent(tt.content), IDFromContent(tt.content))
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	assert.NotEqual(t, IDFromContent("content1"), IDFromContent("content2"))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "patent", KindPatent.String())
	assert.Equal(t, "gap", KindGap.String())
	assert.Equal(t, "kind(7)", Kind(7).String())

	k, err := ParseKind("gap")
	require.NoError(t, err)
	assert.Equal(t, KindGap, k)

	_, err = ParseKind("paper")
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestNewTextUnit(t *testing.T) {
	a := NewTextUnit("ID: AIH-001", Metadata{ID: "AIH-001", Kind: KindPatent})
	b := NewTextUnit("ID: AIH-001", Metadata{ID: "AIH-001", Kind: KindPatent})
	c := NewTextUnit("ID: AIH-001", Metadata{ID: "AIH-001", Kind: KindGap})

	assert.Equal(t, a.Key, b.Key)
	assert.NotEqual(t, a.Key, c.Key, "kind is part of the identity")
}

func TestRecordKinds(t *testing.T) {
	var p Record = &Patent{PatentID: "P1"}
	var g Record = &Gap{PatentID: "P1"}

	assert.Equal(t, KindPatent, p.Kind())
	assert.Equal(t, KindGap, g.Kind())
	assert.Equal(t, "P1", g.RecordID())
}
