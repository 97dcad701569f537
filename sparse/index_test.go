package sparse

import (
	"testing"

	"github.com/poiesic/inventree/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unit(id string, kind core.Kind, content string) core.TextUnit {
	return core.NewTextUnit(content, core.Metadata{ID: id, Kind: kind})
}

func corpus() []core.TextUnit {
	return []core.TextUnit{
		unit("AIH-001", core.KindPatent, "ID: AIH-001\nTITLE: Solid-state battery separator\nSOLUTION: Ceramic membrane blocks dendrites"),
		unit("AIH-002", core.KindPatent, "ID: AIH-002\nTITLE: Regenerative braking controller\nSOLUTION: Predictive torque blending"),
		unit("AIH-003", core.KindPatent, "ID: AIH-003\nTITLE: Thermal battery pack cooling\nSOLUTION: Phase change material around cells"),
		unit("AIH-002", core.KindGap, "TARGET_ID: AIH-002\nGAP_TYPE: validation\nREASON: No wet-road braking data"),
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "identifier kept whole", text: "Find AIH-002.", want: []string{"find", "aih-002"}},
		{name: "labels lowercased", text: "TARGET_ID: AIH-002", want: []string{"target_id", "aih-002"}},
		{name: "stop words dropped", text: "the cooling of a battery", want: []string{"cooling", "battery"}},
		{name: "punctuation only", text: "-- ... ()", want: []string{}},
		{name: "empty", text: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.text))
		})
	}
}

func TestQuery_IdentifierMatch(t *testing.T) {
	idx := Build(corpus())
	require.Equal(t, 4, idx.Len())

	results := idx.Query("AIH-002", 5)
	require.Len(t, results, 2)

	ids := []string{results[0].Unit.Metadata.ID, results[1].Unit.Metadata.ID}
	assert.Equal(t, []string{"AIH-002", "AIH-002"}, ids)
	kinds := map[core.Kind]bool{results[0].Unit.Metadata.Kind: true, results[1].Unit.Metadata.Kind: true}
	assert.True(t, kinds[core.KindPatent] && kinds[core.KindGap])
}

func TestQuery_Ordering(t *testing.T) {
	idx := Build(corpus())

	results := idx.Query("battery cooling", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "AIH-003", results[0].Unit.Metadata.ID, "matches both terms")

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
	for _, r := range results {
		assert.Greater(t, r.Score, 0.0)
	}
}

func TestQuery_Truncates(t *testing.T) {
	idx := Build(corpus())

	assert.Len(t, idx.Query("id aih-001 aih-002 aih-003", 2), 2)
	assert.Empty(t, idx.Query("battery", 0))
}

func TestQuery_TiesKeepBuildOrder(t *testing.T) {
	units := []core.TextUnit{
		unit("B", core.KindPatent, "identical text body"),
		unit("A", core.KindPatent, "identical text body"),
		unit("C", core.KindPatent, "something else entirely"),
	}
	idx := Build(units)

	results := idx.Query("identical body", 5)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, "B", results[0].Unit.Metadata.ID)
	assert.Equal(t, "A", results[1].Unit.Metadata.ID)
}

func TestQuery_EmptyIndex(t *testing.T) {
	var nilIndex *Index
	assert.Empty(t, nilIndex.Query("anything", 5))
	assert.NotNil(t, nilIndex.Query("anything", 5))

	assert.Empty(t, Build(nil).Query("anything", 5))
}

func TestQuery_NoMatch(t *testing.T) {
	idx := Build(corpus())
	assert.Empty(t, idx.Query("zeppelin", 5))
	assert.Empty(t, idx.Query("the of and", 5), "stop words alone never match")
}

func TestBuild_Deterministic(t *testing.T) {
	a := Build(corpus())
	b := Build(corpus())

	for _, q := range []string{"AIH-002", "battery", "braking data", "phase change"} {
		assert.Equal(t, a.Query(q, 5), b.Query(q, 5), q)
	}
}

func TestBuild_DoesNotAliasInput(t *testing.T) {
	units := corpus()
	idx := Build(units)
	units[0] = unit("X", core.KindGap, "mutated")

	assert.Equal(t, "AIH-001", idx.Units()[0].Metadata.ID)
}
