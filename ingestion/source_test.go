package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/inventree/core"
	"github.com/poiesic/inventree/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const patentsJSON = `[
  {"patent_id": "AIH-001", "title": "Battery separator", "proposed_solution": "Ceramic membrane",
   "limitations": "Cost", "innovation_type": "Material"},
  {"patent_id": "AIH-002", "title": "Braking controller", "proposed_solution": "Torque blending",
   "limitations": "Wet roads", "innovation_type": "Control"}
]`

const gapsJSON = `[
  {"patent_id": "AIH-002", "gap_type": "validation", "gap_reason": "No wet-road data",
   "potential_research_direction": "Field trials"}
]`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource_Records(t *testing.T) {
	dir := t.TempDir()
	src := &FileSource{
		PatentsPath: writeFile(t, dir, "patent.json", patentsJSON),
		GapsPath:    writeFile(t, dir, "gaps.json", gapsJSON),
	}

	records, err := src.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, core.KindPatent, records[0].Kind())
	assert.Equal(t, "AIH-001", records[0].RecordID())
	assert.Equal(t, core.KindPatent, records[1].Kind())
	assert.Equal(t, core.KindGap, records[2].Kind())

	gap := records[2].(*core.Gap)
	assert.Equal(t, "Field trials", gap.PotentialResearchDirection)
}

func TestFileSource_MissingFiles(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		src     *FileSource
		want    int
		wantErr error
	}{
		{
			name: "missing gap file",
			src: &FileSource{
				PatentsPath: writeFile(t, dir, "p.json", patentsJSON),
				GapsPath:    filepath.Join(dir, "absent.json"),
			},
			want: 2,
		},
		{
			name: "both missing",
			src: &FileSource{
				PatentsPath: filepath.Join(dir, "nope1.json"),
				GapsPath:    filepath.Join(dir, "nope2.json"),
			},
			want: 0,
		},
		{
			name:    "none configured",
			src:     &FileSource{},
			wantErr: ErrNoInputFiles,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := tt.src.Records(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestFileSource_MalformedDocument(t *testing.T) {
	dir := t.TempDir()
	src := &FileSource{PatentsPath: writeFile(t, dir, "p.json", `{"patent_id": "AIH-001"}`)}

	_, err := src.Records(context.Background())
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestFileSource_Cancelled(t *testing.T) {
	dir := t.TempDir()
	src := &FileSource{PatentsPath: writeFile(t, dir, "p.json", patentsJSON)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Records(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeRecords(t *testing.T) {
	var patents []*core.Patent
	require.NoError(t, DecodeRecords(strings.NewReader(`[{"patent_id": "X"}, null]`), &patents))
	require.Len(t, patents, 2)
	assert.Equal(t, "X", patents[0].PatentID)
	assert.Nil(t, patents[1])

	err := DecodeRecords(strings.NewReader(`[] []`), &patents)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestRecordsSource(t *testing.T) {
	src := RecordsSource{&core.Patent{PatentID: "A"}}
	records, err := src.Records(context.Background())
	require.NoError(t, err)
	records[0] = nil
	assert.NotNil(t, src[0])
}

func TestFileSource_AbsentVersusEmptyFields(t *testing.T) {
	dir := t.TempDir()
	src := &FileSource{PatentsPath: writeFile(t, dir, "p.json", `[
  {"patent_id": "AIH-001", "title": "Battery separator", "proposed_solution": "Ceramic membrane",
   "limitations": "", "innovation_type": "Material"},
  {"patent_id": "AIH-003", "title": "Pack cooling", "limitations": "Weight", "innovation_type": "Thermal"}
]`)}

	records, err := src.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	units, warnings := normalize.Normalize(records)
	require.Len(t, units, 1)
	assert.Equal(t, "AIH-001", units[0].Metadata.ID)
	require.Len(t, warnings, 1)
	assert.ErrorIs(t, warnings[0], core.ErrMissingField)
	assert.Contains(t, warnings[0].Error(), "proposed_solution")
}
