package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lehigh-university-libraries/ttsmontage/internal/catalog"
	"github.com/lehigh-university-libraries/ttsmontage/internal/images"
	"github.com/lehigh-university-libraries/ttsmontage/internal/models"
	"github.com/lehigh-university-libraries/ttsmontage/internal/montage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *Report {
	r := New("dsk")
	r.AddFetch(&catalog.SetCards{
		SetCode: "dsk",
		Tiers: []catalog.TierResult{
			{Rarity: "common", Outcome: models.OutcomeSuccess, Status: 200, Cards: 2},
			{Rarity: "mythic", Outcome: models.OutcomeSkipped, Status: 404},
		},
	}, &images.Summary{Downloaded: 1, Skipped: 1, Entries: make([]images.Entry, 2)})

	r.StartMontage(montage.DefaultOptions())
	r.AddGroup("common", 71, nil, &montage.Result{
		Planned: 3,
		Sheets: []montage.Sheet{
			{Index: 0, Path: "out/dsk_common_0.jpg", Start: 0, End: 69},
			{Index: 2, Path: "out/dsk_common_2.jpg", Start: 70, End: 71},
		},
		Errors: []error{errors.New("non-uniform image shape in chunk 1 at image 69")},
	})
	return r
}

func TestCounters(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, 2, r.SheetsWritten())
	assert.Equal(t, 1, r.ShapeErrors())
	assert.Equal(t, 1, r.Fetch.TiersSkipped)

	assert.Zero(t, New("x").SheetsWritten())
}

func TestSaveToYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.yaml")
	require.NoError(t, sampleReport().SaveToYAML(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))

	fetch := doc["fetch"].(map[string]any)
	tiers := fetch["tiers"].([]any)
	assert.Equal(t, "skipped", tiers[1].(map[string]any)["outcome"])
	assert.Equal(t, 1, fetch["skipped"])

	montageDoc := doc["montage"].(map[string]any)
	assert.Equal(t, "7x10", montageDoc["grid"])
	groups := montageDoc["groups"].([]any)
	assert.Len(t, groups[0].(map[string]any)["sheets"], 2)
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	sampleReport().Print(&buf)

	out := buf.String()
	assert.Contains(t, out, "Rarity tiers skipped: 1 of 2")
	assert.Contains(t, out, "Card images missing: 1 (skipped 1, failed 0)")
	assert.Contains(t, out, "out/dsk_common_0.jpg (69 images)")
	assert.Contains(t, out, "! non-uniform image shape")
}

func TestExistingImagesAreNotMissing(t *testing.T) {
	r := New("dsk")
	r.AddFetch(&catalog.SetCards{SetCode: "dsk"}, &images.Summary{Existing: 3, Entries: make([]images.Entry, 3)})

	assert.Equal(t, 3, r.Fetch.Existing)
	assert.Zero(t, r.Fetch.Missing)

	var buf bytes.Buffer
	r.Print(&buf)
	assert.Contains(t, buf.String(), "Card images already on disk: 3")
	assert.Contains(t, buf.String(), "Card images missing: 0 (skipped 0, failed 0)")
}
