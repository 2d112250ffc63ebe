package manifest

import (
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/lehigh-university-libraries/ttsmontage/internal/images"
	"github.com/lehigh-university-libraries/ttsmontage/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenRead(t *testing.T) {
	summary := &images.Summary{Entries: []images.Entry{
		{
			Record: models.CardRecord{Name: "Forest", Rarity: "common", SetCode: "dsk", ImageURL: "https://img/forest.jpg"},
			Path:   "out/dsk/common/forest.jpg",
			Result: images.Result{Outcome: models.OutcomeSuccess, Status: http.StatusOK, Bytes: 1234},
		},
		{
			Record: models.CardRecord{Name: "Lost", Rarity: "rare", SetCode: "dsk", ImageURL: "https://img/lost.jpg"},
			Path:   "out/dsk/rare/lost.jpg",
			Result: images.Result{Outcome: models.OutcomeSkipped, Status: http.StatusNotFound},
		},
		{
			Record: models.CardRecord{Name: "Broken", Rarity: "rare", SetCode: "dsk", ImageURL: "https://img/broken.jpg"},
			Path:   "out/dsk/rare/broken.jpg",
			Result: images.Result{Outcome: models.OutcomeFailed, Err: errors.New("connection reset")},
		},
	}}

	path := filepath.Join(t.TempDir(), "dsk", FileName)
	require.NoError(t, Write(path, FromSummary(summary)))

	rows, err := Read(path)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Row{
		Name: "Forest", Rarity: "common", SetCode: "dsk", ImageURL: "https://img/forest.jpg",
		Path: "out/dsk/common/forest.jpg", Outcome: "success", Status: 200, Bytes: 1234,
	}, rows[0])
	assert.Equal(t, "skipped", rows[1].Outcome)
	assert.Equal(t, int32(404), rows[1].Status)
	assert.Equal(t, "failed", rows[2].Outcome)
	assert.Equal(t, "connection reset", rows[2].Error)
}

func TestRowIsMissing(t *testing.T) {
	tests := []struct {
		outcome models.Outcome
		missing bool
	}{
		{models.OutcomeSuccess, false},
		{models.OutcomeExisting, false},
		{models.OutcomeSkipped, true},
		{models.OutcomeFailed, true},
		{models.OutcomePending, true},
	}
	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			assert.Equal(t, tt.missing, Row{Outcome: tt.outcome.String()}.IsMissing())
		})
	}
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), FileName))
	assert.Error(t, err)
}
