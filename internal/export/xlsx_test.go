package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nhle/jobportal/internal/model"
)

func TestWriteHackathon_TwoSheets(t *testing.T) {
	regs := []model.Registration{
		{ID: "1", TeamName: "Gophers", Name: "Ana", Email: "ana@example.com", TeamSize: 3,
			RegisteredAt: json.RawMessage(`[2026,3,1,9,30]`)},
		{ID: "2", TeamName: "Solo", Name: "Bo", Email: "bo@example.com", TeamSize: 1},
	}
	subs := []model.Submission{
		{ID: "9", TeamName: "Gophers", ProjectName: "Queue", GithubURL: "https://github.com/x/q",
			Score: 8.5, SubmittedAt: json.RawMessage(`"2026-03-03T18:00:00"`)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHackathon(&buf, regs, subs, time.UTC))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{RegistrationsSheet, SubmissionsSheet}, f.GetSheetList())

	rows, err := f.GetRows(RegistrationsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Team", rows[0][0])
	assert.Equal(t, []string{"Gophers", "Ana", "ana@example.com", "3", "2026-03-01 09:30"}, rows[1])
	assert.Equal(t, "Solo", rows[2][0])

	rows, err = f.GetRows(SubmissionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Queue", rows[1][1])
	assert.Equal(t, "8.5", rows[1][5])
	assert.Equal(t, "2026-03-03 18:00", rows[1][6])
}

func TestWriteHackathon_EmptyStillHasHeaders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHackathon(&buf, nil, nil, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SubmissionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Project", rows[0][1])
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "spring-build-week-2026.xlsx", Filename(model.Hackathon{ID: "3", Title: "Spring Build Week 2026"}))
	assert.Equal(t, "hackathon-3.xlsx", Filename(model.Hackathon{ID: "3", Title: "***"}))
}

func TestFormatInstant(t *testing.T) {
	assert.Equal(t, "", formatInstant(nil, time.UTC))
	assert.Equal(t, "", formatInstant([]byte("null"), time.UTC))
	assert.Equal(t, "soon", formatInstant([]byte(`"soon"`), time.UTC))
}
