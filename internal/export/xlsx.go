// Package export writes hackathon participation data to spreadsheets.
package export

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nhle/jobportal/internal/logger"
	"github.com/nhle/jobportal/internal/model"
	"github.com/nhle/jobportal/internal/session"
)

const (
	RegistrationsSheet = "Registrations"
	SubmissionsSheet   = "Submissions"

	timestampLayout = "2006-01-02 15:04"
)

var (
	registrationHeader = []interface{}{"Team", "Applicant", "Email", "Team size", "Registered at"}
	submissionHeader   = []interface{}{"Team", "Project", "Summary", "GitHub", "Demo", "Score", "Submitted at"}
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename suggests a file name for a hackathon export.
func Filename(h model.Hackathon) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(h.Title, "-"), "-")
	if base == "" {
		base = "hackathon-" + h.ID.String()
	}
	return strings.ToLower(base) + ".xlsx"
}

// WriteHackathon renders registrations and submissions as a two-sheet
// workbook. Timestamps are shown in loc.
func WriteHackathon(
	w io.Writer,
	regs []model.Registration,
	subs []model.Submission,
	loc *time.Location,
) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", RegistrationsSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if _, err := f.NewSheet(SubmissionsSheet); err != nil {
		return fmt.Errorf("adding sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	regRows := make([][]interface{}, 0, len(regs))
	for _, r := range regs {
		regRows = append(regRows, []interface{}{
			r.TeamName, r.Name, r.Email, r.TeamSize, formatInstant(r.RegisteredAt, loc),
		})
	}
	if err := writeSheet(f, RegistrationsSheet, registrationHeader, regRows, headerStyle); err != nil {
		return err
	}

	subRows := make([][]interface{}, 0, len(subs))
	for _, s := range subs {
		subRows = append(subRows, []interface{}{
			s.TeamName, s.ProjectName, s.Summary, s.GithubURL, s.DemoURL, s.Score,
			formatInstant(s.SubmittedAt, loc),
		})
	}
	if err := writeSheet(f, SubmissionsSheet, submissionHeader, subRows, headerStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(
	f *excelize.File,
	sheet string,
	header []interface{},
	rows [][]interface{},
	headerStyle int,
) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 20); err != nil {
		return fmt.Errorf("sizing %s columns: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+2, err)
		}
	}

	err = f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	if err != nil {
		return fmt.Errorf("freezing %s header: %w", sheet, err)
	}
	return nil
}

func formatInstant(raw []byte, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t, err := session.ParseInstant(raw, loc)
	if errors.Is(err, session.ErrMissing) {
		return ""
	}
	if err != nil {
		return strings.Trim(string(raw), `"`)
	}
	return t.In(loc).Format(timestampLayout)
}
