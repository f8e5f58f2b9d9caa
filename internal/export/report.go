// Package export writes screening results as an Excel workbook for recruiters.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jonathan/resume-screener/internal/narrative"
	"github.com/jonathan/resume-screener/internal/ranking"
	"github.com/jonathan/resume-screener/internal/types"
)

// Sheet names
const (
	SummarySheet   = "Summary"
	CandidateSheet = "Ranked Candidates"
)

// CandidateHeaders are the columns of the ranked candidates sheet.
var CandidateHeaders = []string{
	"Rank", "Candidate", "Email", "Match Score", "Skill Score", "Experience Score",
	"Keyword Score", "Experience (yrs)", "Fit Category", "Status",
	"Matched Skills", "Missing Skills", "Parse Warning",
}

// fill colours per fit category, best first
var fitFills = map[string]string{
	narrative.FitStrong:  "C6EFCE",
	narrative.FitGood:    "FFEB9C",
	narrative.FitAverage: "FFC7CE",
	narrative.FitWeak:    "FF9999",
}

// Now is the clock used for the "Generated" cell.
var Now = time.Now

// WriteReport writes a workbook for job with a summary sheet and the
// applications ranked by match score.
func WriteReport(w io.Writer, job *types.Job, apps []types.Application) error {
	if job == nil {
		return fmt.Errorf("job is required")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(CandidateSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	ranked := ranking.RankApplications(apps)

	st, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("failed to create styles: %w", err)
	}
	if err := writeSummary(f, st, job, ranked); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeCandidates(f, st, ranked); err != nil {
		return fmt.Errorf("failed to create candidates sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveReport writes the workbook to path, adding .xlsx when missing.
func SaveReport(path string, job *types.Job, apps []types.Application) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	if err := WriteReport(out, job, apps); err != nil {
		_ = out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close report file: %w", err)
	}
	return path, nil
}

type styles struct {
	title  int
	label  int
	header int
	fit    map[string]int
	plain  int
}

func border() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

func newStyles(f *excelize.File) (*styles, error) {
	var st styles
	var err error

	st.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	st.label, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border(),
	})
	if err != nil {
		return nil, err
	}
	st.plain, err = f.NewStyle(&excelize.Style{Border: border()})
	if err != nil {
		return nil, err
	}

	st.fit = make(map[string]int, len(fitFills))
	for fit, color := range fitFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill:   excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Border: border(),
		})
		if err != nil {
			return nil, err
		}
		st.fit[fit] = id
	}
	return &st, nil
}

// sheetWriter tracks the next free row of a two column sheet.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (sw *sheetWriter) pair(label string, value any, style int) {
	if sw.err != nil {
		return
	}
	a, b := fmt.Sprintf("A%d", sw.row), fmt.Sprintf("B%d", sw.row)
	if sw.err = sw.f.SetCellValue(sw.sheet, a, label); sw.err != nil {
		return
	}
	if sw.err = sw.f.SetCellValue(sw.sheet, b, value); sw.err != nil {
		return
	}
	sw.err = sw.f.SetCellStyle(sw.sheet, a, a, style)
	sw.row++
}

func (sw *sheetWriter) heading(text string, style int) {
	if sw.err != nil {
		return
	}
	a, b := fmt.Sprintf("A%d", sw.row), fmt.Sprintf("B%d", sw.row)
	if sw.err = sw.f.SetCellValue(sw.sheet, a, text); sw.err != nil {
		return
	}
	if sw.err = sw.f.SetCellStyle(sw.sheet, a, b, style); sw.err != nil {
		return
	}
	sw.err = sw.f.MergeCell(sw.sheet, a, b)
	sw.row++
}

func (sw *sheetWriter) skip() { sw.row++ }

func writeSummary(f *excelize.File, st *styles, job *types.Job, ranked []types.Application) error {
	if err := f.SetColWidth(SummarySheet, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 50); err != nil {
		return err
	}

	sw := &sheetWriter{f: f, sheet: SummarySheet, row: 1}
	sw.heading("Screening Report", st.title)
	sw.skip()

	sw.pair("Job Title:", job.Title, st.label)
	sw.pair("Job ID:", job.ID.String(), st.label)
	sw.pair("Required Skills:", strings.Join(job.RequiredSkills, ", "), st.label)
	sw.pair("Generated:", Now().UTC().Format("2006-01-02 15:04:05"), st.label)
	sw.pair("Total Applications:", len(ranked), st.label)
	sw.skip()

	stats := ranking.Summarize(ranked)
	sw.heading("Match Scores", st.title)
	sw.pair("Average:", stats.Average, st.label)
	sw.pair("Median:", stats.Median, st.label)
	sw.pair("Highest:", stats.Highest, st.label)
	sw.pair("Lowest:", stats.Lowest, st.label)
	sw.skip()

	sw.heading("Fit Categories", st.title)
	fits := make(map[string]int)
	for _, app := range ranked {
		fits[app.FitCategory]++
	}
	for _, fit := range narrative.FitCategories {
		sw.pair(fit+":", fits[fit], st.label)
	}
	sw.skip()

	sw.heading("Score Distribution", st.title)
	for _, b := range ranking.Distribution(ranked) {
		sw.pair(b.Label+":", b.Count, st.label)
	}
	sw.skip()

	sw.heading("Status", st.title)
	statuses := make(map[types.Status]int)
	for _, app := range ranked {
		statuses[app.Status]++
	}
	for _, s := range types.AllStatuses {
		sw.pair(string(s)+":", statuses[s], st.label)
	}

	return sw.err
}

func writeCandidates(f *excelize.File, st *styles, ranked []types.Application) error {
	for col, header := range CandidateHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(CandidateSheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(CandidateSheet, cell, cell, st.header); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(CandidateSheet, "A", "A", 8); err != nil {
		return err
	}
	if err := f.SetColWidth(CandidateSheet, "B", "C", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(CandidateSheet, "D", "J", 15); err != nil {
		return err
	}
	if err := f.SetColWidth(CandidateSheet, "K", "M", 40); err != nil {
		return err
	}

	for i, app := range ranked {
		row := i + 2
		values := []any{
			i + 1,
			candidateName(app),
			app.Email,
			app.MatchScore,
			app.SkillScore,
			app.ExperienceScore,
			app.KeywordScore,
			app.ParsedExperience,
			app.FitCategory,
			string(app.Status),
			strings.Join(app.MatchedSkills, ", "),
			strings.Join(app.MissingSkills, ", "),
			app.ParseWarning,
		}
		start, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(CandidateSheet, start, &values); err != nil {
			return err
		}

		style, ok := st.fit[app.FitCategory]
		if !ok {
			style = st.plain
		}
		end, _ := excelize.CoordinatesToCellName(len(CandidateHeaders), row)
		if err := f.SetCellStyle(CandidateSheet, start, end, style); err != nil {
			return err
		}
	}

	if len(ranked) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(CandidateHeaders), len(ranked)+1)
		if err := f.AutoFilter(CandidateSheet, "A1:"+last, nil); err != nil {
			return err
		}
	}

	return f.SetPanes(CandidateSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// candidateName prefers the submitted name, then the parsed one, then the file.
func candidateName(app types.Application) string {
	switch {
	case app.FullName != "":
		return app.FullName
	case app.ParsedName != "":
		return app.ParsedName
	default:
		return app.ResumeFilename
	}
}
