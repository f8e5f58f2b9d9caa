// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jonathan/resume-screener/internal/screening"
	"github.com/jonathan/resume-screener/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// maxSkillsToShow caps skill lists inside a box
	maxSkillsToShow = 8
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// skillList joins up to maxSkillsToShow skills and notes how many were left out.
func skillList(skills []string) string {
	if len(skills) == 0 {
		return "-"
	}
	shown := skills[:min(len(skills), maxSkillsToShow)]
	out := strings.Join(shown, ", ")
	if rest := len(skills) - len(shown); rest > 0 {
		out += fmt.Sprintf(" (+%d more)", rest)
	}
	return out
}

// firstLine returns the first line of a captured section.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

// PrintParsedResume outputs the fields extracted from one resume.
func (p *Printer) PrintParsedResume(parsed *types.ParsedResume) {
	if parsed == nil {
		return
	}

	var sb strings.Builder
	if parsed.IsEmpty() {
		sb.WriteString("No text could be extracted from this resume.\n")
	}
	fmt.Fprintf(&sb, "Name:        %s\n", orDash(parsed.Name))
	fmt.Fprintf(&sb, "Email:       %s\n", orDash(parsed.Email))
	fmt.Fprintf(&sb, "Phone:       %s\n", orDash(parsed.Phone))

	experience := "unknown"
	if parsed.ExperienceYears.Valid() {
		experience = strconv.FormatFloat(parsed.ExperienceYears.Float(), 'f', -1, 64) + " years"
	}
	fmt.Fprintf(&sb, "Experience:  %s\n", experience)
	fmt.Fprintf(&sb, "Skills (%d):  %s\n", len(parsed.Skills), skillList(parsed.Skills))
	if len(parsed.Keywords) > 0 {
		fmt.Fprintf(&sb, "Keywords:    %s\n", strings.Join(parsed.Keywords, ", "))
	}

	for _, section := range []struct{ label, text string }{
		{"Projects:", parsed.Projects},
		{"Education:", parsed.Education},
		{"Certs:", parsed.Certifications},
	} {
		if section.text != "" {
			fmt.Fprintf(&sb, "%-12s %s\n", section.label, firstLine(section.text))
		}
	}
	fmt.Fprintf(&sb, "Text:        %d characters", len(parsed.RawText))

	p.printBox("PARSED RESUME", sb.String())
}

// PrintScore outputs a score breakdown and the labels derived from it.
func (p *Printer) PrintScore(score types.ScoreBundle, n types.Narrative) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Final score:  %.2f  [%s]\n", score.FinalScore, n.Badge)
	fmt.Fprintf(&sb, "  Skills      %6.2f\n", score.SkillScore)
	fmt.Fprintf(&sb, "  Experience  %6.2f\n", score.ExperienceScore)
	fmt.Fprintf(&sb, "  Keywords    %6.2f\n", score.KeywordScore)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Matched:  %s\n", skillList(score.MatchedSkills))
	fmt.Fprintf(&sb, "Missing:  %s\n", skillList(score.MissingSkills))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Fit:      %s\n", n.FitCategory)
	sb.WriteString(n.Evaluation)

	p.printBox("MATCH SCORE", sb.String())
}

// PrintRanking outputs the top applications of a batch run.
func (p *Printer) PrintRanking(apps []types.Application) {
	if len(apps) == 0 {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Total resumes screened: %d\n\n", len(apps))

	count := min(len(apps), maxItemsToShow)
	for i := 0; i < count; i++ {
		app := apps[i]
		name := app.ParsedName
		if name == "" {
			name = app.ResumeFilename
		}
		fmt.Fprintf(&sb, "#%d  %s\n", i+1, name)
		fmt.Fprintf(&sb, "    Score: %.2f  %s\n", app.MatchScore, app.FitCategory)
		if app.ParseWarning != "" {
			fmt.Fprintf(&sb, "    Warning: %s\n", app.ParseWarning)
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(apps) > maxItemsToShow {
		fmt.Fprintf(&sb, "\n... and %d more", len(apps)-maxItemsToShow)
	}

	p.printBox("RANKED CANDIDATES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProgress writes one line per screening stage.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(ev screening.ProgressEvent) {
	fmt.Fprintf(p.out, "  [%-9s] %s: %s\n", ev.Stage, ev.Filename, ev.Message)
}
