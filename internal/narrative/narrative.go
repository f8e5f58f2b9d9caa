// Package narrative turns a match score into the labels shown to recruiters.
// Nothing here adds information; every label is a lookup on the score or a
// template over the parsed resume.
package narrative

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jonathan/resume-screener/internal/types"
)

// Defaults used when the parsed resume lacks a field
const (
	DefaultName   = "The candidate"
	DefaultSkills = "basic technical skills"
	// SummarySkillLimit is the number of skills quoted in a summary.
	SummarySkillLimit = 6
)

// Evaluation messages, strongest first
const (
	EvaluationStrong  = "Strong backend fundamentals. Suitable for junior to mid-level backend developer roles."
	EvaluationDecent  = "Decent technical base. Needs improvement but can be trained for junior backend roles."
	EvaluationPartial = "Partial alignment with the role. Some relevant skills present but notable gaps remain."
	EvaluationWeak    = "Weak technical alignment for backend roles. Candidate needs more foundational practice."
)

// Fit categories
const (
	FitStrong  = "Strong Fit"
	FitGood    = "Good Fit"
	FitAverage = "Average Fit"
	FitWeak    = "Weak Fit"
)

// FitCategories lists the categories from best to worst.
var FitCategories = []string{FitStrong, FitGood, FitAverage, FitWeak}

// Score badges
const (
	BadgeExcellent = "excellent"
	BadgeSuccess   = "success"
	BadgeGood      = "good"
	BadgeWarning   = "warning"
	BadgeDanger    = "danger"
	BadgeCritical  = "critical"
	BadgeNeutral   = "neutral"
)

type tier struct {
	min   float64
	label string
}

var (
	evaluationTiers = []tier{{80, EvaluationStrong}, {60, EvaluationDecent}, {45, EvaluationPartial}}
	fitTiers        = []tier{{85, FitStrong}, {65, FitGood}, {45, FitAverage}}
	badgeTiers      = []tier{{90, BadgeExcellent}, {80, BadgeSuccess}, {65, BadgeGood}, {50, BadgeWarning}, {35, BadgeDanger}}
)

func lookup(score float64, tiers []tier, fallback string) string {
	for _, t := range tiers {
		if score >= t.min {
			return t.label
		}
	}
	return fallback
}

// Summary renders the one-paragraph candidate summary.
func Summary(parsed *types.ParsedResume, score float64) string {
	name := DefaultName
	years := 0.0
	skills := DefaultSkills

	if parsed != nil {
		if strings.TrimSpace(parsed.Name) != "" {
			name = parsed.Name
		}
		if parsed.ExperienceYears.Valid() {
			years = parsed.ExperienceYears.Float()
		}
		if len(parsed.Skills) > 0 {
			list := parsed.Skills
			if len(list) > SummarySkillLimit {
				list = list[:SummarySkillLimit]
			}
			skills = strings.Join(list, ", ")
		}
	}

	return fmt.Sprintf("%s has around %s years of experience and shows solid backend understanding. "+
		"The resume highlights skills including %s. "+
		"Overall match score is %s%%.",
		name, formatNumber(years), skills, formatNumber(score))
}

// Evaluate returns the evaluation message for a score.
func Evaluate(score float64) string {
	return lookup(score, evaluationTiers, EvaluationWeak)
}

// FitCategory returns the coarse fit bucket for a score.
func FitCategory(score float64) string {
	return lookup(score, fitTiers, FitWeak)
}

// ScoreBadge returns the display class for a score. Non-finite scores are neutral.
func ScoreBadge(score float64) string {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return BadgeNeutral
	}
	return lookup(score, badgeTiers, BadgeCritical)
}

// Generate builds every label for a scored resume.
func Generate(parsed *types.ParsedResume, score types.ScoreBundle) types.Narrative {
	return types.Narrative{
		Summary:     Summary(parsed, score.FinalScore),
		Evaluation:  Evaluate(score.FinalScore),
		FitCategory: FitCategory(score.FinalScore),
		Badge:       ScoreBadge(score.FinalScore),
	}
}

// formatNumber prints the shortest form: 3 not 3.00, 2.5 not 2.50.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
