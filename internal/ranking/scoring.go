// Package ranking scores parsed resumes against job requirements and orders
// applications by that score.
package ranking

import (
	"math"
	"sort"

	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/types"
)

// Component weights of the final score
const (
	SkillWeight      = 0.5
	ExperienceWeight = 0.3
	KeywordWeight    = 0.2
)

// Experience scoring constants
const (
	// UnderMinimumFloor is the lowest score for a candidate below the minimum.
	UnderMinimumFloor = 30.0
	// OverMaximumFloor is the lowest score for a candidate above the maximum.
	OverMaximumFloor = 70.0
	// OverMaximumPenalty is subtracted per year above the maximum.
	OverMaximumPenalty = 5.0
	// NonNumericExperienceScore is used when experience is not a finite number.
	NonNumericExperienceScore = 40.0
)

const fullScore = 100.0

// ComputeMatchScore scores a parsed resume against job requirements.
// It is pure: the same inputs always produce the same bundle, and neither
// input is modified. A nil parsed resume scores as an empty one and nil
// requirements impose nothing.
func ComputeMatchScore(parsed *types.ParsedResume, req *types.JobRequirements) types.ScoreBundle {
	if parsed == nil {
		parsed = &types.ParsedResume{}
	}
	if req == nil {
		req = &types.JobRequirements{}
	}

	skillScore, matched, missing := computeSkillScore(parsed.Skills, req.RequiredSkills)
	experienceScore := computeExperienceScore(parsed.ExperienceYears.Float(), req.MinExperience, req.MaxExperience)
	keywordScore := computeKeywordScore(parsed.Keywords, req.JDKeywords)

	final := SkillWeight*skillScore + ExperienceWeight*experienceScore + KeywordWeight*keywordScore

	return types.ScoreBundle{
		FinalScore:      round2(clamp(final, 0, fullScore)),
		SkillScore:      round2(skillScore),
		ExperienceScore: round2(experienceScore),
		KeywordScore:    round2(keywordScore),
		MatchedSkills:   matched,
		MissingSkills:   missing,
	}
}

// computeSkillScore returns the share of required skills present in the
// resume. Without requirements every parsed skill counts as matched.
func computeSkillScore(parsedSkills, requiredSkills []string) (float64, []string, []string) {
	parsed := parsing.Normalize(parsedSkills)
	required := parsing.Normalize(requiredSkills)

	if len(required) == 0 {
		sort.Strings(parsed)
		return fullScore, parsed, []string{}
	}

	have := make(map[string]bool, len(parsed))
	for _, s := range parsed {
		have[s] = true
	}

	matched := make([]string, 0, len(required))
	missing := make([]string, 0)
	for _, s := range required {
		if have[s] {
			matched = append(matched, s)
		} else {
			missing = append(missing, s)
		}
	}
	sort.Strings(matched)
	sort.Strings(missing)

	return float64(len(matched)) / float64(len(required)) * fullScore, matched, missing
}

// computeExperienceScore compares years of experience with the job range.
// A zero bound counts as no bound.
func computeExperienceScore(years float64, minExp, maxExp *float64) float64 {
	if math.IsNaN(years) || math.IsInf(years, 0) {
		return NonNumericExperienceScore
	}
	if minExp == nil && maxExp == nil {
		return fullScore
	}

	if minExp != nil && *minExp > 0 && years < *minExp {
		return math.Max(UnderMinimumFloor, years / *minExp * fullScore)
	}

	if maxExp != nil && *maxExp > 0 && years > *maxExp {
		over := years - *maxExp
		return math.Max(OverMaximumFloor, fullScore-over*OverMaximumPenalty)
	}

	return fullScore
}

// computeKeywordScore returns the share of job keywords found in the resume.
func computeKeywordScore(parsedKeywords, jdKeywords []string) float64 {
	wanted := parsing.Normalize(jdKeywords)
	if len(wanted) == 0 {
		return fullScore
	}

	have := make(map[string]bool)
	for _, k := range parsing.Normalize(parsedKeywords) {
		have[k] = true
	}

	found := 0
	for _, k := range wanted {
		if have[k] {
			found++
		}
	}
	return float64(found) / float64(len(wanted)) * fullScore
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
