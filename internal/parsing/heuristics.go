// Package parsing derives structured fields from extracted resume text.
//
// Every extractor is a plain heuristic (regular expressions, a skill
// dictionary and section headings). Nothing here understands language; the
// goal is a deterministic, explainable record that the ranking package can
// score.
package parsing

import "regexp"

// SectionRule describes a free-text block that starts under a heading.
type SectionRule struct {
	// Triggers start capture on the line after the first line containing one of them.
	Triggers []string
	// StopWords end capture when a captured line contains one of them.
	StopWords []string
}

// Heuristics groups every tunable constant used by the field extractors.
// A zero value is not usable; start from DefaultHeuristics.
type Heuristics struct {
	NameScanLines int
	NameMinTokens int
	NameMaxTokens int
	NameBlocklist []string
	NamePattern   *regexp.Regexp

	EmailPattern *regexp.Regexp
	PhonePattern *regexp.Regexp

	// YearPatterns are tried in order; each must capture the number in group 1.
	YearPatterns  []*regexp.Regexp
	MonthPattern  *regexp.Regexp
	MaxYears      float64
	MaxMonths     float64
	DecimalPlaces int

	Projects       SectionRule
	Education      SectionRule
	Certifications SectionRule

	// BulletChars are trimmed from both ends of captured section lines.
	BulletChars string
}

const number = `(\d+(?:\.\d+)?)`

// DefaultHeuristics returns the standard extraction constants.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		NameScanLines: 10,
		NameMinTokens: 2,
		NameMaxTokens: 4,
		NameBlocklist: []string{"developer", "engineer", "skills", "experience", "projects", "email", "phone"},
		NamePattern:   regexp.MustCompile(`^[A-Za-z ]+$`),

		EmailPattern: regexp.MustCompile(`(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`),
		PhonePattern: regexp.MustCompile(`(\+?\d{1,3})?[\s\-]?\d{10}`),

		YearPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)` + number + `\+?\s*years?`),
			regexp.MustCompile(`(?i)` + number + `\+?\s*yrs`),
			regexp.MustCompile(`(?i)` + number + `\+?\s*yr`),
		},
		MonthPattern:  regexp.MustCompile(`(?i)` + number + `\+?\s*months?`),
		MaxYears:      40,
		MaxMonths:     480,
		DecimalPlaces: 2,

		Projects: SectionRule{
			Triggers:  []string{"project"},
			StopWords: []string{"education", "experience", "certification", "summary", "skills"},
		},
		Education: SectionRule{
			Triggers:  []string{"education", "academic", "qualification"},
			StopWords: []string{"experience", "project", "skills", "certification", "summary", "training", "achievement"},
		},
		Certifications: SectionRule{
			Triggers:  []string{"certification", "certifications", "courses", "training"},
			StopWords: []string{"education", "experience", "project", "skills", "summary", "achievement"},
		},

		BulletChars: "•*-⭐●▪◦–· \t",
	}
}
