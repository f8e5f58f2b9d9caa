package parsing

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/jonathan/resume-screener/internal/skills"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Extractors derives individual fields from lowercase resume text.
// Each method is independent of the others and safe for concurrent use.
type Extractors struct {
	h    Heuristics
	dict *skills.Dictionary
}

// NewExtractors builds extractors over the given heuristics and dictionary.
func NewExtractors(h Heuristics, dict *skills.Dictionary) *Extractors {
	return &Extractors{h: h, dict: dict}
}

// Heuristics returns the constants the extractors were built with.
func (x *Extractors) Heuristics() Heuristics {
	return x.h
}

// Name returns the first early line that looks like a person's name, title cased.
func (x *Extractors) Name(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > x.h.NameScanLines {
		lines = lines[:x.h.NameScanLines]
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.Contains(line, "@") || strings.IndexFunc(line, unicode.IsDigit) >= 0 {
			continue
		}
		if containsAny(strings.ToLower(line), x.h.NameBlocklist) {
			continue
		}
		if !x.h.NamePattern.MatchString(line) {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) < x.h.NameMinTokens || len(tokens) > x.h.NameMaxTokens {
			continue
		}
		// cases.Caser keeps state between calls, so each call gets its own.
		return cases.Title(language.English).String(line)
	}
	return ""
}

// Email returns the first email address in text.
func (x *Extractors) Email(text string) string {
	return x.h.EmailPattern.FindString(text)
}

// Phone returns the first phone number in text. The optional separator may
// match a leading space, which is trimmed.
func (x *Extractors) Phone(text string) string {
	return strings.TrimSpace(x.h.PhonePattern.FindString(text))
}

// Experience returns the stated years of experience, or 0 when none is found.
// Year statements win over month statements.
func (x *Extractors) Experience(text string) float64 {
	for _, re := range x.h.YearPatterns {
		if v, ok := firstInRange(re.FindAllStringSubmatch(text, -1), x.h.MaxYears); ok {
			return x.round(v)
		}
	}
	if x.h.MonthPattern != nil {
		if v, ok := firstInRange(x.h.MonthPattern.FindAllStringSubmatch(text, -1), x.h.MaxMonths); ok {
			return x.round(v / 12)
		}
	}
	return 0
}

// Skills returns the canonical dictionary skills mentioned in text.
func (x *Extractors) Skills(text string) []string {
	if x.dict == nil {
		return []string{}
	}
	return x.dict.Match(text)
}

// Keywords returns the job keywords that appear in text as whole terms.
func (x *Extractors) Keywords(text string, jdKeywords []string) []string {
	found := make([]string, 0)
	for _, kw := range Normalize(jdKeywords) {
		if skills.ContainsTerm(text, kw) {
			found = append(found, kw)
		}
	}
	sort.Strings(found)
	return found
}

// Projects returns the block under the projects heading.
func (x *Extractors) Projects(text string) string {
	return x.section(text, x.h.Projects)
}

// Education returns the block under the education heading.
func (x *Extractors) Education(text string) string {
	return x.section(text, x.h.Education)
}

// Certifications returns the block under the certifications heading.
func (x *Extractors) Certifications(text string) string {
	return x.section(text, x.h.Certifications)
}

// section captures the lines after the first trigger line until a stop word.
func (x *Extractors) section(text string, rule SectionRule) string {
	var block []string
	capturing := false

	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))

		if !capturing {
			if containsAny(lower, rule.Triggers) {
				capturing = true
			}
			continue
		}

		if containsAny(lower, rule.StopWords) {
			break
		}
		if cleaned := strings.Trim(line, x.h.BulletChars); cleaned != "" {
			block = append(block, strings.TrimSpace(cleaned))
		}
	}

	return strings.TrimSpace(strings.Join(block, "\n"))
}

func (x *Extractors) round(v float64) float64 {
	p := math.Pow(10, float64(x.h.DecimalPlaces))
	return math.Round(v*p) / p
}

// firstInRange returns the first captured number in (0, upper].
func firstInRange(matches [][]string, upper float64) (float64, bool) {
	for _, m := range matches {
		if len(m) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if v > 0 && v <= upper {
			return v, true
		}
	}
	return 0, false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(s, w) {
			return true
		}
	}
	return false
}
