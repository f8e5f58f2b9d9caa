package parsing

import (
	"strings"

	"github.com/jonathan/resume-screener/internal/skills"
)

// Normalize lowercases each term, collapses inner whitespace and drops empty
// terms and repeats. First-seen order is kept.
func Normalize(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]bool, len(terms))

	for _, term := range terms {
		normalized := strings.Join(strings.Fields(strings.ToLower(term)), " ")
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}

	return out
}

// NormalizeString splits a comma separated list and normalizes its terms.
func NormalizeString(list string) []string {
	if strings.TrimSpace(list) == "" {
		return []string{}
	}
	return Normalize(strings.Split(list, ","))
}

// CanonicalSkills normalizes terms and maps known synonyms to the
// dictionary's canonical names so they compare equal to parsed skills.
// A nil dictionary only normalizes.
func CanonicalSkills(dict *skills.Dictionary, terms []string) []string {
	out := Normalize(terms)
	if dict == nil {
		return out
	}
	for i, term := range out {
		if name, ok := dict.Canonical(term); ok {
			out[i] = name
		}
	}
	return Normalize(out)
}
