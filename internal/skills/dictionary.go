// Package skills provides the versioned skill dictionary used to recognize
// canonical skills in resume text.
package skills

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/jonathan/resume-screener/internal/schemas"
	embedded "github.com/jonathan/resume-screener/schemas"
)

//go:embed skills.json
var defaultDictionary []byte

// Entry is one canonical skill and the alternative spellings that map to it.
type Entry struct {
	Name     string   `json:"name"`
	Category string   `json:"category,omitempty"`
	Synonyms []string `json:"synonyms,omitempty"`
}

// file is the on-disk layout of a dictionary artifact.
type file struct {
	Version     string  `json:"version"`
	Description string  `json:"description,omitempty"`
	Skills      []Entry `json:"skills"`
}

// Dictionary maps canonical skill names to their synonyms.
// It is immutable once built and safe for concurrent use.
type Dictionary struct {
	version  string
	entries  []Entry
	matchers []matcher
	aliases  map[string]string // any form -> canonical name
}

type matcher struct {
	name     string
	patterns []*regexp.Regexp
}

var (
	defaultOnce sync.Once
	defaultDict *Dictionary
	defaultErr  error
)

// Default returns the dictionary compiled into the binary.
func Default() (*Dictionary, error) {
	defaultOnce.Do(func() {
		defaultDict, defaultErr = Parse(defaultDictionary)
	})
	return defaultDict, defaultErr
}

// MustDefault returns the embedded dictionary, panicking if it is invalid.
// Use this at initialization time only.
func MustDefault() *Dictionary {
	d, err := Default()
	if err != nil {
		panic(fmt.Sprintf("failed to load embedded skill dictionary: %v", err))
	}
	return d
}

// Load returns the dictionary at path, or the embedded one when path is empty.
func Load(path string) (*Dictionary, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// LoadFile reads and parses a dictionary artifact from disk.
func LoadFile(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read skill dictionary %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid skill dictionary %s: %w", path, err)
	}
	return d, nil
}

// Parse validates a dictionary artifact against its schema and compiles the
// matchers for every skill form.
func Parse(data []byte) (*Dictionary, error) {
	if err := schemas.ValidateBytes(embedded.SkillsDictionary, data); err != nil {
		return nil, err
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse skill dictionary: %w", err)
	}

	d := &Dictionary{
		version:  f.Version,
		entries:  make([]Entry, 0, len(f.Skills)),
		matchers: make([]matcher, 0, len(f.Skills)),
		aliases:  make(map[string]string),
	}

	for _, e := range f.Skills {
		name := normalizeForm(e.Name)
		if _, dup := d.aliases[name]; dup {
			return nil, fmt.Errorf("skill %q is defined more than once", name)
		}

		entry := Entry{Name: name, Category: e.Category}
		forms := []string{name}
		for _, syn := range e.Synonyms {
			syn = normalizeForm(syn)
			if syn == "" || syn == name {
				continue
			}
			entry.Synonyms = append(entry.Synonyms, syn)
			forms = append(forms, syn)
		}

		m := matcher{name: name, patterns: make([]*regexp.Regexp, 0, len(forms))}
		for _, form := range forms {
			m.patterns = append(m.patterns, CompileTerm(form))
			if _, taken := d.aliases[form]; !taken {
				d.aliases[form] = name
			}
		}

		d.entries = append(d.entries, entry)
		d.matchers = append(d.matchers, m)
	}

	return d, nil
}

// Version returns the dictionary artifact version.
func (d *Dictionary) Version() string {
	return d.version
}

// Len returns the number of canonical skills.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Entries returns a copy of the dictionary entries in artifact order.
func (d *Dictionary) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Names returns the canonical skill names sorted alphabetically.
func (d *Dictionary) Names() []string {
	names := make([]string, 0, len(d.entries))
	for _, e := range d.entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// Canonical maps a skill or one of its synonyms to the canonical name.
func (d *Dictionary) Canonical(form string) (string, bool) {
	name, ok := d.aliases[normalizeForm(form)]
	return name, ok
}

// Match returns the sorted set of canonical skills that appear in text.
// A skill matches when its name or any synonym appears as a whole term.
func (d *Dictionary) Match(text string) []string {
	found := make([]string, 0)
	if text == "" {
		return found
	}
	for _, m := range d.matchers {
		for _, re := range m.patterns {
			if re.MatchString(text) {
				found = append(found, m.name)
				break
			}
		}
	}
	sort.Strings(found)
	return found
}

// CompileTerm builds a case-insensitive matcher for term that only fires on
// whole terms. The left edge must not be a letter or digit; the right edge
// must also not be '+' or '#', so "c" stays distinct from "c++" and "c#".
func CompileTerm(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^a-z0-9])` + regexp.QuoteMeta(term) + `(?:[^a-z0-9+#]|$)`)
}

// ContainsTerm reports whether term occurs in text as a whole term.
func ContainsTerm(text, term string) bool {
	if term == "" || text == "" {
		return false
	}
	return CompileTerm(term).MatchString(text)
}

func normalizeForm(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
