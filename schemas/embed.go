// Package schemas embeds the JSON Schema documents that describe the
// artifacts exchanged by the screener (skill dictionary, jobs, parsed resumes).
package schemas

import (
	"embed"
	"fmt"
)

//go:embed *.schema.json
var files embed.FS

// Schema file names
const (
	SkillsDictionary = "skills.schema.json"
	Job              = "job.schema.json"
	ParsedResume     = "parsed_resume.schema.json"
)

// Read returns the raw content of an embedded schema.
func Read(name string) ([]byte, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("schema %s not embedded: %w", name, err)
	}
	return data, nil
}

// Names lists the embedded schema files.
func Names() []string {
	return []string{SkillsDictionary, Job, ParsedResume}
}
