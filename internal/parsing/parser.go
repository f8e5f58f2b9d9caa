package parsing

import (
	"fmt"
	"log"

	"github.com/jonathan/resume-screener/internal/ingestion"
	"github.com/jonathan/resume-screener/internal/skills"
	"github.com/jonathan/resume-screener/internal/types"
)

// DocumentExtractor reads a resume file into text and metadata.
// *ingestion.Extractor satisfies it.
type DocumentExtractor interface {
	Extract(path string) *ingestion.Document
}

// Parser runs text extraction followed by every field extractor.
//
// Parsing never fails: unreadable files produce an empty record and a
// failing extractor only loses its own field.
type Parser struct {
	docs   DocumentExtractor
	fields *Extractors
}

// NewParser creates a Parser. A nil extractor uses ingestion defaults and a
// nil dictionary uses the embedded one.
func NewParser(docs DocumentExtractor, dict *skills.Dictionary, h Heuristics) (*Parser, error) {
	if docs == nil {
		docs = ingestion.NewExtractor(ingestion.DefaultOptions())
	}
	if dict == nil {
		d, err := skills.Default()
		if err != nil {
			return nil, fmt.Errorf("failed to load skill dictionary: %w", err)
		}
		dict = d
	}
	return &Parser{docs: docs, fields: NewExtractors(h, dict)}, nil
}

// NewDefaultParser creates a Parser with default extraction limits,
// heuristics and the embedded dictionary.
func NewDefaultParser() (*Parser, error) {
	return NewParser(nil, nil, DefaultHeuristics())
}

// Extractors exposes the field extractors used by the parser.
func (p *Parser) Extractors() *Extractors {
	return p.fields
}

// ParseResume extracts the file at path and parses it against the job.
// A nil job means no keywords are searched.
func (p *Parser) ParseResume(path string, job *types.JobRequirements) *types.ParsedResume {
	parsed, _ := p.ParseDocument(path, job)
	return parsed
}

// ParseDocument is ParseResume that also returns the extraction metadata.
func (p *Parser) ParseDocument(path string, job *types.JobRequirements) (*types.ParsedResume, *ingestion.Document) {
	doc := p.docs.Extract(path)
	if doc == nil {
		doc = &ingestion.Document{Path: path}
	}
	return p.ParseText(doc.Text, job), doc
}

// ParseText runs every field extractor over already extracted text.
func (p *Parser) ParseText(text string, job *types.JobRequirements) *types.ParsedResume {
	out := &types.ParsedResume{
		Skills:   []string{},
		Keywords: []string{},
		RawText:  text,
	}
	if text == "" {
		return out
	}

	var jdKeywords []string
	if job != nil {
		jdKeywords = job.JDKeywords
	}

	f := p.fields
	p.run("name", func() { out.Name = f.Name(text) })
	p.run("email", func() { out.Email = f.Email(text) })
	p.run("phone", func() { out.Phone = f.Phone(text) })
	p.run("skills", func() { out.Skills = f.Skills(text) })
	p.run("experience_years", func() { out.ExperienceYears = types.Years(f.Experience(text)) })
	p.run("keywords", func() { out.Keywords = f.Keywords(text, jdKeywords) })
	p.run("projects", func() { out.Projects = f.Projects(text) })
	p.run("education", func() { out.Education = f.Education(text) })
	p.run("certifications", func() { out.Certifications = f.Certifications(text) })

	if out.Skills == nil {
		out.Skills = []string{}
	}
	if out.Keywords == nil {
		out.Keywords = []string{}
	}
	return out
}

// run executes one extractor, turning a panic into a logged FieldError.
func (p *Parser) run(field string, extract func()) {
	defer func() {
		if r := recover(); r != nil {
			err := &FieldError{Field: field, Cause: fmt.Errorf("%v", r)}
			log.Printf("parsing=field status=failed field=%s err=%v", field, err)
		}
	}()
	extract()
}
