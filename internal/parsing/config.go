package parsing

import (
	"fmt"

	"github.com/jonathan/resume-screener/internal/config"
	"github.com/jonathan/resume-screener/internal/ingestion"
	"github.com/jonathan/resume-screener/internal/skills"
)

// FromConfig builds a Parser with the extraction limits and skill dictionary
// named in cfg. The dictionary is returned so callers can expose it.
func FromConfig(cfg config.Config) (*Parser, *skills.Dictionary, error) {
	dict, err := skills.Load(cfg.SkillsDictionary)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load skill dictionary: %w", err)
	}

	docs := ingestion.NewExtractor(ingestion.Options{
		MaxFileSize: cfg.MaxFileSizeBytes(),
		MaxPages:    cfg.MaxPages,
	})

	p, err := NewParser(docs, dict, DefaultHeuristics())
	if err != nil {
		return nil, nil, err
	}
	return p, dict, nil
}
