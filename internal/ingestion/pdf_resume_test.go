package ingestion_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-screener/internal/ingestion"
	"github.com/jonathan/resume-screener/internal/parsing"
)

func TestParseResume_MultiLinePDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	pdf := ingestion.BuildPDF("Jane Doe\nSkills\nPython\nDjango\nProjects\nBuilt a parser\nEducation\nBSc CS")
	require.NoError(t, os.WriteFile(path, pdf, 0644))

	p, err := parsing.NewDefaultParser()
	require.NoError(t, err)
	parsed := p.ParseResume(path, nil)

	assert.Equal(t, "Jane Doe", parsed.Name)
	assert.Equal(t, []string{"django", "python"}, parsed.Skills)
	assert.Equal(t, "built a parser", parsed.Projects)
	assert.Equal(t, "bsc cs", parsed.Education)
}
