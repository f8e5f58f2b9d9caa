// Package screening runs the submission workflow: a resume upload is parsed,
// scored against the job and turned into an application.
package screening

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-screener/internal/narrative"
	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/ranking"
	"github.com/jonathan/resume-screener/internal/types"
)

// ErrDuplicateApplication is returned by Submit when the candidate already
// applied to the job.
var ErrDuplicateApplication = types.ErrDuplicateApplication

// Store persists applications.
type Store interface {
	ApplicationExists(ctx context.Context, jobID uuid.UUID, email string) (bool, error)
	CreateApplication(ctx context.Context, app *types.Application) error
}

// Options holds optional Service settings.
type Options struct {
	// TempDir receives uploads while they are parsed. Empty uses os.TempDir.
	TempDir    string
	OnProgress ProgressCallback
	// Now overrides the clock used for AppliedAt.
	Now func() time.Time
}

// Service screens resumes. It is safe for concurrent use.
type Service struct {
	parser *parsing.Parser
	store  Store
	opts   Options
}

// NewService creates a Service. store may be nil when only Screen and Batch
// are used.
func NewService(parser *parsing.Parser, store Store, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{parser: parser, store: store, opts: opts}
}

// Screen parses and scores an uploaded resume for job. The upload is written
// to a temporary file that is removed before Screen returns.
//
// An unreadable resume is not an error: the application carries default
// scores and ParseWarning explains why.
func (s *Service) Screen(ctx context.Context, job *types.Job, filename string, data []byte) (*types.Application, error) {
	if job == nil {
		return nil, errors.New("job is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.emitProgress(StageReceived, filename, fmt.Sprintf("Received %d bytes", len(data)), nil)

	path, err := s.writeTemp(filename, data)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("screening=cleanup status=failed path=%s err=%v", path, err)
		}
	}()

	return s.screenFile(ctx, job, path, filename)
}

// Parse extracts the fields of an uploaded resume without scoring it. A nil
// job means no keywords are searched.
func (s *Service) Parse(ctx context.Context, job *types.JobRequirements, filename string, data []byte) (*types.ParsedResume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.writeTemp(filename, data)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(path) }()

	parsed := s.parser.ParseResume(path, job)
	s.emitProgress(StageParsed, filename, fmt.Sprintf("Parsed %d skills", len(parsed.Skills)), parsed)
	return parsed, nil
}

// Submit validates a candidate's request, rejects a second application to
// the same job, screens the resume and saves the result.
func (s *Service) Submit(ctx context.Context, job *types.Job, req types.CreateApplicationRequest, data []byte) (*types.Application, error) {
	if s.store == nil {
		return nil, errors.New("screening service has no store")
	}
	if job == nil {
		return nil, errors.New("job is required")
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid application: %w", err)
	}
	if req.JobID != job.ID {
		return nil, fmt.Errorf("application is for job %s, not %s", req.JobID, job.ID)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.store.ApplicationExists(ctx, job.ID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing application: %w", err)
	}
	if exists {
		return nil, ErrDuplicateApplication
	}

	app, err := s.Screen(ctx, job, req.Filename, data)
	if err != nil {
		return nil, err
	}
	app.FullName = strings.TrimSpace(req.FullName)
	app.Email = email
	app.Phone = strings.TrimSpace(req.Phone)

	if err := s.store.CreateApplication(ctx, app); err != nil {
		if errors.Is(err, ErrDuplicateApplication) {
			return nil, ErrDuplicateApplication
		}
		return nil, fmt.Errorf("failed to save application: %w", err)
	}
	s.emitProgress(StageSaved, req.Filename, "Saved application", app.ID)

	log.Printf("screening=submit status=ok application_id=%s job_id=%s score=%.2f fit=%q",
		app.ID, job.ID, app.MatchScore, app.FitCategory)
	return app, nil
}

// screenFile runs parse, score and narrative for a resume already on disk.
func (s *Service) screenFile(ctx context.Context, job *types.Job, path, filename string) (*types.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parsed, doc := s.parser.ParseDocument(path, job.Requirements())
	s.emitProgress(StageParsed, filename, fmt.Sprintf("Parsed %d skills", len(parsed.Skills)), parsed)

	app := &types.Application{
		ID:             uuid.New(),
		JobID:          job.ID,
		ResumeFilename: filename,
		Status:         types.StatusScreening,
		AppliedAt:      s.opts.Now().UTC(),
	}
	if doc != nil {
		app.ResumeSHA256 = doc.SHA256
	}
	app.ApplyParsed(parsed)
	if parsed.IsEmpty() {
		app.ParseWarning = parseWarning(doc.Warning())
		log.Printf("screening=parse status=empty file=%s reason=%s", filename, doc.Warning())
	}

	score := ranking.ComputeMatchScore(parsed, job.Requirements())
	app.ApplyScore(score)
	s.emitProgress(StageScored, filename, fmt.Sprintf("Match score %.2f", score.FinalScore), score)

	app.ApplyNarrative(narrative.Generate(parsed, score))
	s.emitProgress(StageCompleted, filename, app.FitCategory, nil)

	return app, nil
}

func (s *Service) writeTemp(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	f, err := os.CreateTemp(s.opts.TempDir, "resume-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return f.Name(), nil
}

func parseWarning(reason string) string {
	if reason == "" {
		return "resume text could not be extracted"
	}
	return "resume text could not be extracted: " + reason
}
