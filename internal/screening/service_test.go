package screening

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-screener/internal/narrative"
	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/types"
)

const strongResume = `Jane Doe
jane.doe@example.com
4 years of experience building REST APIs and microservices
Skills: Python, Django, AWS, Docker`

const weakResume = `Sam Lee
Graphic design and illustration`

type fakeStore struct {
	mu        sync.Mutex
	apps      []*types.Application
	existsErr error
	createErr error
}

func (f *fakeStore) ApplicationExists(_ context.Context, jobID uuid.UUID, email string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, app := range f.apps {
		if app.JobID == jobID && app.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateApplication(_ context.Context, app *types.Application) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apps = append(f.apps, app)
	return nil
}

func testJob() *types.Job {
	minExp, maxExp := 2.0, 5.0
	return &types.Job{
		ID:             uuid.New(),
		Title:          "Backend Developer",
		RequiredSkills: []string{"python", "django", "aws", "kubernetes"},
		JDKeywords:     []string{"rest apis", "microservices"},
		MinExperience:  &minExp,
		MaxExperience:  &maxExp,
	}
}

func newTestService(t *testing.T, store Store, opts Options) *Service {
	t.Helper()
	parser, err := parsing.NewDefaultParser()
	require.NoError(t, err)
	if opts.TempDir == "" {
		opts.TempDir = t.TempDir()
	}
	return NewService(parser, store, opts)
}

func TestService_Screen(t *testing.T) {
	fixed := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, nil, Options{Now: func() time.Time { return fixed }})
	job := testJob()

	app, err := svc.Screen(context.Background(), job, "jane.txt", []byte(strongResume))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, app.ID)
	assert.Equal(t, job.ID, app.JobID)
	assert.Equal(t, types.StatusScreening, app.Status)
	assert.Equal(t, fixed, app.AppliedAt)
	assert.Equal(t, "jane.txt", app.ResumeFilename)
	assert.Len(t, app.ResumeSHA256, 64)
	assert.Empty(t, app.ParseWarning)

	assert.Equal(t, "Jane Doe", app.ParsedName)
	assert.Equal(t, 4.0, app.ParsedExperience)
	assert.Equal(t, []string{"aws", "django", "python"}, app.MatchedSkills)
	assert.Equal(t, []string{"kubernetes"}, app.MissingSkills)
	assert.Equal(t, 75.0, app.SkillScore)
	assert.Equal(t, 100.0, app.ExperienceScore)
	assert.Equal(t, 100.0, app.KeywordScore)
	assert.Equal(t, 87.5, app.MatchScore)
	assert.Equal(t, narrative.FitStrong, app.FitCategory)
	assert.Equal(t, narrative.EvaluationStrong, app.Evaluation)
	assert.Contains(t, app.Summary, "Jane Doe has around 4 years")
}

func TestService_ScreenRemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, nil, Options{TempDir: dir})

	_, err := svc.Screen(context.Background(), testJob(), "resume.txt", []byte(strongResume))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_Parse(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, nil, Options{TempDir: dir})

	parsed, err := svc.Parse(context.Background(), testJob().Requirements(), "jane.txt", []byte(strongResume))
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", parsed.Email)
	assert.Equal(t, []string{"aws", "django", "docker", "microservices", "python", "rest apis"}, parsed.Skills)
	assert.Equal(t, []string{"microservices", "rest apis"}, parsed.Keywords)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_ScreenUnreadableResume(t *testing.T) {
	svc := newTestService(t, nil, Options{})

	app, err := svc.Screen(context.Background(), testJob(), "resume.pdf", []byte("%PDF-1.4 truncated"))
	require.NoError(t, err, "parsing failures must not block a submission")

	assert.Contains(t, app.ParseWarning, "resume text could not be extracted")
	assert.Empty(t, app.ParsedName)
	assert.Equal(t, 0.0, app.SkillScore)
	assert.Equal(t, 30.0, app.ExperienceScore)
	assert.Equal(t, 0.0, app.KeywordScore)
	assert.Equal(t, 9.0, app.MatchScore)
	assert.Equal(t, narrative.FitWeak, app.FitCategory)
	assert.Contains(t, app.Summary, "The candidate")
}

func TestService_ScreenRequiresJob(t *testing.T) {
	svc := newTestService(t, nil, Options{})
	_, err := svc.Screen(context.Background(), nil, "resume.txt", []byte(strongResume))
	assert.Error(t, err)
}

func TestService_ScreenCancelled(t *testing.T) {
	svc := newTestService(t, nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Screen(ctx, testJob(), "resume.txt", []byte(strongResume))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_ScreenReportsProgress(t *testing.T) {
	var stages []string
	svc := newTestService(t, nil, Options{OnProgress: func(e ProgressEvent) {
		stages = append(stages, e.Stage)
	}})

	_, err := svc.Screen(context.Background(), testJob(), "resume.txt", []byte(strongResume))
	require.NoError(t, err)
	assert.Equal(t, []string{StageReceived, StageParsed, StageScored, StageCompleted}, stages)
}

func validRequest(job *types.Job) types.CreateApplicationRequest {
	return types.CreateApplicationRequest{
		JobID:    job.ID,
		FullName: " Jane Doe ",
		Email:    "Jane.Doe@Example.com",
		Phone:    "9876543210",
		Filename: "jane.txt",
	}
}

func TestService_Submit(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, Options{})
	job := testJob()

	app, err := svc.Submit(context.Background(), job, validRequest(job), []byte(strongResume))
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", app.FullName)
	assert.Equal(t, "jane.doe@example.com", app.Email)
	assert.Equal(t, "9876543210", app.Phone)
	require.Len(t, store.apps, 1)
	assert.Same(t, app, store.apps[0])
}

func TestService_SubmitDuplicate(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, Options{})
	job := testJob()

	_, err := svc.Submit(context.Background(), job, validRequest(job), []byte(strongResume))
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), job, validRequest(job), []byte(weakResume))
	assert.ErrorIs(t, err, ErrDuplicateApplication)
	assert.Len(t, store.apps, 1)

	other := testJob()
	_, err = svc.Submit(context.Background(), other, validRequest(other), []byte(weakResume))
	assert.NoError(t, err, "the same email may apply to a different job")
}

func TestService_SubmitErrors(t *testing.T) {
	job := testJob()

	tests := []struct {
		name    string
		store   *fakeStore
		req     func() types.CreateApplicationRequest
		wantErr error
	}{
		{
			name:  "invalid email",
			store: &fakeStore{},
			req: func() types.CreateApplicationRequest {
				r := validRequest(job)
				r.Email = "nope"
				return r
			},
		},
		{
			name:  "wrong job",
			store: &fakeStore{},
			req: func() types.CreateApplicationRequest {
				r := validRequest(job)
				r.JobID = uuid.New()
				return r
			},
		},
		{
			name:  "lookup failure",
			store: &fakeStore{existsErr: errors.New("connection reset")},
			req:   func() types.CreateApplicationRequest { return validRequest(job) },
		},
		{
			name:    "duplicate detected on insert",
			store:   &fakeStore{createErr: ErrDuplicateApplication},
			req:     func() types.CreateApplicationRequest { return validRequest(job) },
			wantErr: ErrDuplicateApplication,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, tt.store, Options{})
			_, err := svc.Submit(context.Background(), job, tt.req(), []byte(strongResume))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Empty(t, tt.store.apps)
		})
	}
}

func TestService_SubmitWithoutStore(t *testing.T) {
	svc := newTestService(t, nil, Options{})
	job := testJob()
	_, err := svc.Submit(context.Background(), job, validRequest(job), []byte(strongResume))
	assert.Error(t, err)
}

func TestService_Batch(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"weak.txt":   weakResume,
		"strong.txt": strongResume,
		"empty.txt":  "",
	}
	var paths []string
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		paths = append(paths, path)
	}
	paths = append(paths, filepath.Join(dir, "missing.pdf"))

	var mu sync.Mutex
	events := 0
	svc := newTestService(t, nil, Options{OnProgress: func(ProgressEvent) {
		mu.Lock()
		events++
		mu.Unlock()
	}})

	apps, err := svc.Batch(context.Background(), testJob(), paths, 2)
	require.NoError(t, err)
	require.Len(t, apps, 4)

	assert.Equal(t, "strong.txt", apps[0].ResumeFilename)
	for i := 1; i < len(apps); i++ {
		assert.GreaterOrEqual(t, apps[i-1].MatchScore, apps[i].MatchScore)
	}
	assert.Positive(t, events)
}

func TestService_BatchCancelled(t *testing.T) {
	svc := newTestService(t, nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Batch(ctx, testJob(), []string{"a.txt", "b.txt"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
