//go:build integration

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-screener/internal/types"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(db.Close)

	return db
}

func createTestJob(t *testing.T, db *DB) *types.Job {
	t.Helper()
	minExp, maxExp := 1.0, 3.0
	job := &types.Job{
		Title:          "Integration Backend Developer",
		RequiredSkills: []string{"python", "django"},
		JDKeywords:     []string{"rest apis"},
		MinExperience:  &minExp,
		MaxExperience:  &maxExp,
	}
	require.NoError(t, db.CreateJob(context.Background(), job))
	t.Cleanup(func() {
		_, _ = db.pool.Exec(context.Background(), "DELETE FROM jobs WHERE id = $1", job.ID)
	})
	return job
}

func TestIntegration_Migrate_Idempotent(t *testing.T) {
	db := getTestDB(t)
	assert.NoError(t, db.Migrate(context.Background()))
}

func TestIntegration_Jobs(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	job := createTestJob(t, db)

	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.NotEmpty(t, job.Slug)
	assert.False(t, job.CreatedAt.IsZero())

	got, err := db.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.Title, got.Title)
	assert.Equal(t, []string{"python", "django"}, got.RequiredSkills)
	assert.Equal(t, 1.0, *got.MinExperience)

	bySlug, err := db.GetJobBySlug(ctx, job.Slug)
	require.NoError(t, err)
	require.NotNil(t, bySlug)
	assert.Equal(t, job.ID, bySlug.ID)

	missing, err := db.GetJob(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	jobs, err := db.ListJobs(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, jobs)
}

func TestIntegration_Applications(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	job := createTestJob(t, db)

	first := &types.Application{
		JobID:          job.ID,
		FullName:       "Jane Doe",
		Email:          "Jane@Example.com",
		ResumeFilename: "jane.pdf",
		ParsedSkills:   []string{"python"},
		MatchScore:     72.5,
		SkillScore:     50,
		MatchedSkills:  []string{"python"},
		MissingSkills:  []string{"django"},
		FitCategory:    "Good Fit",
		AppliedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, db.CreateApplication(ctx, first))
	assert.Equal(t, types.StatusScreening, first.Status)

	exists, err := db.ApplicationExists(ctx, job.ID, "jane@example.com ")
	require.NoError(t, err)
	assert.True(t, exists)

	dup := &types.Application{JobID: job.ID, FullName: "Jane", Email: "jane@example.com", ResumeFilename: "x.pdf"}
	assert.ErrorIs(t, db.CreateApplication(ctx, dup), types.ErrDuplicateApplication)

	second := &types.Application{JobID: job.ID, FullName: "Sam Lee", Email: "sam@example.com", ResumeFilename: "sam.pdf", MatchScore: 91}
	require.NoError(t, db.CreateApplication(ctx, second))

	apps, err := db.ListApplicationsByJob(ctx, job.ID, nil)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, second.ID, apps[0].ID)

	got, err := db.GetApplication(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"django"}, got.MissingSkills)
	assert.Equal(t, "jane@example.com", got.Email)

	updated, err := db.UpdateApplicationStatus(ctx, first.ID, types.StatusReview)
	require.NoError(t, err)
	assert.Equal(t, types.StatusReview, updated.Status)

	_, err = db.UpdateApplicationStatus(ctx, first.ID, types.StatusHired)
	var transitionErr *types.ErrInvalidTransition
	assert.ErrorAs(t, err, &transitionErr)

	review := types.StatusReview
	filtered, err := db.ListApplicationsByJob(ctx, job.ID, &review)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, first.ID, filtered[0].ID)

	none, err := db.UpdateApplicationStatus(ctx, uuid.New(), types.StatusReview)
	require.NoError(t, err)
	assert.Nil(t, none)
}
