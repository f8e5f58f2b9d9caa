package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-screener/internal/types"
)

// -----------------------------------------------------------------------------
// Job Methods
// -----------------------------------------------------------------------------

const jobColumns = `id, title, slug, description, required_skills, jd_keywords,
	min_experience, max_experience, created_at`

// CreateJob inserts a job. ID, Slug and CreatedAt are filled in.
func (db *DB) CreateJob(ctx context.Context, job *types.Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Slug == "" {
		job.Slug = JobSlug(job.Title, job.ID)
	}

	err := db.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, title, slug, description, required_skills, jd_keywords,
		                   min_experience, max_experience)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		job.ID, job.Title, job.Slug, job.Description, nonNil(job.RequiredSkills), nonNil(job.JDKeywords),
		job.MinExperience, job.MaxExperience,
	).Scan(&job.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("job slug %q already exists: %w", job.Slug, err)
		}
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID. Returns nil, nil if not found.
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// GetJobBySlug retrieves a job by its slug. Returns nil, nil if not found.
func (db *DB) GetJobBySlug(ctx context.Context, slug string) (*types.Job, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE slug = $1`, slug)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job by slug: %w", err)
	}
	return job, nil
}

// ListJobs returns all jobs, newest first.
func (db *DB) ListJobs(ctx context.Context) ([]types.Job, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]types.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}
	return jobs, nil
}

func scanJob(row pgx.Row) (*types.Job, error) {
	var j types.Job
	err := row.Scan(&j.ID, &j.Title, &j.Slug, &j.Description, &j.RequiredSkills, &j.JDKeywords,
		&j.MinExperience, &j.MaxExperience, &j.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a title to a URL-safe slug
// Example: "Senior Go Engineer (Remote)" -> "senior-go-engineer-remote"
func Slugify(title string) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

// JobSlug builds a unique slug from the title and the first block of the ID.
func JobSlug(title string, id uuid.UUID) string {
	suffix := strings.SplitN(id.String(), "-", 2)[0]
	if base := Slugify(title); base != "" {
		return base + "-" + suffix
	}
	return "job-" + suffix
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
