package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-screener/internal/types"
)

// -----------------------------------------------------------------------------
// Application Methods
// -----------------------------------------------------------------------------

const applicationColumns = `id, job_id, full_name, email, phone, resume_filename, COALESCE(resume_sha256, ''),
	parsed_name, parsed_email, parsed_phone, parsed_skills, parsed_experience, parsed_keywords,
	parsed_projects, parsed_education, parsed_certifications,
	match_score, skill_score, experience_score, keyword_score, matched_skills, missing_skills,
	summary, evaluation, fit_category, parse_warning, status, applied_at`

// CreateApplication inserts a screened application. A second application
// for the same job and email returns types.ErrDuplicateApplication.
func (db *DB) CreateApplication(ctx context.Context, app *types.Application) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	if app.Status == "" {
		app.Status = types.StatusScreening
	}
	app.Email = strings.ToLower(strings.TrimSpace(app.Email))

	var sha *string
	if app.ResumeSHA256 != "" {
		sha = &app.ResumeSHA256
	}

	err := db.pool.QueryRow(ctx,
		`INSERT INTO applications (
		     id, job_id, full_name, email, phone, resume_filename, resume_sha256,
		     parsed_name, parsed_email, parsed_phone, parsed_skills, parsed_experience, parsed_keywords,
		     parsed_projects, parsed_education, parsed_certifications,
		     match_score, skill_score, experience_score, keyword_score, matched_skills, missing_skills,
		     summary, evaluation, fit_category, parse_warning, status, applied_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		         $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, COALESCE($28, NOW()))
		 RETURNING applied_at`,
		app.ID, app.JobID, app.FullName, app.Email, app.Phone, app.ResumeFilename, sha,
		app.ParsedName, app.ParsedEmail, app.ParsedPhone, nonNil(app.ParsedSkills), app.ParsedExperience,
		nonNil(app.ParsedKeywords), app.ParsedProjects, app.ParsedEducation, app.ParsedCertifications,
		app.MatchScore, app.SkillScore, app.ExperienceScore, app.KeywordScore,
		nonNil(app.MatchedSkills), nonNil(app.MissingSkills),
		app.Summary, app.Evaluation, app.FitCategory, app.ParseWarning, string(app.Status), nullTime(app),
	).Scan(&app.AppliedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return types.ErrDuplicateApplication
		}
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// ApplicationExists reports whether the email already applied to the job.
func (db *DB) ApplicationExists(ctx context.Context, jobID uuid.UUID, email string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM applications WHERE job_id = $1 AND email = $2)`,
		jobID, strings.ToLower(strings.TrimSpace(email)),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check application: %w", err)
	}
	return exists, nil
}

// GetApplication retrieves an application by ID. Returns nil, nil if not found.
func (db *DB) GetApplication(ctx context.Context, id uuid.UUID) (*types.Application, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// ListApplicationsByJob returns the job's applications, best score first.
// A non-nil status restricts the list to that status.
func (db *DB) ListApplicationsByJob(ctx context.Context, jobID uuid.UUID, status *types.Status) ([]types.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE job_id = $1`
	args := []any{jobID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	query += ` ORDER BY match_score DESC, skill_score DESC, applied_at ASC`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := make([]types.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}
	return apps, nil
}

// UpdateApplicationStatus moves an application to a new status, enforcing
// the status workflow. Returns nil, nil if the application does not exist
// and *types.ErrInvalidTransition if the move is not allowed.
func (db *DB) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, next types.Status) (*types.Application, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1 FOR UPDATE`, id)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load application: %w", err)
	}

	if err := app.Transition(next); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE applications SET status = $1 WHERE id = $2`, string(app.Status), id); err != nil {
		return nil, fmt.Errorf("failed to update application status: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}
	return app, nil
}

func scanApplication(row pgx.Row) (*types.Application, error) {
	var a types.Application
	var status string
	err := row.Scan(
		&a.ID, &a.JobID, &a.FullName, &a.Email, &a.Phone, &a.ResumeFilename, &a.ResumeSHA256,
		&a.ParsedName, &a.ParsedEmail, &a.ParsedPhone, &a.ParsedSkills, &a.ParsedExperience, &a.ParsedKeywords,
		&a.ParsedProjects, &a.ParsedEducation, &a.ParsedCertifications,
		&a.MatchScore, &a.SkillScore, &a.ExperienceScore, &a.KeywordScore, &a.MatchedSkills, &a.MissingSkills,
		&a.Summary, &a.Evaluation, &a.FitCategory, &a.ParseWarning, &status, &a.AppliedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = types.Status(status)
	return &a, nil
}

// nullTime lets the database assign applied_at when the caller did not.
func nullTime(app *types.Application) any {
	if app.AppliedAt.IsZero() {
		return nil
	}
	return app.AppliedAt
}
