package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/resume-screener/internal/export"
	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/types"
)

// CreateJobRequest is the body of POST /jobs.
type CreateJobRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	RequiredSkills []string `json:"required_skills"`
	JDKeywords     []string `json:"jd_keywords"`
	MinExperience  *float64 `json:"min_experience,omitempty"`
	MaxExperience  *float64 `json:"max_experience,omitempty"`
}

// ListJobsResponse represents the response for listing jobs
type ListJobsResponse struct {
	Jobs  []types.Job `json:"jobs"`
	Count int         `json:"count"`
}

// job loads a job or returns ErrNotFound.
func (s *Server) job(r *http.Request, id uuid.UUID) (*types.Job, error) {
	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return nil, &ErrNotFound{Kind: "job", ID: id.String()}
	}
	return job, nil
}

// pathJob resolves the {id} segment of a /jobs route. A UUID is looked up
// by id, anything else by slug.
func (s *Server) pathJob(r *http.Request) (*types.Job, error) {
	if id, err := pathID(r); err == nil {
		return s.job(r, id)
	}

	slug := r.PathValue("id")
	job, err := s.store.GetJobBySlug(r.Context(), slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return nil, &ErrNotFound{Kind: "job", ID: slug}
	}
	return job, nil
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		s.fail(w, r, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()})
		return
	}

	job := &types.Job{
		Title:          req.Title,
		Description:    req.Description,
		RequiredSkills: parsing.CanonicalSkills(s.dict, req.RequiredSkills),
		JDKeywords:     parsing.Normalize(req.JDKeywords),
		MinExperience:  req.MinExperience,
		MaxExperience:  req.MaxExperience,
	}
	if err := job.Validate(); err != nil {
		s.fail(w, r, &ErrValidation{Field: "job", Message: err.Error()})
		return
	}

	if err := s.store.CreateJob(r.Context(), job); err != nil {
		s.fail(w, r, fmt.Errorf("failed to create job: %w", err))
		return
	}
	s.jsonResponse(w, http.StatusCreated, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListJobs(r.Context())
	if err != nil {
		s.fail(w, r, fmt.Errorf("failed to list jobs: %w", err))
		return
	}
	if jobs == nil {
		jobs = []types.Job{}
	}
	s.jsonResponse(w, http.StatusOK, ListJobsResponse{Jobs: jobs, Count: len(jobs)})
}

// handleGetJob looks a job up by id, or by slug when the path is not a UUID.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.pathJob(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

// reportContentType is the MIME type of .xlsx workbooks.
const reportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleJobReport downloads every application of a job as a ranked workbook.
func (s *Server) handleJobReport(w http.ResponseWriter, r *http.Request) {
	job, err := s.pathJob(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	apps, err := s.store.ListApplicationsByJob(r.Context(), job.ID, nil)
	if err != nil {
		s.fail(w, r, fmt.Errorf("failed to list applications: %w", err))
		return
	}

	var buf bytes.Buffer
	if err := export.WriteReport(&buf, job, apps); err != nil {
		s.fail(w, r, err)
		return
	}

	name := job.Slug
	if name == "" {
		name = job.ID.String()
	}
	w.Header().Set("Content-Type", reportContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+"-report.xlsx"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
