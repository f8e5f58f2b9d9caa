package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-screener/internal/ranking"
	"github.com/jonathan/resume-screener/internal/types"
)

// ListApplicationsResponse holds a job's applications, best match first.
type ListApplicationsResponse struct {
	Applications []types.Application `json:"applications"`
	Count        int                 `json:"count"`
	Stats        ranking.Stats       `json:"stats"`
	Distribution []ranking.Bucket    `json:"distribution"`
}

// handleCreateApplication accepts a candidate's multipart submission:
// full_name, email, phone and the resume file.
func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	job, err := s.pathJob(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	up, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	req := types.CreateApplicationRequest{
		JobID:    job.ID,
		FullName: r.FormValue("full_name"),
		Email:    r.FormValue("email"),
		Phone:    r.FormValue("phone"),
		Filename: up.filename,
	}
	app, err := s.screener.Submit(r.Context(), job, req, up.data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, app)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	job, err := s.pathJob(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var filter *types.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := types.ParseStatus(raw)
		if err != nil {
			s.fail(w, r, &ErrValidation{Field: "status", Message: err.Error()})
			return
		}
		filter = &status
	}

	apps, err := s.store.ListApplicationsByJob(r.Context(), job.ID, filter)
	if err != nil {
		s.fail(w, r, fmt.Errorf("failed to list applications: %w", err))
		return
	}

	ranked := ranking.RankApplications(apps)
	s.jsonResponse(w, http.StatusOK, ListApplicationsResponse{
		Applications: ranked,
		Count:        len(ranked),
		Stats:        ranking.Summarize(ranked),
		Distribution: ranking.Distribution(ranked),
	})
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	app, err := s.store.GetApplication(r.Context(), id)
	if err != nil {
		s.fail(w, r, fmt.Errorf("failed to load application: %w", err))
		return
	}
	if app == nil {
		s.fail(w, r, &ErrNotFound{Kind: "application", ID: id.String()})
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

// handleUpdateStatus moves an application through the hiring pipeline.
// Illegal moves return 409.
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req types.UpdateStatusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		s.fail(w, r, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, &ErrValidation{Field: "status", Message: err.Error()})
		return
	}
	next, err := types.ParseStatus(req.Status)
	if err != nil {
		s.fail(w, r, &ErrValidation{Field: "status", Message: err.Error()})
		return
	}

	app, err := s.store.UpdateApplicationStatus(r.Context(), id, next)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if app == nil {
		s.fail(w, r, &ErrNotFound{Kind: "application", ID: id.String()})
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}
