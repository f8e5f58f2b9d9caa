package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jonathan/resume-screener/internal/narrative"
	"github.com/jonathan/resume-screener/internal/ranking"
	"github.com/jonathan/resume-screener/internal/types"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// multipartMemory is kept in memory before the form spills to disk.
const multipartMemory = 8 << 20

// upload is a resume file taken from a multipart form.
type upload struct {
	filename string
	data     []byte
}

// readUpload reads the "resume" file of a multipart request.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	// The slack leaves room for the other form fields.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, &ErrPayloadTooLarge{Limit: s.maxUpload}
		}
		return nil, &ErrValidation{Field: "resume", Message: "request must be multipart/form-data"}
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		return nil, &ErrValidation{Field: "resume", Message: "file is required"}
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxUpload {
		return nil, &ErrPayloadTooLarge{Limit: s.maxUpload}
	}
	if len(data) == 0 {
		return nil, &ErrValidation{Field: "resume", Message: "file is empty"}
	}

	return &upload{filename: filepath.Base(header.Filename), data: data}, nil
}

// handleParse extracts the fields of an uploaded resume. With a job_id form
// field the job's keywords are searched too.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req *types.JobRequirements
	if raw := r.FormValue("job_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.fail(w, r, &ErrValidation{Field: "job_id", Message: "must be a UUID"})
			return
		}
		job, err := s.job(r, id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		req = job.Requirements()
	}

	parsed, err := s.screener.Parse(r.Context(), req, up.filename, up.data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, parsed)
}

// ScoreRequest scores an already parsed resume against a stored job or an
// inline set of requirements.
type ScoreRequest struct {
	ParsedData *types.ParsedResume    `json:"parsed_data"`
	JobID      *uuid.UUID             `json:"job_id,omitempty"`
	Job        *types.JobRequirements `json:"job,omitempty"`
}

// ScoreResponse is the result of POST /score.
type ScoreResponse struct {
	Score     types.ScoreBundle `json:"score"`
	Narrative types.Narrative   `json:"narrative"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(&req); err != nil {
		s.fail(w, r, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()})
		return
	}
	if req.ParsedData == nil {
		s.fail(w, r, &ErrValidation{Field: "parsed_data", Message: "is required"})
		return
	}

	var requirements *types.JobRequirements
	switch {
	case req.JobID != nil:
		job, err := s.job(r, *req.JobID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		requirements = job.Requirements()
	case req.Job != nil:
		requirements = req.Job
	default:
		s.fail(w, r, &ErrValidation{Field: "job_id", Message: "job_id or job is required"})
		return
	}

	score := ranking.ComputeMatchScore(req.ParsedData, requirements)
	s.jsonResponse(w, http.StatusOK, ScoreResponse{
		Score:     score,
		Narrative: narrative.Generate(req.ParsedData, score),
	})
}

// SkillsResponse lists the canonical skills the parser recognizes.
type SkillsResponse struct {
	Version string   `json:"version"`
	Count   int      `json:"count"`
	Skills  []string `json:"skills"`
}

func (s *Server) handleSkills(w http.ResponseWriter, _ *http.Request) {
	names := s.dict.Names()
	s.jsonResponse(w, http.StatusOK, SkillsResponse{
		Version: s.dict.Version(),
		Count:   len(names),
		Skills:  names,
	})
}
