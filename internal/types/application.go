package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Status is the triage state of an application.
type Status string

// Application statuses
const (
	StatusScreening Status = "screening"
	StatusReview    Status = "review"
	StatusInterview Status = "interview"
	StatusHired     Status = "hired"
	StatusRejected  Status = "rejected"
)

// AllStatuses lists statuses in workflow order.
var AllStatuses = []Status{StatusScreening, StatusReview, StatusInterview, StatusHired, StatusRejected}

// nextStatus maps each non-terminal status to the one that follows it.
var nextStatus = map[Status]Status{
	StatusScreening: StatusReview,
	StatusReview:    StatusInterview,
	StatusInterview: StatusHired,
}

// ParseStatus converts a string into a known Status.
func ParseStatus(s string) (Status, error) {
	for _, status := range AllStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusHired || s == StatusRejected
}

// CanTransition reports whether an application may move from s to next.
// Applications advance one step at a time and may be rejected from any
// non-terminal state.
func (s Status) CanTransition(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusRejected {
		return true
	}
	return nextStatus[s] == next
}

// ErrDuplicateApplication is returned when a candidate has already applied
// to the job with the same email address.
var ErrDuplicateApplication = errors.New("an application for this job and email already exists")

// ErrInvalidTransition is returned when a status change is not allowed.
type ErrInvalidTransition struct {
	From Status
	To   Status
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("cannot move application from %s to %s", e.From, e.To)
}

// Application is a candidate's submission to a job together with the
// screening results computed at submission time.
type Application struct {
	ID             uuid.UUID `json:"id"`
	JobID          uuid.UUID `json:"job_id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	ResumeFilename string    `json:"resume_filename"`
	ResumeSHA256   string    `json:"resume_sha256,omitempty"`

	ParsedName           string   `json:"parsed_name,omitempty"`
	ParsedEmail          string   `json:"parsed_email,omitempty"`
	ParsedPhone          string   `json:"parsed_phone,omitempty"`
	ParsedSkills         []string `json:"parsed_skills"`
	ParsedExperience     float64  `json:"parsed_experience"`
	ParsedKeywords       []string `json:"parsed_keywords"`
	ParsedProjects       string   `json:"parsed_projects,omitempty"`
	ParsedEducation      string   `json:"parsed_education,omitempty"`
	ParsedCertifications string   `json:"parsed_certifications,omitempty"`

	MatchScore      float64  `json:"match_score"`
	SkillScore      float64  `json:"skill_score"`
	ExperienceScore float64  `json:"experience_score"`
	KeywordScore    float64  `json:"keyword_score"`
	MatchedSkills   []string `json:"matched_skills"`
	MissingSkills   []string `json:"missing_skills"`

	Summary     string `json:"summary"`
	Evaluation  string `json:"evaluation"`
	FitCategory string `json:"fit_category"`

	// ParseWarning is set when the resume produced no readable text.
	ParseWarning string `json:"parse_warning,omitempty"`

	Status    Status    `json:"status"`
	AppliedAt time.Time `json:"applied_at"`
}

// ApplyParsed copies the parsed fields into the application.
func (a *Application) ApplyParsed(p *ParsedResume) {
	if p == nil {
		return
	}
	a.ParsedName = p.Name
	a.ParsedEmail = p.Email
	a.ParsedPhone = p.Phone
	a.ParsedSkills = p.Skills
	if p.ExperienceYears.Valid() {
		a.ParsedExperience = p.ExperienceYears.Float()
	}
	a.ParsedKeywords = p.Keywords
	a.ParsedProjects = p.Projects
	a.ParsedEducation = p.Education
	a.ParsedCertifications = p.Certifications
}

// ApplyScore copies a score bundle into the application.
func (a *Application) ApplyScore(s ScoreBundle) {
	a.MatchScore = s.FinalScore
	a.SkillScore = s.SkillScore
	a.ExperienceScore = s.ExperienceScore
	a.KeywordScore = s.KeywordScore
	a.MatchedSkills = s.MatchedSkills
	a.MissingSkills = s.MissingSkills
}

// ApplyNarrative copies the narrative labels into the application.
func (a *Application) ApplyNarrative(n Narrative) {
	a.Summary = n.Summary
	a.Evaluation = n.Evaluation
	a.FitCategory = n.FitCategory
}

// Transition moves the application to next, enforcing the status workflow.
func (a *Application) Transition(next Status) error {
	if !a.Status.CanTransition(next) {
		return &ErrInvalidTransition{From: a.Status, To: next}
	}
	a.Status = next
	return nil
}

// CreateApplicationRequest is the candidate-provided part of a submission.
type CreateApplicationRequest struct {
	JobID    uuid.UUID `json:"job_id" validate:"required"`
	FullName string    `json:"full_name" validate:"required,min=1,max=255"`
	Email    string    `json:"email" validate:"required,email"`
	Phone    string    `json:"phone" validate:"omitempty,max=20"`
	Filename string    `json:"filename" validate:"required"`
}

// Validate validates the CreateApplicationRequest using the validator.
func (r *CreateApplicationRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// UpdateStatusRequest is the body of a status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=screening review interview hired rejected"`
}

// Validate validates the UpdateStatusRequest using the validator.
func (r *UpdateStatusRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
