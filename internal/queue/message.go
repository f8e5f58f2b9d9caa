// Package queue screens resumes submitted through RabbitMQ. Uploads land in
// object storage first; a message on the submissions queue points the worker
// at the object and names the candidate.
package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/resume-screener/internal/types"
)

// EventScreened is the routing key of the event published after a
// submission was screened and saved.
const EventScreened = "application.screened"

// Submission is the body of a message on the submissions queue.
type Submission struct {
	JobID     uuid.UUID `json:"job_id" validate:"required"`
	FullName  string    `json:"full_name" validate:"required,max=255"`
	Email     string    `json:"email" validate:"required,email"`
	Phone     string    `json:"phone,omitempty" validate:"omitempty,max=20"`
	ObjectKey string    `json:"object_key" validate:"required"`
	Filename  string    `json:"filename,omitempty"`
}

// DecodeSubmission parses and validates a message body. A missing filename
// falls back to the last element of the object key.
func DecodeSubmission(body []byte) (Submission, error) {
	var sub Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		return Submission{}, fmt.Errorf("invalid submission JSON: %w", err)
	}
	sub.FullName = strings.TrimSpace(sub.FullName)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.ObjectKey = strings.TrimSpace(sub.ObjectKey)
	if err := validator.New().Struct(sub); err != nil {
		return Submission{}, fmt.Errorf("invalid submission: %w", err)
	}
	if strings.TrimSpace(sub.Filename) == "" {
		sub.Filename = sub.ObjectKey[strings.LastIndex(sub.ObjectKey, "/")+1:]
	}
	return sub, nil
}

// Request converts the submission into the screening service's request.
func (s Submission) Request() types.CreateApplicationRequest {
	return types.CreateApplicationRequest{
		JobID:    s.JobID,
		FullName: s.FullName,
		Email:    s.Email,
		Phone:    s.Phone,
		Filename: s.Filename,
	}
}

// ScreenedEvent announces a saved application.
type ScreenedEvent struct {
	Type          string    `json:"type"`
	ApplicationID uuid.UUID `json:"application_id"`
	JobID         uuid.UUID `json:"job_id"`
	MatchScore    float64   `json:"match_score"`
	FitCategory   string    `json:"fit_category"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewScreenedEvent builds the event for app.
func NewScreenedEvent(app *types.Application, now time.Time) ScreenedEvent {
	return ScreenedEvent{
		Type:          EventScreened,
		ApplicationID: app.ID,
		JobID:         app.JobID,
		MatchScore:    app.MatchScore,
		FitCategory:   app.FitCategory,
		Timestamp:     now.UTC(),
	}
}
