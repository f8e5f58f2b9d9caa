package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// JobRequirements is the read-only view of a job that the scoring engine consumes.
type JobRequirements struct {
	RequiredSkills []string `json:"required_skills"`
	JDKeywords     []string `json:"jd_keywords"`
	MinExperience  *float64 `json:"min_experience,omitempty"`
	MaxExperience  *float64 `json:"max_experience,omitempty"`
}

// Job is a posted job opening.
type Job struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title" validate:"required,min=1,max=255"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description"`
	RequiredSkills []string  `json:"required_skills" validate:"dive,required"`
	JDKeywords     []string  `json:"jd_keywords" validate:"dive,required"`
	MinExperience  *float64  `json:"min_experience,omitempty" validate:"omitempty,gte=0,lte=60"`
	MaxExperience  *float64  `json:"max_experience,omitempty" validate:"omitempty,gte=0,lte=60"`
	CreatedAt      time.Time `json:"created_at"`
}

// Requirements returns the scoring inputs of the job.
func (j *Job) Requirements() *JobRequirements {
	if j == nil {
		return nil
	}
	return &JobRequirements{
		RequiredSkills: j.RequiredSkills,
		JDKeywords:     j.JDKeywords,
		MinExperience:  j.MinExperience,
		MaxExperience:  j.MaxExperience,
	}
}

// Validate validates the Job using the validator and checks that the
// experience range is not inverted.
func (j *Job) Validate() error {
	validate := validator.New()
	if err := validate.Struct(j); err != nil {
		return err
	}
	if j.MinExperience != nil && j.MaxExperience != nil && *j.MinExperience > *j.MaxExperience {
		return fmt.Errorf("minimum experience (%g) cannot be greater than maximum experience (%g)",
			*j.MinExperience, *j.MaxExperience)
	}
	return nil
}
