package types

// ScoreBundle is the result of matching one parsed resume against one job.
type ScoreBundle struct {
	FinalScore      float64  `json:"final_score"`
	SkillScore      float64  `json:"skill_score"`
	ExperienceScore float64  `json:"experience_score"`
	KeywordScore    float64  `json:"keyword_score"`
	MatchedSkills   []string `json:"matched_skills"`
	MissingSkills   []string `json:"missing_skills"`
}

// Narrative holds the human-readable labels derived from a score.
type Narrative struct {
	Summary     string `json:"summary"`
	Evaluation  string `json:"evaluation"`
	FitCategory string `json:"fit_category"`
	Badge       string `json:"badge"`
}
