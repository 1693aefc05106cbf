package model

import "time"

// NavigationMode controls whether a student may move backwards.
type NavigationMode string

const (
	NavigationSequential NavigationMode = "SEQUENTIAL"
	NavigationFree       NavigationMode = "FREE"
)

// Settings configures one exam session.
type Settings struct {
	QuestionCount     int            `json:"question_count" validate:"gt=0,lte=500"`
	SubjectFilter     string         `json:"subject_filter" validate:"omitempty,max=100"`
	DifficultyFilter  Difficulty     `json:"difficulty_filter" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	TimeLimitSeconds  int            `json:"time_limit_seconds" validate:"gte=0"`
	ShuffleQuestions  bool           `json:"shuffle_questions"`
	ShuffleOptions    bool           `json:"shuffle_options"`
	AllowReview       bool           `json:"allow_review"`
	AutoSubmit        bool           `json:"auto_submit"`
	NegativeMarking   bool           `json:"negative_marking"`
	NegativeMarkValue float64        `json:"negative_mark_value" validate:"gte=0"`
	PassingPercentage float64        `json:"passing_percentage" validate:"gte=0,lte=100"`
	NavigationMode    NavigationMode `json:"navigation_mode" validate:"required,oneof=SEQUENTIAL FREE"`
	// Strict rejects a pool smaller than QuestionCount instead of clamping.
	Strict bool `json:"strict"`
}

// TimeLimit returns the limit as a duration; zero means unbounded.
func (s Settings) TimeLimit() time.Duration {
	return time.Duration(s.TimeLimitSeconds) * time.Second
}

// Filter returns the pool filter described by the settings.
func (s Settings) Filter() PoolFilter {
	return PoolFilter{Subject: s.SubjectFilter, Difficulty: s.DifficultyFilter}
}
