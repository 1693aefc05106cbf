package model

import (
	"github.com/google/uuid"
)

// OptionCount is the fixed number of options on every question.
const OptionCount = 4

// Difficulty tags a question's level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Question represents a single multiple-choice exam question.
type Question struct {
	ID           uuid.UUID           `json:"id"`
	Subject      string              `json:"subject" validate:"required,max=100"`
	Text         string              `json:"text" validate:"required"`
	Options      [OptionCount]string `json:"options" validate:"dive,required"`
	CorrectIndex int                 `json:"correct_index" validate:"gte=0,lte=3"`
	Difficulty   Difficulty          `json:"difficulty" validate:"required,oneof=EASY MEDIUM HARD"`
	Explanation  string              `json:"explanation,omitempty"`
}

// QuestionForStudent is a question without the correct answer, sent to students.
// Options are already in display order.
type QuestionForStudent struct {
	ID         uuid.UUID           `json:"id"`
	Subject    string              `json:"subject"`
	Text       string              `json:"text"`
	Options    [OptionCount]string `json:"options"`
	Difficulty Difficulty          `json:"difficulty"`
}

// PoolFilter narrows the question pool loaded for a session.
type PoolFilter struct {
	Subject    string
	Difficulty Difficulty
}
