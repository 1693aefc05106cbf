package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-quiz/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListPool retrieves the questions matching filter. Empty filter fields match
// everything; the subject comparison ignores case.
func (r *QuestionRepository) ListPool(ctx context.Context, filter model.PoolFilter) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, subject, question_text, options, correct_index, difficulty, COALESCE(explanation, '')
		 FROM questions
		 WHERE ($1 = '' OR lower(subject) = lower($1))
		   AND ($2 = '' OR difficulty = $2)
		 ORDER BY created_at, id`,
		filter.Subject, string(filter.Difficulty),
	)
	if err != nil {
		return nil, fmt.Errorf("query question pool: %w", err)
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var (
			q       model.Question
			options []byte
		)
		if err := rows.Scan(&q.ID, &q.Subject, &q.Text, &options, &q.CorrectIndex, &q.Difficulty, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("decode options of question %s: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (subject, question_text, options, correct_index, difficulty, explanation)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		 RETURNING id`,
		q.Subject, q.Text, options, q.CorrectIndex, q.Difficulty, q.Explanation,
	).Scan(&q.ID)
}
