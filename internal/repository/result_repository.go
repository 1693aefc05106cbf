package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-quiz/internal/model"
)

// ErrResultNotFound is returned when no result is stored for a session.
var ErrResultNotFound = errors.New("result not found")

// ResultRepository persists graded session results.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// SaveBatch stores results in one transaction: headers through a bulk UNNEST
// insert, per-question items through COPY. Results already stored are skipped.
func (r *ResultRepository) SaveBatch(ctx context.Context, results []*model.Result) error {
	if len(results) == 0 {
		return nil
	}

	n := len(results)
	sessionIDs := make([]uuid.UUID, 0, n)
	studentIDs := make([]int, 0, n)
	scores := make([]float64, 0, n)
	totals := make([]int, 0, n)
	corrects := make([]int, 0, n)
	wrongs := make([]int, 0, n)
	unanswered := make([]int, 0, n)
	percentages := make([]float64, 0, n)
	passed := make([]bool, 0, n)
	durations := make([]int64, 0, n)
	reasons := make([]string, 0, n)
	completedAts := make([]time.Time, 0, n)

	for _, res := range results {
		sessionIDs = append(sessionIDs, res.SessionID)
		studentIDs = append(studentIDs, res.StudentID)
		scores = append(scores, res.Score)
		totals = append(totals, res.TotalQuestions)
		corrects = append(corrects, res.Correct)
		wrongs = append(wrongs, res.Wrong)
		unanswered = append(unanswered, res.Unanswered)
		percentages = append(percentages, res.Percentage)
		passed = append(passed, res.Passed)
		durations = append(durations, res.Duration.Milliseconds())
		reasons = append(reasons, string(res.EndReason))
		completedAts = append(completedAts, res.CompletedAt)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		INSERT INTO exam_results (
			session_id, student_id, score, total_questions, correct, wrong, unanswered,
			percentage, passed, duration_ms, end_reason, completed_at
		)
		SELECT * FROM UNNEST(
			$1::uuid[], $2::int[], $3::float8[], $4::int[], $5::int[], $6::int[], $7::int[],
			$8::float8[], $9::bool[], $10::bigint[], $11::text[], $12::timestamptz[]
		)
		ON CONFLICT (session_id) DO NOTHING
		RETURNING session_id`,
		sessionIDs, studentIDs, scores, totals, corrects, wrongs, unanswered,
		percentages, passed, durations, reasons, completedAts,
	)
	if err != nil {
		return fmt.Errorf("insert results: %w", err)
	}
	inserted, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return fmt.Errorf("collect inserted results: %w", err)
	}

	fresh := make(map[uuid.UUID]bool, len(inserted))
	for _, id := range inserted {
		fresh[id] = true
	}
	var items [][]any
	for _, res := range results {
		if fresh[res.SessionID] {
			items = append(items, itemRows(res)...)
		}
	}
	if len(items) > 0 {
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"exam_result_items"},
			resultItemColumns,
			pgx.CopyFromRows(items),
		); err != nil {
			return fmt.Errorf("copy result items: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Save stores a single result. It is a no-op when the result already exists.
func (r *ResultRepository) Save(ctx context.Context, res *model.Result) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO exam_results (
			session_id, student_id, score, total_questions, correct, wrong, unanswered,
			percentage, passed, duration_ms, end_reason, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (session_id) DO NOTHING`,
		res.SessionID, res.StudentID, res.Score, res.TotalQuestions, res.Correct, res.Wrong, res.Unanswered,
		res.Percentage, res.Passed, res.Duration.Milliseconds(), string(res.EndReason), res.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, row := range itemRows(res) {
		batch.Queue(`
			INSERT INTO exam_result_items (session_id, position, question_id, selected, correct, marked, time_spent_ms)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`, row...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert result items: %w", err)
	}

	return tx.Commit(ctx)
}

// GetBySession loads a stored result with its per-question outcomes.
func (r *ResultRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.Result, error) {
	res := &model.Result{SessionID: sessionID}
	var (
		durationMs int64
		reason     string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT student_id, score, total_questions, correct, wrong, unanswered,
		       percentage, passed, duration_ms, end_reason, completed_at
		FROM exam_results WHERE session_id = $1`, sessionID,
	).Scan(&res.StudentID, &res.Score, &res.TotalQuestions, &res.Correct, &res.Wrong, &res.Unanswered,
		&res.Percentage, &res.Passed, &durationMs, &reason, &res.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	res.Duration = time.Duration(durationMs) * time.Millisecond
	res.EndReason = model.EndReason(reason)

	rows, err := r.pool.Query(ctx, `
		SELECT question_id, position, selected, correct, marked, time_spent_ms
		FROM exam_result_items WHERE session_id = $1
		ORDER BY position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query result items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o       model.QuestionOutcome
			spentMs int64
		)
		if err := rows.Scan(&o.QuestionID, &o.Position, &o.Selected, &o.Correct, &o.Marked, &spentMs); err != nil {
			return nil, fmt.Errorf("scan result item: %w", err)
		}
		o.TimeSpent = time.Duration(spentMs) * time.Millisecond
		res.Outcomes = append(res.Outcomes, o)
		res.Correctness = append(res.Correctness, o.Correct)
	}
	return res, rows.Err()
}

var resultItemColumns = []string{"session_id", "position", "question_id", "selected", "correct", "marked", "time_spent_ms"}

func itemRows(res *model.Result) [][]any {
	rows := make([][]any, 0, len(res.Outcomes))
	for _, o := range res.Outcomes {
		rows = append(rows, []any{
			res.SessionID, o.Position, o.QuestionID, o.Selected, o.Correct, o.Marked, o.TimeSpent.Milliseconds(),
		})
	}
	return rows
}
