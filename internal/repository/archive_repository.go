package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/intervia/intervia-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionSummary is the compact listing row for the history browser.
type SessionSummary struct {
	ID            uuid.UUID         `json:"id"`
	StartedAt     time.Time         `json:"started_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	FinalScore    *float64          `json:"final_score,omitempty"`
	ScoreSource   model.ScoreSource `json:"score_source,omitempty"`
	QuestionCount int               `json:"question_count"`
	AnswerCount   int               `json:"answer_count"`
}

// ArchiveRepository stores completed (or abandoned-with-archive) sessions.
// Append/read-only: archived sessions are never updated in place.
type ArchiveRepository struct {
	pool *pgxpool.Pool
}

// NewArchiveRepository creates a new ArchiveRepository.
func NewArchiveRepository(pool *pgxpool.Pool) *ArchiveRepository {
	return &ArchiveRepository{pool: pool}
}

// Save archives a single session with its answers.
func (r *ArchiveRepository) Save(ctx context.Context, sess *model.Session) error {
	return r.SaveMany(ctx, []*model.Session{sess})
}

// SaveMany archives a batch of sessions in one transaction. Sessions and
// answers are queued on a single pgx batch to keep round trips low.
func (r *ArchiveRepository) SaveMany(ctx context.Context, sessions []*model.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, sess := range sessions {
		perQuestion, err := json.Marshal(sess.PerQuestion)
		if err != nil {
			return fmt.Errorf("marshal per-question feedback: %w", err)
		}

		batch.Queue(
			`INSERT INTO interview_sessions
			   (id, candidate_id, started_at, completed_at, final_score, scoring_summary, score_source, per_question, question_count)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO NOTHING`,
			sess.ID, sess.CandidateID, sess.StartedAt, sess.CompletedAt,
			sess.FinalScore, sess.ScoringSummary, sess.ScoreSource, perQuestion, len(sess.Questions),
		)

		for i, a := range sess.Answers {
			q := sess.Questions[i]
			batch.Queue(
				`INSERT INTO interview_answers
				   (session_id, idx, question_id, question_text, answer_text, difficulty, category,
				    expected_topics, time_taken_seconds, time_limit_seconds, auto_submitted, submitted_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				 ON CONFLICT (session_id, idx) DO NOTHING`,
				sess.ID, i, q.ID, q.Text, a.AnswerText, q.Difficulty, q.Category,
				q.ExpectedTopics, a.TimeTakenSeconds, q.TimeLimitSeconds, a.AutoSubmitted, a.SubmittedAt,
			)
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return tx.Commit(ctx)
}

// ListByCandidate returns page-sized session summaries, newest first.
func (r *ArchiveRepository) ListByCandidate(ctx context.Context, candidateID uuid.UUID, page, perPage int) ([]SessionSummary, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM interview_sessions WHERE candidate_id = $1`, candidateID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.started_at, s.completed_at, s.final_score, s.score_source, s.question_count,
		        (SELECT COUNT(*) FROM interview_answers a WHERE a.session_id = s.id)
		 FROM interview_sessions s
		 WHERE s.candidate_id = $1
		 ORDER BY s.started_at DESC
		 LIMIT $2 OFFSET $3`, candidateID, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.ID, &s.StartedAt, &s.CompletedAt, &s.FinalScore, &s.ScoreSource, &s.QuestionCount, &s.AnswerCount); err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, s)
	}
	return summaries, total, rows.Err()
}

// GetByID reconstructs an archived session, scoped to the owning candidate.
// Questions are rebuilt from the answer rows, so a partially archived
// session only carries the questions that were actually reached.
func (r *ArchiveRepository) GetByID(ctx context.Context, id, candidateID uuid.UUID) (*model.Session, error) {
	sess := &model.Session{ID: id}
	var perQuestion []byte
	err := r.pool.QueryRow(ctx,
		`SELECT candidate_id, started_at, completed_at, final_score, scoring_summary, score_source, per_question
		 FROM interview_sessions
		 WHERE id = $1 AND candidate_id = $2`, id, candidateID,
	).Scan(&sess.CandidateID, &sess.StartedAt, &sess.CompletedAt, &sess.FinalScore,
		&sess.ScoringSummary, &sess.ScoreSource, &perQuestion)
	if err != nil {
		return nil, err
	}
	if len(perQuestion) > 0 {
		if err := json.Unmarshal(perQuestion, &sess.PerQuestion); err != nil {
			return nil, fmt.Errorf("unmarshal per-question feedback: %w", err)
		}
	}

	rows, err := r.pool.Query(ctx,
		`SELECT question_id, question_text, answer_text, difficulty, category,
		        expected_topics, time_taken_seconds, time_limit_seconds, auto_submitted, submitted_at
		 FROM interview_answers
		 WHERE session_id = $1
		 ORDER BY idx ASC`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var q model.Question
		var a model.Answer
		if err := rows.Scan(&q.ID, &q.Text, &a.AnswerText, &q.Difficulty, &q.Category,
			&q.ExpectedTopics, &a.TimeTakenSeconds, &q.TimeLimitSeconds, &a.AutoSubmitted, &a.SubmittedAt); err != nil {
			return nil, err
		}
		a.QuestionID = q.ID
		a.QuestionText = q.Text
		a.Difficulty = q.Difficulty
		a.Category = q.Category
		sess.Questions = append(sess.Questions, q)
		sess.Answers = append(sess.Answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sess.CurrentIndex = len(sess.Answers)
	sess.IsComplete = sess.CompletedAt != nil
	return sess, nil
}

// Delete removes an archived session, scoped to the owning candidate so one
// candidate can never delete another's history.
func (r *ArchiveRepository) Delete(ctx context.Context, id, candidateID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM interview_sessions WHERE id = $1 AND candidate_id = $2`, id, candidateID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
