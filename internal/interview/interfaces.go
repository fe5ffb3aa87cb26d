package interview

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/intervia/intervia-backend/internal/model"
)

// Sentinel errors surfaced by the controller. Expected conditions (duplicate
// timer fires, stale submits) are converted to these or absorbed; the
// controller never panics across its boundary.
var (
	// ErrQuestionSource wraps a Question Source failure or an empty question
	// list. The session stays NotStarted and the operation is retryable.
	ErrQuestionSource = errors.New("question source unavailable")

	// ErrInvalidState marks an operation that is not legal in the current
	// session state (stale index, already complete, not started). Callers
	// treat it as a no-op.
	ErrInvalidState = errors.New("operation not valid in current session state")

	// ErrNoSnapshot is returned when resume finds nothing to restore.
	ErrNoSnapshot = errors.New("no resumable session snapshot")
)

// TranscriptEntry pairs one question with its recorded answer for scoring.
type TranscriptEntry struct {
	Question model.Question `json:"question"`
	Answer   model.Answer   `json:"answer"`
}

// ScoreResult is the Scoring Service's verdict for a full transcript.
type ScoreResult struct {
	OverallScore float64                  `json:"overall_score"`
	PerQuestion  []model.QuestionFeedback `json:"per_question"`
	Summary      string                   `json:"summary"`
}

// QuestionSource generates the ordered question list for a profile.
// It must return at least one question; the controller never reorders them.
type QuestionSource interface {
	GenerateQuestions(ctx context.Context, profile model.CandidateProfile, count int) ([]model.Question, error)
}

// Scorer grades a complete transcript. Failures are absorbed by the
// controller, which substitutes a local fallback score.
type Scorer interface {
	ScoreTranscript(ctx context.Context, entries []TranscriptEntry, profile model.CandidateProfile) (*ScoreResult, error)
}

// Archiver records a finished session in the durable store. Append-only:
// the controller never updates an archived session in place.
type Archiver interface {
	Archive(ctx context.Context, sess *model.Session) error
}

// SnapshotStore persists in-progress session state for resume-after-interruption.
type SnapshotStore interface {
	Save(ctx context.Context, snap *model.SessionSnapshot) error
	Load(ctx context.Context, candidateID uuid.UUID) (*model.SessionSnapshot, error)
	Delete(ctx context.Context, candidateID uuid.UUID) error
}

// Deps bundles the controller's external collaborators.
type Deps struct {
	Questions QuestionSource
	Scorer    Scorer
	Archiver  Archiver
	Snapshots SnapshotStore
}

// Policy holds the tunable parts of the session contract.
type Policy struct {
	QuestionCount        int
	Limits               model.TimeLimits
	FallbackScorePerChar float64
	// PreserveRemainingOnResume keeps the snapshot's remaining seconds when
	// resuming; when false a resumed question gets a fresh full timer.
	PreserveRemainingOnResume bool
}
