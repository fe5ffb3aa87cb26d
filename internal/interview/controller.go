package interview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/intervia/intervia-backend/internal/model"
	"github.com/rs/zerolog"
)

// State is the controller's position in the session lifecycle.
type State string

const (
	StateNotStarted     State = "NOT_STARTED"
	StateAwaitingAnswer State = "AWAITING_ANSWER"
	StateScoring        State = "SCORING"
	StateComplete       State = "COMPLETE"
	StateAbandoned      State = "ABANDONED"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateAbandoned
}

// Controller drives exactly one candidate through a fixed-length sequence of
// timed questions. Every question gets exactly one answer (real, or
// synthesized on timeout) and the transcript is handed to scoring exactly
// once. All state is owned by the controller; views read snapshots.
//
// The countdown is externally driven: the manager calls Tick once per second
// while the session is live. Auto-submit on expiry runs inside the tick,
// which is never re-entered from the submit path, so expiry and manual
// submits serialize on the controller mutex.
type Controller struct {
	mu sync.Mutex

	policy Policy
	deps   Deps
	log    zerolog.Logger
	now    func() time.Time

	state    State
	starting bool
	// detached means a successor session now owns the candidate's snapshot
	// key; this controller finishes but no longer deletes it.
	detached bool
	profile  model.CandidateProfile
	sess     *model.Session

	// Per-question countdown state. remaining is seconds left on the
	// current question; expiryHandled suppresses a second zero-fire.
	remaining     int
	expiryHandled bool
	staged        string

	done     chan struct{}
	doneOnce sync.Once
}

// View is the read-only snapshot handed to the HTTP/WS layer.
type View struct {
	State            State           `json:"state"`
	Session          *model.Session  `json:"session,omitempty"`
	CurrentQuestion  *model.Question `json:"current_question,omitempty"`
	RemainingSeconds int             `json:"remaining_seconds"`
	StagedText       string          `json:"staged_text,omitempty"`
}

// NewController creates an idle controller in NotStarted.
func NewController(policy Policy, deps Deps, log zerolog.Logger) *Controller {
	if policy.Limits == (model.TimeLimits{}) {
		policy.Limits = model.DefaultTimeLimits
	}
	if policy.QuestionCount <= 0 {
		policy.QuestionCount = 6
	}
	return &Controller{
		policy: policy,
		deps:   deps,
		log:    log.With().Str("component", "interview_controller").Logger(),
		now:    time.Now,
		state:  StateNotStarted,
		done:   make(chan struct{}),
	}
}

// Done is closed when the controller reaches a terminal state. The manager's
// tick loop exits on it, guaranteeing at most one armed countdown system-wide
// per candidate.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Start fetches the question list and arms the timer for question 0.
// On Question Source failure (or an empty list) the controller stays in
// NotStarted and the call is retryable; no session object is created.
func (c *Controller) Start(ctx context.Context, candidateID uuid.UUID, profile model.CandidateProfile) error {
	c.mu.Lock()
	if c.state != StateNotStarted || c.starting {
		c.mu.Unlock()
		return ErrInvalidState
	}
	c.starting = true
	c.mu.Unlock()

	questions, err := c.deps.Questions.GenerateQuestions(ctx, profile, c.policy.QuestionCount)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.starting = false

	if err != nil {
		return fmt.Errorf("%w: %v", ErrQuestionSource, err)
	}
	if len(questions) == 0 {
		return fmt.Errorf("%w: empty question list", ErrQuestionSource)
	}

	// Time limits derive from difficulty here, once; the list is frozen
	// from this point on.
	for i := range questions {
		if questions[i].ID == uuid.Nil {
			questions[i].ID = uuid.New()
		}
		questions[i].TimeLimitSeconds = c.policy.Limits.ForDifficulty(questions[i].Difficulty)
	}

	c.profile = profile
	c.sess = &model.Session{
		ID:          uuid.New(),
		CandidateID: candidateID,
		Questions:   questions,
		Answers:     make([]model.Answer, 0, len(questions)),
		StartedAt:   c.now(),
	}
	c.state = StateAwaitingAnswer
	c.remaining = questions[0].TimeLimitSeconds
	c.expiryHandled = false
	c.staged = ""

	c.saveSnapshotLocked(ctx)

	c.log.Info().
		Str("session_id", c.sess.ID.String()).
		Str("candidate_id", candidateID.String()).
		Int("questions", len(questions)).
		Msg("Session started")
	return nil
}

// Resume restores an interrupted session from its snapshot. The timer policy
// is explicit: a fresh full-length countdown by default, or the snapshot's
// remaining seconds when PreserveRemainingOnResume is set.
func (c *Controller) Resume(snap *model.SessionSnapshot) error {
	if snap == nil {
		return ErrNoSnapshot
	}
	sess := snap.Session.Clone()
	if sess.IsComplete ||
		sess.CurrentIndex >= len(sess.Questions) ||
		len(sess.Answers) != sess.CurrentIndex {
		return ErrInvalidState
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateNotStarted {
		return ErrInvalidState
	}

	limit := sess.Questions[sess.CurrentIndex].TimeLimitSeconds
	remaining := limit
	if c.policy.PreserveRemainingOnResume && snap.RemainingSeconds > 0 && snap.RemainingSeconds <= limit {
		remaining = snap.RemainingSeconds
	}

	c.profile = snap.Profile
	c.sess = sess
	c.state = StateAwaitingAnswer
	c.remaining = remaining
	c.expiryHandled = false
	c.staged = snap.StagedText

	c.log.Info().
		Str("session_id", sess.ID.String()).
		Int("index", sess.CurrentIndex).
		Int("remaining", remaining).
		Msg("Session resumed")
	return nil
}

// Detach marks the controller as replaced by a newer session for the same
// candidate. A detached controller mid-scoring still completes and archives,
// but leaves the shared snapshot to the successor instead of deleting it.
func (c *Controller) Detach() {
	c.mu.Lock()
	c.detached = true
	c.mu.Unlock()
}

// StageText stores the latest typed draft or speech transcript partial for
// the current question. On expiry the staged text is the best-effort answer;
// the controller never waits for the transcription provider to finalize.
func (c *Controller) StageText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAwaitingAnswer {
		return ErrInvalidState
	}
	c.staged = text
	return nil
}

// Submit records a manual answer for the given question index. A stale index
// (double-click, answer raced by expiry) is rejected with ErrInvalidState and
// changes nothing.
func (c *Controller) Submit(ctx context.Context, index int, text string) error {
	c.mu.Lock()
	if c.state != StateAwaitingAnswer {
		c.mu.Unlock()
		return ErrInvalidState
	}
	if index != c.sess.CurrentIndex {
		c.mu.Unlock()
		return ErrInvalidState
	}

	q := c.sess.Questions[index]
	elapsed := q.TimeLimitSeconds - c.remaining
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > q.TimeLimitSeconds {
		elapsed = q.TimeLimitSeconds
	}

	if text == "" {
		text = c.staged
	}

	c.recordLocked(text, elapsed, false)
	c.advance(ctx) // releases the lock
	return nil
}

// Tick advances the countdown by one second. At zero it stops the countdown
// idempotently and fires the auto-submit path: the staged text if any,
// otherwise the sentinel answer, with timeTaken equal to the full limit.
// A second zero observation is suppressed.
func (c *Controller) Tick(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateAwaitingAnswer {
		c.mu.Unlock()
		return
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining > 0 {
		c.mu.Unlock()
		return
	}
	if c.expiryHandled {
		c.mu.Unlock()
		return
	}
	c.expiryHandled = true

	q := c.sess.Questions[c.sess.CurrentIndex]
	text := c.staged
	if text == "" {
		text = model.SentinelNoAnswer
	}
	c.recordLocked(text, q.TimeLimitSeconds, true)
	c.advance(ctx) // releases the lock
}

// Abandon tears the session down before completion. When archive is set the
// partial transcript is written to the durable store without a score.
// Abandoning during scoring is rejected; completion is already inevitable.
func (c *Controller) Abandon(ctx context.Context, archive bool) error {
	c.mu.Lock()
	if c.state.Terminal() {
		c.mu.Unlock()
		return ErrInvalidState
	}
	if c.state == StateScoring {
		c.mu.Unlock()
		return ErrInvalidState
	}

	c.state = StateAbandoned
	var sess *model.Session
	if archive && c.sess != nil && len(c.sess.Answers) > 0 {
		sess = c.sess.Clone()
	}
	var candidateID uuid.UUID
	if c.sess != nil {
		candidateID = c.sess.CandidateID
	}
	detached := c.detached
	c.mu.Unlock()

	if sess != nil {
		if err := c.deps.Archiver.Archive(ctx, sess); err != nil {
			c.log.Warn().Err(err).Msg("Archive of abandoned session failed")
		}
	}
	if candidateID != uuid.Nil && !detached {
		if err := c.deps.Snapshots.Delete(ctx, candidateID); err != nil {
			c.log.Warn().Err(err).Msg("Snapshot delete failed")
		}
	}
	c.finish()
	return nil
}

// Snapshot returns a deep-copied view. The view layer must never mutate
// controller state; this is the only read path.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		State:            c.state,
		RemainingSeconds: c.remaining,
		StagedText:       c.staged,
	}
	if c.sess != nil {
		v.Session = c.sess.Clone()
		v.CurrentQuestion = v.Session.CurrentQuestion()
	}
	return v
}

// SaveSnapshot forces a snapshot write, used by graceful shutdown so live
// sessions survive a restart.
func (c *Controller) SaveSnapshot(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateAwaitingAnswer {
		c.mu.Unlock()
		return
	}
	c.saveSnapshotLocked(ctx)
	c.mu.Unlock()
}

// ────────────────────────────────────────────────────────────────────────────
// Internal transitions
// ────────────────────────────────────────────────────────────────────────────

// recordLocked appends the answer for the current index and advances the
// index. Caller holds c.mu. This is the only place answers are created, so
// len(answers) == currentIndex holds after every operation.
func (c *Controller) recordLocked(text string, timeTaken int, auto bool) {
	q := c.sess.Questions[c.sess.CurrentIndex]
	c.sess.Answers = append(c.sess.Answers, model.Answer{
		QuestionID:       q.ID,
		QuestionText:     q.Text,
		AnswerText:       text,
		Difficulty:       q.Difficulty,
		Category:         q.Category,
		SubmittedAt:      c.now(),
		TimeTakenSeconds: timeTaken,
		AutoSubmitted:    auto,
	})
	c.sess.CurrentIndex++
}

// advance rearms the timer for the next question, or hands off to scoring
// when the last answer was just recorded. Called with c.mu held; releases it.
func (c *Controller) advance(ctx context.Context) {
	if c.sess.CurrentIndex < len(c.sess.Questions) {
		next := c.sess.Questions[c.sess.CurrentIndex]
		c.remaining = next.TimeLimitSeconds
		c.expiryHandled = false
		c.staged = ""
		c.saveSnapshotLocked(ctx)
		c.mu.Unlock()
		return
	}

	// Final answer recorded: scoring happens exactly once, triggered here.
	c.state = StateScoring
	entries := make([]TranscriptEntry, len(c.sess.Questions))
	for i := range c.sess.Questions {
		entries[i] = TranscriptEntry{
			Question: c.sess.Questions[i],
			Answer:   c.sess.Answers[i],
		}
	}
	profile := c.profile
	c.mu.Unlock()

	// Network call without the lock; readers see StateScoring meanwhile and
	// new submissions are rejected by the state check.
	result, err := c.deps.Scorer.ScoreTranscript(ctx, entries, profile)

	c.mu.Lock()
	source := model.ScoreSourceService
	if err != nil || result == nil || result.OverallScore < 0 || result.OverallScore > 100 {
		if err != nil {
			c.log.Warn().Err(err).Msg("Scoring service failed, using fallback score")
		} else {
			c.log.Warn().Msg("Scoring service returned malformed result, using fallback score")
		}
		result = &ScoreResult{
			OverallScore: FallbackScore(c.sess.Answers, c.policy.FallbackScorePerChar),
			Summary:      FallbackSummary,
		}
		source = model.ScoreSourceFallback
	}

	now := c.now()
	c.sess.CompletedAt = &now
	c.sess.FinalScore = &result.OverallScore
	c.sess.ScoringSummary = result.Summary
	c.sess.PerQuestion = result.PerQuestion
	c.sess.ScoreSource = source
	c.sess.IsComplete = true
	c.state = StateComplete
	c.remaining = 0

	sess := c.sess.Clone()
	candidateID := sess.CandidateID
	detached := c.detached
	c.mu.Unlock()

	if err := c.deps.Archiver.Archive(ctx, sess); err != nil {
		c.log.Error().Err(err).Str("session_id", sess.ID.String()).Msg("Archive failed")
	}
	if !detached {
		if err := c.deps.Snapshots.Delete(ctx, candidateID); err != nil {
			c.log.Warn().Err(err).Msg("Snapshot delete failed")
		}
	}
	c.finish()

	c.log.Info().
		Str("session_id", sess.ID.String()).
		Float64("score", result.OverallScore).
		Str("source", string(source)).
		Msg("Session complete")
}

// saveSnapshotLocked queues the current state for persistence. Best effort:
// a failed write degrades resume, never the live session.
func (c *Controller) saveSnapshotLocked(ctx context.Context) {
	snap := &model.SessionSnapshot{
		Session:          *c.sess.Clone(),
		Profile:          c.profile,
		RemainingSeconds: c.remaining,
		StagedText:       c.staged,
		SavedAt:          c.now(),
	}
	if err := c.deps.Snapshots.Save(ctx, snap); err != nil {
		c.log.Warn().Err(err).Msg("Snapshot save failed")
	}
}

func (c *Controller) finish() {
	c.doneOnce.Do(func() { close(c.done) })
}
