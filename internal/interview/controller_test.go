package interview

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/intervia/intervia-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLog = zerolog.Nop()

func newStarted(t *testing.T, qs []model.Question, policy Policy) (*Controller, *mockScorer, *mockArchiver, *mockSnapshotStore) {
	t.Helper()
	deps, _, scorer, archiver, snaps := newTestDeps(qs)
	ctrl := NewController(policy, deps, testLog)
	require.NoError(t, ctrl.Start(context.Background(), uuid.New(), model.CandidateProfile{Name: "Jo"}))
	return ctrl, scorer, archiver, snaps
}

// tickN drives the countdown n seconds.
func tickN(ctrl *Controller, n int) {
	for i := 0; i < n; i++ {
		ctrl.Tick(context.Background())
	}
}

func TestStartAssignsTimeLimitsByDifficulty(t *testing.T) {
	qs := questions(model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard)
	ctrl, _, _, _ := newStarted(t, qs, Policy{})

	v := ctrl.Snapshot()
	require.Equal(t, StateAwaitingAnswer, v.State)
	require.NotNil(t, v.Session)
	assert.Equal(t, 20, v.Session.Questions[0].TimeLimitSeconds)
	assert.Equal(t, 60, v.Session.Questions[1].TimeLimitSeconds)
	assert.Equal(t, 120, v.Session.Questions[2].TimeLimitSeconds)
	assert.Equal(t, 20, v.RemainingSeconds)
}

func TestStartQuestionSourceFailureIsRetryable(t *testing.T) {
	deps, src, _, _, _ := newTestDeps(nil)
	src.GenerateQuestionsFn = func(ctx context.Context, profile model.CandidateProfile, count int) ([]model.Question, error) {
		if src.calls == 1 {
			return nil, errors.New("upstream 503")
		}
		return questions(model.DifficultyEasy), nil
	}

	ctrl := NewController(Policy{}, deps, testLog)
	err := ctrl.Start(context.Background(), uuid.New(), model.CandidateProfile{})
	require.ErrorIs(t, err, ErrQuestionSource)
	assert.Equal(t, StateNotStarted, ctrl.Snapshot().State)
	assert.Nil(t, ctrl.Snapshot().Session)

	// Retry succeeds on the same controller.
	require.NoError(t, ctrl.Start(context.Background(), uuid.New(), model.CandidateProfile{}))
	assert.Equal(t, StateAwaitingAnswer, ctrl.Snapshot().State)
}

func TestStartEmptyQuestionListFails(t *testing.T) {
	deps, _, _, _, _ := newTestDeps([]model.Question{})
	ctrl := NewController(Policy{}, deps, testLog)

	err := ctrl.Start(context.Background(), uuid.New(), model.CandidateProfile{})
	require.ErrorIs(t, err, ErrQuestionSource)
	assert.Equal(t, StateNotStarted, ctrl.Snapshot().State)
}

// Ordered progression: answers stay aligned with question indices and the
// session walks the list front to back.
func TestOrderedProgressionInvariant(t *testing.T) {
	qs := questions(model.DifficultyEasy, model.DifficultyEasy, model.DifficultyEasy)
	ctrl, _, _, _ := newStarted(t, qs, Policy{})

	for i := 0; i < 3; i++ {
		v := ctrl.Snapshot()
		assert.Equal(t, i, v.Session.CurrentIndex)
		assert.Len(t, v.Session.Answers, i)
		require.NoError(t, ctrl.Submit(context.Background(), i, "answer"))
	}

	v := ctrl.Snapshot()
	assert.Equal(t, StateComplete, v.State)
	require.Len(t, v.Session.Answers, 3)
	for i, a := range v.Session.Answers {
		assert.Equal(t, qs[i].ID, a.QuestionID, "answer %d bound to wrong question", i)
	}
}

// Every question ends with exactly one answer even when nothing is typed.
func TestExpiryRecordsSentinelAnswer(t *testing.T) {
	qs := questions(model.DifficultyEasy, model.DifficultyEasy)
	ctrl, _, _, _ := newStarted(t, qs, Policy{})

	tickN(ctrl, 20)

	v := ctrl.Snapshot()
	require.Len(t, v.Session.Answers, 1)
	a := v.Session.Answers[0]
	assert.Equal(t, model.SentinelNoAnswer, a.AnswerText)
	assert.True(t, a.AutoSubmitted)
	assert.Equal(t, 20, a.TimeTakenSeconds)
	assert.Equal(t, 1, v.Session.CurrentIndex)
	assert.Equal(t, StateAwaitingAnswer, v.State)
	assert.Equal(t, 20, v.RemainingSeconds)
}

// Idempotent expiry: extra ticks at zero never produce a second answer for
// the same index.
func TestExpiryFiresExactlyOnce(t *testing.T) {
	qs := questions(model.DifficultyEasy, model.DifficultyHard)
	ctrl, _, _, _ := newStarted(t, qs, Policy{})

	tickN(ctrl, 20)
	before := ctrl.Snapshot()
	require.Len(t, before.Session.Answers, 1)

	// The new question's countdown is live; early ticks must not re-fire
	// question 0's expiry.
	tickN(ctrl, 5)
	after := ctrl.Snapshot()
	assert.Len(t, after.Session.Answers, 1)
	assert.Equal(t, 1, after.Session.CurrentIndex)
	assert.Equal(t, 115, after.RemainingSeconds)
}

func TestExpiryUsesStagedText(t *testing.T) {
	qs := questions(model.DifficultyEasy, model.DifficultyEasy)
	ctrl, _, _, _ := newStarted(t, qs, Policy{})

	require.NoError(t, ctrl.StageText("partial transcript so far"))
	tickN(ctrl, 20)

	v := ctrl.Snapshot()
	require.Len(t, v.Session.Answers, 1)
	assert.Equal(t, "partial transcript so far", v.Session.Answers[0].AnswerText)
	assert.True(t, v.Session.Answers[0].AutoSubmitted)

	// Staged text does not leak into the next question.
	assert.Empty(t, v.StagedText)
}

func TestManualSubmitRecordsElapsedTime(t *testing.T) {
	qs := questions(model.DifficultyMedium)
	ctrl, _, _, _ := newStarted(t, qs, Policy{})

	tickN(ctrl, 13)
	require.NoError(t, ctrl.Submit(context.Background(), 0, "typed answer"))

	v := ctrl.Snapshot()
	require.Len(t, v.Session.Answers, 1)
	a := v.Session.Answers[0]
	assert.Equal(t, "typed answer", a.AnswerText)
	assert.Equal(t, 13, a.TimeTakenSeconds)
	assert.False(t, a.AutoSubmitted)
}

func TestSubmitEmptyTextFallsBackToStaged(t *testing.T) {
	qs := questions(model.DifficultyMedium)
	ctrl, _, _, _ := newStarted(t, qs, Policy{})

	require.NoError(t, ctrl.StageText("spoken words"))
	require.NoError(t, ctrl.Submit(context.Background(), 0, ""))

	v := ctrl.Snapshot()
	assert.Equal(t, "spoken words", v.Session.Answers[0].AnswerText)
}

// Scenario: double-click on submit. The second call carries a now-stale
// index and must change nothing.
func TestDuplicateSubmitIsRejected(t *testing.T) {
	qs := questions(model.DifficultyEasy, model.DifficultyEasy)
	ctrl, _, _, _ := newStarted(t, qs, Policy{})

	require.NoError(t, ctrl.Submit(context.Background(), 0, "first"))
	err := ctrl.Submit(context.Background(), 0, "second")
	require.ErrorIs(t, err, ErrInvalidState)

	v := ctrl.Snapshot()
	require.Len(t, v.Session.Answers, 1)
	assert.Equal(t, "first", v.Session.Answers[0].AnswerText)
	assert.Equal(t, 1, v.Session.CurrentIndex)
}

// Scenario: submit racing expiry. Whichever records first wins; the loser
// sees a stale index and is a no-op.
func TestSubmitAfterExpiryIsNoOp(t *testing.T) {
	qs := questions(model.DifficultyEasy, model.DifficultyEasy)
	ctrl, _, _, _ := newStarted(t, qs, Policy{})

	tickN(ctrl, 20) // expiry records the sentinel for index 0

	err := ctrl.Submit(context.Background(), 0, "too late")
	require.ErrorIs(t, err, ErrInvalidState)

	v := ctrl.Snapshot()
	require.Len(t, v.Session.Answers, 1)
	assert.Equal(t, model.SentinelNoAnswer, v.Session.Answers[0].AnswerText)
}

func TestSubmitOutOfRangeIndexIsNoOp(t *testing.T) {
	qs := questions(model.DifficultyEasy, model.DifficultyEasy)
	ctrl, _, _, _ := newStarted(t, qs, Policy{})

	assert.ErrorIs(t, ctrl.Submit(context.Background(), 5, "x"), ErrInvalidState)
	assert.ErrorIs(t, ctrl.Submit(context.Background(), -1, "x"), ErrInvalidState)
	assert.Len(t, ctrl.Snapshot().Session.Answers, 0)
}

// Scoring is handed the full transcript exactly once.
func TestScoringHandoffExactlyOnce(t *testing.T) {
	qs := questions(model.DifficultyEasy, model.DifficultyEasy)
	ctrl, scorer, archiver, _ := newStarted(t, qs, Policy{})

	scorer.ScoreTranscriptFn = func(ctx context.Context, entries []TranscriptEntry, profile model.CandidateProfile) (*ScoreResult, error) {
		return &ScoreResult{
			OverallScore: 91.5,
			Summary:      "strong answers",
			PerQuestion: []model.QuestionFeedback{
				{Score: 90, Feedback: "good"},
				{Score: 93, Feedback: "better"},
			},
		}, nil
	}

	require.NoError(t, ctrl.Submit(context.Background(), 0, "a1"))
	require.NoError(t, ctrl.Submit(context.Background(), 1, "a2"))

	assert.Equal(t, 1, scorer.callCount())
	require.Len(t, scorer.lastEntries, 2)
	assert.Equal(t, "a1", scorer.lastEntries[0].Answer.AnswerText)

	v := ctrl.Snapshot()
	assert.Equal(t, StateComplete, v.State)
	require.NotNil(t, v.Session.FinalScore)
	assert.Equal(t, 91.5, *v.Session.FinalScore)
	assert.Equal(t, model.ScoreSourceService, v.Session.ScoreSource)
	assert.Equal(t, "strong answers", v.Session.ScoringSummary)
	assert.True(t, v.Session.IsComplete)
	assert.NotNil(t, v.Session.CompletedAt)

	// Completed session is archived once.
	assert.Equal(t, 1, archiver.count())
	assert.True(t, archiver.last().IsComplete)
}

// Scenario: Scoring Service down. The session still completes, with the
// fallback score and source attached.
func TestScoringFailureUsesFallback(t *testing.T) {
	qs := questions(model.DifficultyEasy)
	ctrl, scorer, _, _ := newStarted(t, qs, Policy{FallbackScorePerChar: 1.0})

	scorer.ScoreTranscriptFn = func(ctx context.Context, entries []TranscriptEntry, profile model.CandidateProfile) (*ScoreResult, error) {
		return nil, errors.New("503 service unavailable")
	}

	answer := strings.Repeat("x", 40)
	require.NoError(t, ctrl.Submit(context.Background(), 0, answer))

	v := ctrl.Snapshot()
	require.Equal(t, StateComplete, v.State)
	require.NotNil(t, v.Session.FinalScore)
	assert.Equal(t, 40.0, *v.Session.FinalScore)
	assert.Equal(t, model.ScoreSourceFallback, v.Session.ScoreSource)
	assert.Equal(t, FallbackSummary, v.Session.ScoringSummary)
}

func TestScoringMalformedResultUsesFallback(t *testing.T) {
	qs := questions(model.DifficultyEasy)
	ctrl, scorer, _, _ := newStarted(t, qs, Policy{})

	scorer.ScoreTranscriptFn = func(ctx context.Context, entries []TranscriptEntry, profile model.CandidateProfile) (*ScoreResult, error) {
		return &ScoreResult{OverallScore: 250}, nil
	}

	require.NoError(t, ctrl.Submit(context.Background(), 0, "hello"))

	v := ctrl.Snapshot()
	assert.Equal(t, model.ScoreSourceFallback, v.Session.ScoreSource)
}

// Submissions arriving while scoring is in flight are rejected, and the
// session still reaches Complete.
func TestSubmitDuringScoringRejected(t *testing.T) {
	qs := questions(model.DifficultyEasy)
	ctrl, scorer, _, _ := newStarted(t, qs, Policy{})

	release := make(chan struct{})
	observed := make(chan error, 1)
	scorer.ScoreTranscriptFn = func(ctx context.Context, entries []TranscriptEntry, profile model.CandidateProfile) (*ScoreResult, error) {
		observed <- ctrl.Submit(context.Background(), 0, "during scoring")
		<-release
		return &ScoreResult{OverallScore: 70}, nil
	}

	done := make(chan error, 1)
	go func() { done <- ctrl.Submit(context.Background(), 0, "final") }()

	err := <-observed
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, StateScoring, ctrl.Snapshot().State)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateComplete, ctrl.Snapshot().State)
}

// A controller replaced while its scoring call is in flight still completes
// and archives, but must leave the candidate's snapshot alone: the key now
// holds the successor session's state.
func TestDetachedControllerKeepsSuccessorSnapshot(t *testing.T) {
	qs := questions(model.DifficultyEasy)
	ctrl, scorer, archiver, snaps := newStarted(t, qs, Policy{})

	scoring := make(chan struct{})
	release := make(chan struct{})
	scorer.ScoreTranscriptFn = func(ctx context.Context, entries []TranscriptEntry, profile model.CandidateProfile) (*ScoreResult, error) {
		close(scoring)
		<-release
		return &ScoreResult{OverallScore: 70, Summary: "ok"}, nil
	}

	done := make(chan error, 1)
	go func() { done <- ctrl.Submit(context.Background(), 0, "final") }()
	<-scoring

	// Mid-scoring the session cannot be abandoned; replacement detaches it.
	require.ErrorIs(t, ctrl.Abandon(context.Background(), false), ErrInvalidState)
	ctrl.Detach()
	close(release)
	require.NoError(t, <-done)
	<-ctrl.Done()

	assert.Equal(t, StateComplete, ctrl.Snapshot().State)
	assert.Equal(t, 1, archiver.count())
	assert.Equal(t, 0, snaps.deleteCount())
}

// Scenario: full timeout run. Every answer is the sentinel and the fallback
// treats them as zero-length.
func TestFullTimeoutRunScoresZeroOnFallback(t *testing.T) {
	qs := questions(model.DifficultyEasy, model.DifficultyEasy, model.DifficultyEasy)
	ctrl, scorer, _, _ := newStarted(t, qs, Policy{})
	scorer.ScoreTranscriptFn = func(ctx context.Context, entries []TranscriptEntry, profile model.CandidateProfile) (*ScoreResult, error) {
		return nil, errors.New("down")
	}

	tickN(ctrl, 60)

	v := ctrl.Snapshot()
	require.Equal(t, StateComplete, v.State)
	require.Len(t, v.Session.Answers, 3)
	for _, a := range v.Session.Answers {
		assert.Equal(t, model.SentinelNoAnswer, a.AnswerText)
		assert.True(t, a.AutoSubmitted)
	}
	require.NotNil(t, v.Session.FinalScore)
	assert.Equal(t, 0.0, *v.Session.FinalScore)
}

func TestCompleteFreezesSession(t *testing.T) {
	qs := questions(model.DifficultyEasy)
	ctrl, _, _, _ := newStarted(t, qs, Policy{})

	require.NoError(t, ctrl.Submit(context.Background(), 0, "done"))
	require.Equal(t, StateComplete, ctrl.Snapshot().State)

	assert.ErrorIs(t, ctrl.Submit(context.Background(), 0, "late"), ErrInvalidState)
	assert.ErrorIs(t, ctrl.StageText("late"), ErrInvalidState)
	ctrl.Tick(context.Background()) // must be a no-op
	assert.Len(t, ctrl.Snapshot().Session.Answers, 1)
}

func TestDoneClosesOnCompletion(t *testing.T) {
	qs := questions(model.DifficultyEasy)
	ctrl, _, _, _ := newStarted(t, qs, Policy{})

	require.NoError(t, ctrl.Submit(context.Background(), 0, "fin"))

	select {
	case <-ctrl.Done():
	default:
		t.Fatal("Done channel not closed after completion")
	}
}

func TestAbandonWithArchive(t *testing.T) {
	qs := questions(model.DifficultyEasy, model.DifficultyEasy)
	ctrl, _, archiver, snaps := newStarted(t, qs, Policy{})

	require.NoError(t, ctrl.Submit(context.Background(), 0, "partial"))
	require.NoError(t, ctrl.Abandon(context.Background(), true))

	v := ctrl.Snapshot()
	assert.Equal(t, StateAbandoned, v.State)
	require.Equal(t, 1, archiver.count())
	arch := archiver.last()
	assert.False(t, arch.IsComplete)
	assert.Nil(t, arch.FinalScore)
	assert.Len(t, arch.Answers, 1)
	assert.NotEmpty(t, snaps.deletes)
}

func TestAbandonWithoutAnswersSkipsArchive(t *testing.T) {
	qs := questions(model.DifficultyEasy)
	ctrl, _, archiver, _ := newStarted(t, qs, Policy{})

	require.NoError(t, ctrl.Abandon(context.Background(), true))
	assert.Equal(t, 0, archiver.count())
}

func TestAbandonTwiceRejected(t *testing.T) {
	qs := questions(model.DifficultyEasy)
	ctrl, _, _, _ := newStarted(t, qs, Policy{})

	require.NoError(t, ctrl.Abandon(context.Background(), false))
	assert.ErrorIs(t, ctrl.Abandon(context.Background(), false), ErrInvalidState)
}

// Scenario: reload mid-question. Resume restores the same index with a fresh
// full timer by default.
func TestResumeFreshTimerByDefault(t *testing.T) {
	qs := questions(model.DifficultyMedium, model.DifficultyMedium)
	ctrl, _, _, snaps := newStarted(t, qs, Policy{})

	require.NoError(t, ctrl.Submit(context.Background(), 0, "a1"))
	tickN(ctrl, 25)
	ctrl.SaveSnapshot(context.Background())
	snap := snaps.lastSave()
	require.NotNil(t, snap)
	assert.Equal(t, 35, snap.RemainingSeconds)

	deps, _, _, _, _ := newTestDeps(nil)
	restored := NewController(Policy{}, deps, testLog)
	require.NoError(t, restored.Resume(snap))

	v := restored.Snapshot()
	assert.Equal(t, StateAwaitingAnswer, v.State)
	assert.Equal(t, 1, v.Session.CurrentIndex)
	assert.Len(t, v.Session.Answers, 1)
	assert.Equal(t, 60, v.RemainingSeconds, "default policy arms a fresh full timer")
}

func TestResumePreservesRemainingWhenConfigured(t *testing.T) {
	qs := questions(model.DifficultyMedium)
	ctrl, _, _, snaps := newStarted(t, qs, Policy{})

	tickN(ctrl, 25)
	ctrl.SaveSnapshot(context.Background())
	snap := snaps.lastSave()
	require.NotNil(t, snap)

	deps, _, _, _, _ := newTestDeps(nil)
	restored := NewController(Policy{PreserveRemainingOnResume: true}, deps, testLog)
	require.NoError(t, restored.Resume(snap))

	assert.Equal(t, 35, restored.Snapshot().RemainingSeconds)
}

func TestResumePreservesStagedText(t *testing.T) {
	qs := questions(model.DifficultyMedium)
	ctrl, _, _, snaps := newStarted(t, qs, Policy{})

	require.NoError(t, ctrl.StageText("draft in flight"))
	ctrl.SaveSnapshot(context.Background())
	snap := snaps.lastSave()
	require.NotNil(t, snap)

	deps, _, _, _, _ := newTestDeps(nil)
	restored := NewController(Policy{}, deps, testLog)
	require.NoError(t, restored.Resume(snap))
	assert.Equal(t, "draft in flight", restored.Snapshot().StagedText)
}

func TestResumeRejectsCompletedSnapshot(t *testing.T) {
	snap := &model.SessionSnapshot{
		Session: model.Session{
			ID:         uuid.New(),
			Questions:  questions(model.DifficultyEasy),
			IsComplete: true,
		},
	}
	snap.Session.CurrentIndex = 1
	snap.Session.Answers = []model.Answer{{}}

	deps, _, _, _, _ := newTestDeps(nil)
	ctrl := NewController(Policy{}, deps, testLog)
	assert.ErrorIs(t, ctrl.Resume(snap), ErrInvalidState)
}

func TestResumeNilSnapshot(t *testing.T) {
	deps, _, _, _, _ := newTestDeps(nil)
	ctrl := NewController(Policy{}, deps, testLog)
	assert.ErrorIs(t, ctrl.Resume(nil), ErrNoSnapshot)
}

func TestStageTextBeforeStartRejected(t *testing.T) {
	deps, _, _, _, _ := newTestDeps(nil)
	ctrl := NewController(Policy{}, deps, testLog)
	assert.ErrorIs(t, ctrl.StageText("x"), ErrInvalidState)
}

func TestSnapshotViewIsDeepCopy(t *testing.T) {
	qs := questions(model.DifficultyEasy, model.DifficultyEasy)
	ctrl, _, _, _ := newStarted(t, qs, Policy{})

	v := ctrl.Snapshot()
	v.Session.Questions[0].Text = "mutated"
	v.Session.Answers = append(v.Session.Answers, model.Answer{})

	fresh := ctrl.Snapshot()
	assert.Equal(t, "question", fresh.Session.Questions[0].Text)
	assert.Len(t, fresh.Session.Answers, 0)
}

// Snapshots are written on start and on every advancement so a crash at any
// point resumes at the right index.
func TestSnapshotWrittenOnAdvance(t *testing.T) {
	qs := questions(model.DifficultyEasy, model.DifficultyEasy)
	ctrl, _, _, snaps := newStarted(t, qs, Policy{})

	require.NotNil(t, snaps.lastSave(), "start writes an initial snapshot")
	assert.Equal(t, 0, snaps.lastSave().Session.CurrentIndex)

	require.NoError(t, ctrl.Submit(context.Background(), 0, "a"))
	assert.Equal(t, 1, snaps.lastSave().Session.CurrentIndex)
}
