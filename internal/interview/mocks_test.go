package interview

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/intervia/intervia-backend/internal/model"
)

// Func-field mocks: each collaborator is a struct of function fields so a
// test overrides only what it cares about.

type mockQuestionSource struct {
	GenerateQuestionsFn func(ctx context.Context, profile model.CandidateProfile, count int) ([]model.Question, error)
	calls               int
}

func (m *mockQuestionSource) GenerateQuestions(ctx context.Context, profile model.CandidateProfile, count int) ([]model.Question, error) {
	m.calls++
	return m.GenerateQuestionsFn(ctx, profile, count)
}

type mockScorer struct {
	mu                sync.Mutex
	ScoreTranscriptFn func(ctx context.Context, entries []TranscriptEntry, profile model.CandidateProfile) (*ScoreResult, error)
	calls             int
	lastEntries       []TranscriptEntry
}

func (m *mockScorer) ScoreTranscript(ctx context.Context, entries []TranscriptEntry, profile model.CandidateProfile) (*ScoreResult, error) {
	m.mu.Lock()
	m.calls++
	m.lastEntries = entries
	fn := m.ScoreTranscriptFn
	m.mu.Unlock()
	if fn == nil {
		return &ScoreResult{OverallScore: 80, Summary: "ok"}, nil
	}
	return fn(ctx, entries, profile)
}

func (m *mockScorer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockArchiver struct {
	mu        sync.Mutex
	ArchiveFn func(ctx context.Context, sess *model.Session) error
	archived  []*model.Session
}

func (m *mockArchiver) Archive(ctx context.Context, sess *model.Session) error {
	m.mu.Lock()
	m.archived = append(m.archived, sess)
	fn := m.ArchiveFn
	m.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, sess)
}

func (m *mockArchiver) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.archived)
}

func (m *mockArchiver) last() *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.archived) == 0 {
		return nil
	}
	return m.archived[len(m.archived)-1]
}

type mockSnapshotStore struct {
	mu      sync.Mutex
	saves   []*model.SessionSnapshot
	deletes []uuid.UUID
	LoadFn  func(ctx context.Context, candidateID uuid.UUID) (*model.SessionSnapshot, error)
}

func (m *mockSnapshotStore) Save(ctx context.Context, snap *model.SessionSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, snap)
	return nil
}

func (m *mockSnapshotStore) Load(ctx context.Context, candidateID uuid.UUID) (*model.SessionSnapshot, error) {
	if m.LoadFn == nil {
		return nil, ErrNoSnapshot
	}
	return m.LoadFn(ctx, candidateID)
}

func (m *mockSnapshotStore) Delete(ctx context.Context, candidateID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, candidateID)
	return nil
}

func (m *mockSnapshotStore) deleteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.deletes)
}

func (m *mockSnapshotStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}

func (m *mockSnapshotStore) lastSave() *model.SessionSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saves) == 0 {
		return nil
	}
	return m.saves[len(m.saves)-1]
}

// questions builds a fixed list with deterministic IDs and difficulties.
func questions(difficulties ...model.Difficulty) []model.Question {
	qs := make([]model.Question, len(difficulties))
	for i, d := range difficulties {
		qs[i] = model.Question{
			ID:         uuid.New(),
			Text:       "question",
			Difficulty: d,
		}
	}
	return qs
}

// newTestDeps wires controller deps around fresh mocks. The question source
// returns the given list.
func newTestDeps(qs []model.Question) (Deps, *mockQuestionSource, *mockScorer, *mockArchiver, *mockSnapshotStore) {
	src := &mockQuestionSource{
		GenerateQuestionsFn: func(ctx context.Context, profile model.CandidateProfile, count int) ([]model.Question, error) {
			return qs, nil
		},
	}
	scorer := &mockScorer{}
	archiver := &mockArchiver{}
	snaps := &mockSnapshotStore{}
	return Deps{Questions: src, Scorer: scorer, Archiver: archiver, Snapshots: snaps}, src, scorer, archiver, snaps
}
