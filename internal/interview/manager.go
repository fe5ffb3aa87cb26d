package interview

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/intervia/intervia-backend/internal/model"
	"github.com/rs/zerolog"
)

// Manager owns one controller per candidate and the tick loop that drives
// its countdown. Starting a new session atomically tears down the previous
// one: there is no window in which two countdowns for the same candidate are
// armed.
type Manager struct {
	mu          sync.Mutex
	controllers map[uuid.UUID]*Controller

	// sessionLocks serializes start, resume and abandon per candidate. The
	// question fetch inside Start is a network call; without the lock two
	// concurrent starts would each tear down before the other registers and
	// leave one controller ticking outside the map.
	sessionLocks map[uuid.UUID]*sync.Mutex

	policy Policy
	deps   Deps
	log    zerolog.Logger

	// tickInterval is one second in production; tests shrink it.
	tickInterval time.Duration
}

// NewManager creates an empty session manager.
func NewManager(policy Policy, deps Deps, log zerolog.Logger) *Manager {
	return &Manager{
		controllers:  make(map[uuid.UUID]*Controller),
		sessionLocks: make(map[uuid.UUID]*sync.Mutex),
		policy:       policy,
		deps:         deps,
		log:          log.With().Str("component", "interview_manager").Logger(),
		tickInterval: time.Second,
	}
}

// StartSession creates and starts a session for the candidate. Any previous
// in-progress session is discarded first (the explicit archive choice lives
// on the abandon endpoint). On Question Source failure nothing is registered
// and the call is retryable.
func (m *Manager) StartSession(ctx context.Context, candidateID uuid.UUID, profile model.CandidateProfile) (*Controller, error) {
	lock := m.candidateLock(candidateID)
	lock.Lock()
	defer lock.Unlock()

	m.teardown(ctx, candidateID)

	ctrl := NewController(m.policy, m.deps, m.log)
	if err := ctrl.Start(ctx, candidateID, profile); err != nil {
		return nil, err
	}

	m.register(candidateID, ctrl)
	return ctrl, nil
}

// ResumeSession restores an interrupted session from its snapshot and arms
// the timer per the resume policy.
func (m *Manager) ResumeSession(ctx context.Context, candidateID uuid.UUID) (*Controller, error) {
	lock := m.candidateLock(candidateID)
	lock.Lock()
	defer lock.Unlock()

	snap, err := m.deps.Snapshots.Load(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrNoSnapshot
	}

	m.teardown(ctx, candidateID)

	ctrl := NewController(m.policy, m.deps, m.log)
	if err := ctrl.Resume(snap); err != nil {
		return nil, err
	}

	m.register(candidateID, ctrl)
	return ctrl, nil
}

// Get returns the candidate's live controller, or nil.
func (m *Manager) Get(candidateID uuid.UUID) *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.controllers[candidateID]
}

// Abandon tears down the candidate's session with an explicit archive choice.
func (m *Manager) Abandon(ctx context.Context, candidateID uuid.UUID, archive bool) error {
	lock := m.candidateLock(candidateID)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	ctrl := m.controllers[candidateID]
	delete(m.controllers, candidateID)
	m.mu.Unlock()

	if ctrl == nil {
		return ErrInvalidState
	}
	return ctrl.Abandon(ctx, archive)
}

// Shutdown snapshots every live session so it can be resumed after restart.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	ctrls := make([]*Controller, 0, len(m.controllers))
	for _, c := range m.controllers {
		ctrls = append(ctrls, c)
	}
	m.mu.Unlock()

	for _, c := range ctrls {
		c.SaveSnapshot(ctx)
	}
	if len(ctrls) > 0 {
		m.log.Info().Int("sessions", len(ctrls)).Msg("Live sessions snapshotted for restart")
	}
}

func (m *Manager) register(candidateID uuid.UUID, ctrl *Controller) {
	m.mu.Lock()
	m.controllers[candidateID] = ctrl
	m.mu.Unlock()

	go m.runTicker(candidateID, ctrl)
}

// runTicker drives the controller's countdown at one-second resolution and
// exits as soon as the controller reaches a terminal state.
func (m *Manager) runTicker(candidateID uuid.UUID, ctrl *Controller) {
	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctrl.Done():
			m.mu.Lock()
			// Only unregister if this controller is still the registered one;
			// a replacement may already be live.
			if m.controllers[candidateID] == ctrl {
				delete(m.controllers, candidateID)
			}
			m.mu.Unlock()
			return
		case <-ticker.C:
			ctrl.Tick(context.Background())
		}
	}
}

// candidateLock returns the lock serializing lifecycle operations for one
// candidate. Lock entries are never removed; handing out a fresh mutex while
// another goroutine still holds the old one would undo the serialization.
func (m *Manager) candidateLock(candidateID uuid.UUID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock := m.sessionLocks[candidateID]
	if lock == nil {
		lock = &sync.Mutex{}
		m.sessionLocks[candidateID] = lock
	}
	return lock
}

// teardown stops and discards a previous live controller, if any. The old
// controller is detached first: if it is mid-scoring it cannot be abandoned
// and will finish on its own, but it must not touch the snapshot key the
// successor session is about to own.
func (m *Manager) teardown(ctx context.Context, candidateID uuid.UUID) {
	m.mu.Lock()
	old := m.controllers[candidateID]
	delete(m.controllers, candidateID)
	m.mu.Unlock()

	if old != nil {
		old.Detach()
		if err := old.Abandon(ctx, false); err != nil && err != ErrInvalidState {
			m.log.Warn().Err(err).Msg("Teardown of previous session failed")
		}
	}
}
