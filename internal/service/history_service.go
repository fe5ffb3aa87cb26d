package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/intervia/intervia-backend/internal/model"
	"github.com/intervia/intervia-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// ErrSessionNotFound marks a history lookup that matched nothing owned by
// the requesting candidate.
var ErrSessionNotFound = errors.New("archived session not found")

// HistoryService exposes the candidate's archived interview sessions.
type HistoryService struct {
	repo *repository.ArchiveRepository
	log  zerolog.Logger
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(repo *repository.ArchiveRepository, log zerolog.Logger) *HistoryService {
	return &HistoryService{
		repo: repo,
		log:  log.With().Str("component", "history_service").Logger(),
	}
}

// List returns a page of session summaries for the candidate, newest first.
func (s *HistoryService) List(ctx context.Context, candidateID uuid.UUID, page, perPage int) ([]repository.SessionSummary, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	summaries, total, err := s.repo.ListByCandidate(ctx, candidateID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	return summaries, total, nil
}

// Get returns one archived session in full, scoped to the candidate.
func (s *HistoryService) Get(ctx context.Context, id, candidateID uuid.UUID) (*model.Session, error) {
	sess, err := s.repo.GetByID(ctx, id, candidateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// Delete removes an archived session owned by the candidate.
func (s *HistoryService) Delete(ctx context.Context, id, candidateID uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id, candidateID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if !deleted {
		return ErrSessionNotFound
	}
	return nil
}
