package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/intervia/intervia-backend/internal/config"
	"github.com/intervia/intervia-backend/internal/interview"
	"github.com/intervia/intervia-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ArchiveService implements interview.Archiver by enqueueing finished
// sessions for the archive worker. Handing off through Redis keeps session
// completion fast even when PostgreSQL is slow or briefly down.
type ArchiveService struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewArchiveService creates a new ArchiveService.
func NewArchiveService(rdb *redis.Client, log zerolog.Logger) *ArchiveService {
	return &ArchiveService{
		rdb: rdb,
		log: log.With().Str("component", "archive_service").Logger(),
	}
}

var _ interview.Archiver = (*ArchiveService)(nil)

// Archive enqueues a finished session for durable storage.
func (s *ArchiveService) Archive(ctx context.Context, sess *model.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.ArchiveSessionsQueue, raw).Err(); err != nil {
		return fmt.Errorf("enqueue session archive: %w", err)
	}
	s.log.Debug().Str("session_id", sess.ID.String()).Msg("session queued for archival")
	return nil
}
