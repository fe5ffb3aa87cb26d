package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/intervia/intervia-backend/internal/config"
	"github.com/intervia/intervia-backend/internal/interview"
	"github.com/intervia/intervia-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// snapshotOp is the queue payload consumed by the snapshot worker.
type snapshotOp struct {
	Op          string                 `json:"op"` // "set" or "del"
	CandidateID string                 `json:"candidate_id"`
	Snapshot    *model.SessionSnapshot `json:"snapshot,omitempty"`
}

// SnapshotService implements interview.SnapshotStore. Writes are enqueued
// to the snapshot worker so submits never block on Redis persistence; reads
// go straight to the snapshot key.
type SnapshotService struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewSnapshotService creates a new SnapshotService.
func NewSnapshotService(rdb *redis.Client, log zerolog.Logger) *SnapshotService {
	return &SnapshotService{
		rdb: rdb,
		log: log.With().Str("component", "snapshot_service").Logger(),
	}
}

var _ interview.SnapshotStore = (*SnapshotService)(nil)

// Save enqueues a snapshot write.
func (s *SnapshotService) Save(ctx context.Context, snap *model.SessionSnapshot) error {
	return s.enqueue(ctx, &snapshotOp{
		Op:          "set",
		CandidateID: snap.Session.CandidateID.String(),
		Snapshot:    snap,
	})
}

// Load reads the candidate's current snapshot, if any.
func (s *SnapshotService) Load(ctx context.Context, candidateID uuid.UUID) (*model.SessionSnapshot, error) {
	key := config.CacheKey.CandidateSnapshotKey(candidateID.String())

	raw, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, interview.ErrNoSnapshot
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap model.SessionSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		// A snapshot that cannot be decoded cannot be resumed. Drop it.
		s.log.Error().Err(err).Str("candidate_id", candidateID.String()).Msg("corrupt snapshot, discarding")
		s.rdb.Del(ctx, key)
		return nil, interview.ErrNoSnapshot
	}
	return &snap, nil
}

// Delete enqueues removal of the candidate's snapshot.
func (s *SnapshotService) Delete(ctx context.Context, candidateID uuid.UUID) error {
	return s.enqueue(ctx, &snapshotOp{
		Op:          "del",
		CandidateID: candidateID.String(),
	})
}

func (s *SnapshotService) enqueue(ctx context.Context, op *snapshotOp) error {
	raw, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("marshal snapshot op: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistSnapshotQueue, raw).Err(); err != nil {
		return fmt.Errorf("enqueue snapshot op: %w", err)
	}
	return nil
}
