package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/intervia/intervia-backend/internal/config"
	"github.com/intervia/intervia-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SnapshotWorker consumes persist_snapshots_queue and applies snapshot
// set/del operations to the candidate snapshot keys. Queue order preserves
// write order per candidate, so the key always holds the latest snapshot.
type SnapshotWorker struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewSnapshotWorker creates a new SnapshotWorker.
func NewSnapshotWorker(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *SnapshotWorker {
	return &SnapshotWorker{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "snapshot_worker").Logger(),
	}
}

type snapshotOp struct {
	Op          string                 `json:"op"`
	CandidateID string                 `json:"candidate_id"`
	Snapshot    *model.SessionSnapshot `json:"snapshot,omitempty"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *SnapshotWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining ops so shutdown snapshots survive a restart.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SnapshotWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistSnapshotQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var op snapshotOp
	if err := json.Unmarshal([]byte(result[1]), &op); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.apply(ctx, &op); err != nil {
		w.log.Error().Err(err).
			Str("candidate_id", op.CandidateID).
			Str("op", op.Op).
			Msg("Persist error, retrying in 5s")
		w.rdb.RPush(ctx, config.WorkerKey.PersistSnapshotQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *SnapshotWorker) apply(ctx context.Context, op *snapshotOp) error {
	key := config.CacheKey.CandidateSnapshotKey(op.CandidateID)

	switch op.Op {
	case "del":
		return w.rdb.Del(ctx, key).Err()
	case "set":
		if op.Snapshot == nil {
			return nil
		}
		raw, err := json.Marshal(op.Snapshot)
		if err != nil {
			return err
		}
		return w.rdb.Set(ctx, key, raw, w.ttl).Err()
	default:
		w.log.Warn().Str("op", op.Op).Msg("Unknown snapshot op")
		return nil
	}
}

// drain processes all remaining ops in the queue before shutdown.
func (w *SnapshotWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistSnapshotQueue).Result()
		if err != nil {
			break
		}

		var op snapshotOp
		if err := json.Unmarshal([]byte(result), &op); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.apply(ctx, &op); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistSnapshotQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining ops")
	}
}
