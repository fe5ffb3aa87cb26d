package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/intervia/intervia-backend/internal/config"
	"github.com/intervia/intervia-backend/internal/model"
	"github.com/intervia/intervia-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	ArchiveBatchSize    = 25
	ArchiveBatchTimeout = 2 * time.Second
	ArchivePollTimeout  = 1 * time.Second
)

// ArchiveWorker consumes archive_sessions_queue and persists finished
// sessions to PostgreSQL in batches.
type ArchiveWorker struct {
	repo *repository.ArchiveRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewArchiveWorker creates a new ArchiveWorker.
func NewArchiveWorker(repo *repository.ArchiveRepository, rdb *redis.Client, log zerolog.Logger) *ArchiveWorker {
	return &ArchiveWorker{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "archive_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *ArchiveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ArchiveWorker started")

	batch := make([]*model.Session, 0, ArchiveBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ArchiveBatchSize || time.Since(lastFlush) >= ArchiveBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ArchivePollTimeout, config.WorkerKey.ArchiveSessionsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var sess model.Session
			if err := json.Unmarshal([]byte(item[1]), &sess); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &sess)
		}
	}
}

// flushSafe writes the batch in one transaction, falling back to per-session
// inserts so one bad row cannot block the rest. Sessions that still fail are
// requeued.
func (w *ArchiveWorker) flushSafe(ctx context.Context, batch []*model.Session) {
	if len(batch) == 0 {
		return
	}

	if err := w.repo.SaveMany(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("bulk archive failed, using fallback")

		for _, sess := range batch {
			if err := w.repo.Save(ctx, sess); err != nil {
				w.log.Error().Err(err).Str("session_id", sess.ID.String()).Msg("single archive failed, requeueing")
				raw, _ := json.Marshal(sess)
				w.rdb.RPush(ctx, config.WorkerKey.ArchiveSessionsQueue, raw)
			}
		}
		return
	}

	w.log.Debug().Int("count", len(batch)).Msg("archived sessions")
}
