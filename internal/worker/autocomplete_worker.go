package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/volunteer-events/internal/config"
	"github.com/spec-kit/volunteer-events/internal/domain"
	"github.com/spec-kit/volunteer-events/internal/persistence"
)

const (
	sweepLockKey     = "volunteer-events:auto-complete-sweep"
	defaultBatchSize = 100
)

// Completer is the lifecycle surface the sweep drives.
type Completer interface {
	ListLapsed(ctx context.Context, limit int) ([]domain.Event, error)
	AutoComplete(ctx context.Context, eventID string) (bool, error)
}

// Lease is a held lock.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker elects a single sweeping replica.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

type redisLocker struct {
	redis *persistence.Redis
}

// RedisLocker adapts the Redis client to Locker.
func RedisLocker(r *persistence.Redis) Locker {
	return redisLocker{redis: r}
}

func (l redisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	lock, err := l.redis.TryLock(ctx, key, ttl)
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// AutoCompleteWorker periodically completes events whose end has lapsed
// past the grace window, so events nobody opens still reach COMPLETED.
type AutoCompleteWorker struct {
	completer Completer
	locker    Locker
	interval  time.Duration
	lockTTL   time.Duration
	batchSize int
	logger    *zap.Logger
}

// NewAutoCompleteWorker builds a worker. A nil locker sweeps on every replica.
func NewAutoCompleteWorker(completer Completer, locker Locker, cfg config.WorkerConfig, logger *zap.Logger) *AutoCompleteWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	batchSize := cfg.AutoCompleteBatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &AutoCompleteWorker{
		completer: completer,
		locker:    locker,
		interval:  cfg.Interval(),
		lockTTL:   cfg.LockTTL(),
		batchSize: batchSize,
		logger:    logger.Named("auto_complete"),
	}
}

// Run sweeps immediately and then on every tick until ctx is done.
func (w *AutoCompleteWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("auto-complete worker started", zap.Duration("interval", w.interval))
	for {
		if _, err := w.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("auto-complete sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			w.logger.Info("auto-complete worker stopped")
			return
		case <-ticker.C:
		}
	}
}

// Sweep runs one pass and reports how many events it completed. Failures on
// single events are logged and skipped; the next pass retries them.
func (w *AutoCompleteWorker) Sweep(ctx context.Context) (int, error) {
	if w.locker != nil {
		lease, err := w.locker.TryLock(ctx, sweepLockKey, w.lockTTL)
		switch {
		case errors.Is(err, persistence.ErrLockHeld):
			w.logger.Debug("sweep lock held by another replica")
			return 0, nil
		case err != nil:
			// completion is a CAS, so concurrent sweeps are safe if slower
			w.logger.Warn("sweep lock unavailable, sweeping unlocked", zap.Error(err))
		default:
			defer func() {
				if err := lease.Release(context.Background()); err != nil {
					w.logger.Warn("release sweep lock", zap.Error(err))
				}
			}()
		}
	}

	lapsed, err := w.completer.ListLapsed(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, event := range lapsed {
		if err := ctx.Err(); err != nil {
			return completed, err
		}
		done, err := w.completer.AutoComplete(ctx, event.ID)
		if err != nil {
			w.logger.Warn("auto-complete failed", zap.String("event_id", event.ID), zap.Error(err))
			continue
		}
		if done {
			completed++
		}
	}

	w.logger.Debug("auto-complete sweep finished",
		zap.Int("scanned", len(lapsed)),
		zap.Int("completed", completed))
	return completed, nil
}
