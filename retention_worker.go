package p2pchat

import (
	"context"
	"time"
)

// RetentionWorker periodically prunes messages older than the configured
// retention period from a MessageStore.
type RetentionWorker struct {
	store     MessageStore
	logger    Logger
	retention time.Duration
	now       func() time.Time
}

// NewRetentionWorker creates a new RetentionWorker with the provided options.
//
// Required options:
//   - WithRetentionStore
//   - WithRetentionLogger
//   - WithRetentionPeriod
func NewRetentionWorker(opts ...RetentionOption) (*RetentionWorker, error) {
	w := &RetentionWorker{
		now: time.Now,
	}

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply retention option", err)
		}
	}

	if w.store == nil {
		return nil, NewError(ErrCodeConfiguration, "MessageStore is required (use WithRetentionStore)")
	}
	if w.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithRetentionLogger)")
	}
	if w.retention <= 0 {
		return nil, NewError(ErrCodeConfiguration, "retention period is required (use WithRetentionPeriod)")
	}

	return w, nil
}

// PruneOnce deletes every message older than the retention period.
func (w *RetentionWorker) PruneOnce(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention).UnixMilli()

	deleted, err := w.store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		w.logger.Errorf("Retention prune failed: %v", err)
		return 0, err
	}

	if deleted > 0 {
		w.logger.Infof("Pruned %d messages older than %v", deleted, w.retention)
	}
	return deleted, nil
}

// Run prunes once immediately and then on every interval tick until ctx is
// cancelled.
func (w *RetentionWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("Retention worker started")
	_, _ = w.PruneOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Retention worker stopped")
			return
		case <-ticker.C:
			_, _ = w.PruneOnce(ctx)
		}
	}
}
