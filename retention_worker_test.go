package p2pchat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/p2pchat"
	"github.com/coregx/p2pchat/internal/memnet"
	"github.com/coregx/p2pchat/model"
)

func TestNewRetentionWorker_Validation(t *testing.T) {
	store := memnet.NewStore()

	tests := []struct {
		name string
		opts []p2pchat.RetentionOption
	}{
		{"missing store", []p2pchat.RetentionOption{
			p2pchat.WithRetentionLogger(&p2pchat.NoopLogger{}),
			p2pchat.WithRetentionPeriod(time.Hour),
		}},
		{"missing period", []p2pchat.RetentionOption{
			p2pchat.WithRetentionStore(store),
			p2pchat.WithRetentionLogger(&p2pchat.NoopLogger{}),
		}},
		{"zero period", []p2pchat.RetentionOption{p2pchat.WithRetentionPeriod(0)}},
		{"nil logger", []p2pchat.RetentionOption{p2pchat.WithRetentionLogger(nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p2pchat.NewRetentionWorker(tt.opts...)
			assert.True(t, p2pchat.HasCode(err, p2pchat.ErrCodeConfiguration))
		})
	}
}

func TestRetentionWorker_PruneOnce(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	store := memnet.NewStore()
	ctx := context.Background()

	for _, at := range []time.Time{now.Add(-48 * time.Hour), now.Add(-25 * time.Hour), now.Add(-time.Minute)} {
		_, err := store.Store(ctx, model.NewBroadcast("m", "x", "p", at))
		require.NoError(t, err)
	}

	w, err := p2pchat.NewRetentionWorker(
		p2pchat.WithRetentionStore(store),
		p2pchat.WithRetentionLogger(&p2pchat.NoopLogger{}),
		p2pchat.WithRetentionPeriod(24*time.Hour),
		p2pchat.WithRetentionClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	deleted, err := w.PruneOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRetentionWorker_PruneFailure(t *testing.T) {
	store := memnet.NewStore()
	store.FailWrites(errors.New("locked"))

	w, err := p2pchat.NewRetentionWorker(
		p2pchat.WithRetentionStore(store),
		p2pchat.WithRetentionLogger(&p2pchat.NoopLogger{}),
		p2pchat.WithRetentionPeriod(time.Hour),
	)
	require.NoError(t, err)

	_, err = w.PruneOnce(context.Background())
	assert.True(t, p2pchat.HasCode(err, p2pchat.ErrCodeStoreWrite))
}

func TestRetentionWorker_RunStopsOnCancel(t *testing.T) {
	w, err := p2pchat.NewRetentionWorker(
		p2pchat.WithRetentionStore(memnet.NewStore()),
		p2pchat.WithRetentionLogger(&p2pchat.NoopLogger{}),
		p2pchat.WithRetentionPeriod(time.Hour),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
