package p2pchat_test

import (
	"context"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/p2pchat"
	"github.com/coregx/p2pchat/adapters/relica"
	"github.com/coregx/p2pchat/internal/memnet"
	"github.com/coregx/p2pchat/model"
)

type instance struct {
	store   *relica.MessageStore
	display *recordingDisplay
	session *p2pchat.Session
	heard   *collector
}

func startInstance(t *testing.T, hub *memnet.Hub, id, name string) *instance {
	t.Helper()
	ctx := context.Background()

	store, err := relica.Open(ctx, "sqlite3", filepath.Join(t.TempDir(), id, "messages.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	node := hub.NewNode(id)
	t.Cleanup(func() { _ = node.Close() })

	ch := newChannel(t, node)
	inst := &instance{store: store, display: &recordingDisplay{}, heard: &collector{}}

	inst.session, err = p2pchat.NewSession(
		p2pchat.WithSessionComponents(node, ch, store),
		p2pchat.WithSessionDisplay(inst.display),
		p2pchat.WithSessionLogger(&p2pchat.NoopLogger{}),
		p2pchat.WithDisplayName(name),
	)
	require.NoError(t, err)
	require.NoError(t, inst.session.Start(ctx))
	require.NoError(t, ch.Subscribe(ctx, inst.heard.listen))
	return inst
}

// Two instances on one topic. Ordering across peers follows each sender's
// wall clock and is only guaranteed within a single store.
func TestTwoInstancesExchangeMessages(t *testing.T) {
	hub := memnet.NewHub()
	a := startInstance(t, hub, "peer-a", "alice")
	b := startInstance(t, hub, "peer-b", "bob")
	ctx := context.Background()

	_, err := a.session.Execute(ctx, "hello")
	require.NoError(t, err)

	heard := b.heard.received()
	require.Len(t, heard, 1)
	assert.Equal(t, model.KindBroadcast, heard[0].Kind)
	assert.Equal(t, "hello", heard[0].Content)
	assert.Equal(t, "alice", heard[0].AuthorDisplayName)
	assert.Equal(t, "peer-a", heard[0].SenderID)
	assert.Empty(t, a.heard.received(), "no self-delivery")

	bRecords, err := b.store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, bRecords, 1)
	assert.Equal(t, heard[0], bRecords[0].Envelope())

	aRecords, err := a.store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, aRecords, 1)
	assert.Equal(t, "peer-a", aRecords[0].SenderID)
	assert.Equal(t, "hello", aRecords[0].Content)
}

func TestReplyIsStoredOnBothSides(t *testing.T) {
	hub := memnet.NewHub()
	a := startInstance(t, hub, "peer-a", "alice")
	b := startInstance(t, hub, "peer-b", "bob")
	ctx := context.Background()

	_, err := a.session.Execute(ctx, "ping")
	require.NoError(t, err)
	_, err = b.session.Execute(ctx, "pong")
	require.NoError(t, err)

	for _, inst := range []*instance{a, b} {
		count, err := inst.store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	}
}
