package memnet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/p2pchat"
)

func TestNode_PublishSkipsSelf(t *testing.T) {
	hub := NewHub()
	a := hub.NewNode("a")
	b := hub.NewNode("b")
	ctx := context.Background()

	var gotA, gotB []string
	require.NoError(t, a.JoinTopic(ctx, "t", func(_ context.Context, data []byte, from string) {
		gotA = append(gotA, from+":"+string(data))
	}))
	require.NoError(t, b.JoinTopic(ctx, "t", func(_ context.Context, data []byte, from string) {
		gotB = append(gotB, from+":"+string(data))
	}))

	require.NoError(t, a.Publish(ctx, "t", []byte("hi")))

	assert.Empty(t, gotA)
	assert.Equal(t, []string{"a:hi"}, gotB)
}

func TestNode_PublishWithoutPeers(t *testing.T) {
	hub := NewHub()
	a := hub.NewNode("a")
	hub.NewNode("b") // connected but not subscribed
	ctx := context.Background()

	require.NoError(t, a.JoinTopic(ctx, "t", func(context.Context, []byte, string) {}))

	err := a.Publish(ctx, "t", []byte("hi"))
	assert.True(t, p2pchat.IsNoPeers(err))
	assert.Equal(t, []string{"b"}, a.Connections())

	peers, err := a.TopicPeers("t")
	require.NoError(t, err)
	assert.Empty(t, peers)
}

func TestNode_JoinTwice(t *testing.T) {
	a := NewHub().NewNode("a")
	noop := func(context.Context, []byte, string) {}

	require.NoError(t, a.JoinTopic(context.Background(), "t", noop))
	assert.Error(t, a.JoinTopic(context.Background(), "t", noop))
}

func TestNode_CloseDetaches(t *testing.T) {
	hub := NewHub()
	a := hub.NewNode("a")
	b := hub.NewNode("b")

	require.NoError(t, b.Close())
	assert.Empty(t, a.Connections())
}

func TestNode_FailTopicPeers(t *testing.T) {
	a := NewHub().NewNode("a")

	a.FailTopicPeers(errors.New("boom"))
	_, err := a.TopicPeers("t")
	assert.Error(t, err)

	a.FailTopicPeers(nil)
	_, err = a.TopicPeers("t")
	assert.NoError(t, err)
}

func TestNode_ConnDetails(t *testing.T) {
	hub := NewHub()
	a := hub.NewNode("a")
	hub.NewNode("b")
	hub.NewNode("c")

	a.MarkRelayed("c")

	details := a.ConnDetails()
	require.Len(t, details, 2)
	assert.Equal(t, p2pchat.ConnDetail{PeerID: "b", Kind: p2pchat.ConnDirect, RemoteAddr: "/memnet/b"}, details[0])
	assert.Equal(t, "c", details[1].PeerID)
	assert.Equal(t, p2pchat.ConnRelayed, details[1].Kind)
}
