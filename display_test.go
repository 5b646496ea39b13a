package p2pchat_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/coregx/p2pchat"
	"github.com/coregx/p2pchat/model"
)

func TestTextDisplay(t *testing.T) {
	var buf bytes.Buffer
	d := p2pchat.NewTextDisplay(&buf)

	at := time.Date(2026, 1, 2, 15, 4, 5, 0, time.Local)
	d.ShowMessage(model.NewBroadcast("hi", "alice", "p", at))
	d.ShowNotice("notice")
	d.ShowError("oops")

	assert.Equal(t, "[15:04:05] alice: hi\nnotice\nerror: oops\n", buf.String())
}

func TestDisplayPeerNotifier(t *testing.T) {
	display := &recordingDisplay{}
	n := p2pchat.NewDisplayPeerNotifier(display, nil)
	ctx := context.Background()

	n.NotifyPeerDiscovered(ctx, "12D3KooWDiscovered")
	n.NotifyPeerConnected(ctx, "12D3KooWConnected")
	n.NotifyPeerDisconnected(ctx, "12D3KooWConnected")

	assert.Equal(t, "* connected to 12D3KooWCo...\n* disconnected from 12D3KooWCo...", display.Notices())
}
