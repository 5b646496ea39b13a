package p2pchat

import (
	"context"

	"github.com/coregx/p2pchat/model"
)

// PeerNotifier receives peer lifecycle events from the substrate.
// Events are informational: nothing in the chat core makes control decisions
// based on them.
//
// Implementations might log, render a notice, or feed a monitoring system.
type PeerNotifier interface {
	// NotifyPeerDiscovered is called when discovery finds a peer, before
	// any connection attempt.
	NotifyPeerDiscovered(ctx context.Context, peerID string)

	// NotifyPeerConnected is called when a transport connection is established.
	NotifyPeerConnected(ctx context.Context, peerID string)

	// NotifyPeerDisconnected is called when a transport connection closes.
	NotifyPeerDisconnected(ctx context.Context, peerID string)
}

// NoOpPeerNotifier is a no-op implementation of PeerNotifier.
type NoOpPeerNotifier struct{}

// NotifyPeerDiscovered does nothing.
func (n *NoOpPeerNotifier) NotifyPeerDiscovered(_ context.Context, _ string) {}

// NotifyPeerConnected does nothing.
func (n *NoOpPeerNotifier) NotifyPeerConnected(_ context.Context, _ string) {}

// NotifyPeerDisconnected does nothing.
func (n *NoOpPeerNotifier) NotifyPeerDisconnected(_ context.Context, _ string) {}

// LoggingPeerNotifier is a simple implementation that logs peer events.
type LoggingPeerNotifier struct {
	logger Logger
}

// NewLoggingPeerNotifier creates a new LoggingPeerNotifier.
func NewLoggingPeerNotifier(logger Logger) *LoggingPeerNotifier {
	return &LoggingPeerNotifier{logger: logger}
}

// NotifyPeerDiscovered logs peer discovery at debug level.
func (n *LoggingPeerNotifier) NotifyPeerDiscovered(_ context.Context, peerID string) {
	n.logger.Debugf("Peer discovered: %s", model.ShortID(peerID, 16))
}

// NotifyPeerConnected logs a new connection.
func (n *LoggingPeerNotifier) NotifyPeerConnected(_ context.Context, peerID string) {
	n.logger.Infof("Peer connected: %s", model.ShortID(peerID, 16))
}

// NotifyPeerDisconnected logs a closed connection.
func (n *LoggingPeerNotifier) NotifyPeerDisconnected(_ context.Context, peerID string) {
	n.logger.Infof("Peer disconnected: %s", model.ShortID(peerID, 16))
}

// DisplayPeerNotifier renders connect and disconnect events as notices and
// forwards every event to another notifier.
type DisplayPeerNotifier struct {
	display Display
	next    PeerNotifier
}

// NewDisplayPeerNotifier creates a DisplayPeerNotifier. A nil next is
// replaced by NoOpPeerNotifier.
func NewDisplayPeerNotifier(display Display, next PeerNotifier) *DisplayPeerNotifier {
	if next == nil {
		next = &NoOpPeerNotifier{}
	}
	return &DisplayPeerNotifier{display: display, next: next}
}

// NotifyPeerDiscovered forwards without rendering.
func (n *DisplayPeerNotifier) NotifyPeerDiscovered(ctx context.Context, peerID string) {
	n.next.NotifyPeerDiscovered(ctx, peerID)
}

// NotifyPeerConnected renders and forwards.
func (n *DisplayPeerNotifier) NotifyPeerConnected(ctx context.Context, peerID string) {
	n.display.ShowNotice("* connected to " + model.ShortID(peerID, 10))
	n.next.NotifyPeerConnected(ctx, peerID)
}

// NotifyPeerDisconnected renders and forwards.
func (n *DisplayPeerNotifier) NotifyPeerDisconnected(ctx context.Context, peerID string) {
	n.display.ShowNotice("* disconnected from " + model.ShortID(peerID, 10))
	n.next.NotifyPeerDisconnected(ctx, peerID)
}
