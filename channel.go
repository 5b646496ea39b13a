package p2pchat

import (
	"context"
	"sync"
	"time"

	"github.com/coregx/p2pchat/model"
)

// DefaultTopic is the topic joined when none is configured.
const DefaultTopic = "p2p-chat-default"

// Listener receives every envelope decoded from the topic.
// Listeners must not assume anything about the envelope kind.
type Listener func(ctx context.Context, e model.Envelope)

// Channel bridges the local process and a single substrate topic.
// It encodes outgoing envelopes, decodes inbound bytes and fans the result
// out to every registered Listener.
//
// The channel does not filter by kind; that is left to listeners.
//
// Thread safety: Safe for concurrent use.
type Channel struct {
	substrate Substrate
	topic     string
	logger    Logger
	now       func() time.Time

	joinMu sync.Mutex // serializes Subscribe; guards joined
	joined bool

	mu        sync.RWMutex
	listeners []Listener
}

// NewChannel creates a new Channel with the provided options.
//
// Required options:
//   - WithChannelSubstrate: networking substrate
//   - WithChannelLogger: logger instance
//
// Example:
//
//	channel, err := p2pchat.NewChannel(
//	    p2pchat.WithChannelSubstrate(node),
//	    p2pchat.WithChannelTopic("lobby"),
//	    p2pchat.WithChannelLogger(logger),
//	)
func NewChannel(opts ...ChannelOption) (*Channel, error) {
	c := &Channel{
		topic: DefaultTopic,
		now:   time.Now,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply channel option", err)
		}
	}

	if c.substrate == nil {
		return nil, NewError(ErrCodeConfiguration, "Substrate is required (use WithChannelSubstrate)")
	}
	if c.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithChannelLogger)")
	}

	return c, nil
}

// Topic returns the topic name the channel publishes on.
func (c *Channel) Topic() string {
	return c.topic
}

// Subscribe registers a listener. The first call also joins the topic on
// the substrate; a join failure is reported as ErrCodeStartup and leaves the
// listener unregistered. Concurrent callers return only once the topic is
// joined.
//
// Listeners are never removed.
func (c *Channel) Subscribe(ctx context.Context, l Listener) error {
	if l == nil {
		return NewError(ErrCodeValidation, "listener cannot be nil")
	}

	c.joinMu.Lock()
	defer c.joinMu.Unlock()

	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()

	if c.joined {
		return nil
	}

	if err := c.substrate.JoinTopic(ctx, c.topic, c.HandleInbound); err != nil {
		c.mu.Lock()
		c.listeners = c.listeners[:len(c.listeners)-1]
		c.mu.Unlock()
		return NewErrorWithCause(ErrCodeStartup, "failed to join topic "+c.topic, err)
	}
	c.joined = true

	c.logger.Infof("Joined topic: %s", c.topic)
	return nil
}

// Publish encodes the envelope and hands it to the substrate.
//
// It returns false when no peer is reachable or the send could not be
// attempted, and true once the substrate accepted the bytes. Delivery to any
// particular peer is not confirmed.
func (c *Channel) Publish(ctx context.Context, e model.Envelope) bool {
	data, err := e.Marshal()
	if err != nil {
		c.logger.Errorf("Failed to encode envelope: %v", err)
		return false
	}

	if err := c.substrate.Publish(ctx, c.topic, data); err != nil {
		if IsNoPeers(err) {
			c.logger.Debugf("Publish skipped, no peers on topic %s", c.topic)
		} else {
			c.logger.Warnf("Publish to topic %s failed: %v", c.topic, err)
		}
		return false
	}

	return true
}

// SendBroadcast builds a broadcast envelope stamped with the current time
// and the local peer identity, then publishes it.
// The envelope is returned whether or not the publish succeeded.
func (c *Channel) SendBroadcast(ctx context.Context, content, displayName string) (model.Envelope, bool) {
	e := model.NewBroadcast(content, displayName, c.substrate.ID(), c.now())
	return e, c.Publish(ctx, e)
}

// TopicSubscribers returns the peers currently subscribed to the topic.
// A failed query yields an empty slice.
func (c *Channel) TopicSubscribers() []string {
	peers, err := c.substrate.TopicPeers(c.topic)
	if err != nil {
		c.logger.Warnf("Failed to list topic subscribers: %v", err)
		return []string{}
	}
	if peers == nil {
		return []string{}
	}
	return peers
}

// HandleInbound is the substrate delivery callback. Bytes that do not decode
// to an envelope are logged and dropped. Decoded envelopes carry the sender
// identity reported by the substrate, replacing whatever the payload claimed.
func (c *Channel) HandleInbound(ctx context.Context, data []byte, from string) {
	e, err := model.DecodeEnvelope(data)
	if err != nil {
		c.logger.Debugf("Dropping undecodable message from %s: %v",
			model.ShortID(from, 16), NewErrorWithCause(ErrCodeDecode, "bad envelope", err))
		return
	}
	e = e.WithSender(from)

	c.mu.RLock()
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.RUnlock()

	for _, l := range listeners {
		c.invoke(ctx, l, e)
	}
}

func (c *Channel) invoke(ctx context.Context, l Listener, e model.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorf("Listener panicked on message from %s: %v", model.ShortID(e.SenderID, 16), r)
		}
	}()
	l(ctx, e)
}
