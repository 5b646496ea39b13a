package p2pchat

import (
	"fmt"
	"strings"
	"time"
)

// ChannelOption is a function that configures a Channel.
type ChannelOption func(*Channel) error

// WithChannelSubstrate sets the networking substrate the channel publishes on.
// This is a required option for NewChannel.
func WithChannelSubstrate(s Substrate) ChannelOption {
	return func(c *Channel) error {
		if s == nil {
			return fmt.Errorf("substrate cannot be nil")
		}
		c.substrate = s
		return nil
	}
}

// WithChannelTopic sets the topic name. Defaults to DefaultTopic.
func WithChannelTopic(topic string) ChannelOption {
	return func(c *Channel) error {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			return fmt.Errorf("topic cannot be empty")
		}
		c.topic = topic
		return nil
	}
}

// WithChannelLogger sets the logger instance for the channel.
// This is a required option for NewChannel.
func WithChannelLogger(logger Logger) ChannelOption {
	return func(c *Channel) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithChannelClock overrides the clock used to stamp outgoing envelopes.
func WithChannelClock(now func() time.Time) ChannelOption {
	return func(c *Channel) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		c.now = now
		return nil
	}
}

// SessionOption is a function that configures a Session.
// Used with the Options Pattern for flexible service construction.
//
// Example:
//
//	session, err := p2pchat.NewSession(
//	    p2pchat.WithSessionComponents(node, channel, store),
//	    p2pchat.WithSessionDisplay(p2pchat.NewTextDisplay(os.Stdout)),
//	    p2pchat.WithSessionLogger(logger),
//	    p2pchat.WithDisplayName("alice"), // optional
//	)
type SessionOption func(*Session) error

// WithSessionComponents sets the substrate, channel and store the session
// coordinates. All three are required and must not be nil.
//
// This is a required option for NewSession.
func WithSessionComponents(substrate Substrate, channel *Channel, store MessageStore) SessionOption {
	return func(s *Session) error {
		if substrate == nil {
			return fmt.Errorf("substrate cannot be nil")
		}
		if channel == nil {
			return fmt.Errorf("channel cannot be nil")
		}
		if store == nil {
			return fmt.Errorf("store cannot be nil")
		}

		s.substrate = substrate
		s.channel = channel
		s.store = store
		return nil
	}
}

// WithSessionDisplay sets where messages, notices and errors are rendered.
// This is a required option for NewSession.
func WithSessionDisplay(d Display) SessionOption {
	return func(s *Session) error {
		if d == nil {
			return fmt.Errorf("display cannot be nil")
		}
		s.display = d
		return nil
	}
}

// WithSessionLogger sets the logger instance for the session.
// This is a required option for NewSession.
func WithSessionLogger(logger Logger) SessionOption {
	return func(s *Session) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithDisplayName sets the initial display name.
// If not provided, a random "user-xxxxx" name is generated.
func WithDisplayName(name string) SessionOption {
	return func(s *Session) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("display name cannot be empty")
		}
		s.displayName = name
		return nil
	}
}

// WithHistoryOnStart sets how many stored messages Start replays.
// Zero disables the replay. Default is 10.
func WithHistoryOnStart(n int) SessionOption {
	return func(s *Session) error {
		if n < 0 {
			return fmt.Errorf("history on start must be >= 0, got %d", n)
		}
		s.historyOnStart = n
		return nil
	}
}

// WithSessionClock overrides the clock used by /clear.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		s.now = now
		return nil
	}
}

// RetentionOption is a function that configures a RetentionWorker.
type RetentionOption func(*RetentionWorker) error

// WithRetentionStore sets the store to prune.
// This is a required option for NewRetentionWorker.
func WithRetentionStore(store MessageStore) RetentionOption {
	return func(w *RetentionWorker) error {
		if store == nil {
			return fmt.Errorf("store cannot be nil")
		}
		w.store = store
		return nil
	}
}

// WithRetentionLogger sets the logger instance for the worker.
// This is a required option for NewRetentionWorker.
func WithRetentionLogger(logger Logger) RetentionOption {
	return func(w *RetentionWorker) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		w.logger = logger
		return nil
	}
}

// WithRetentionPeriod sets how long messages are kept.
// This is a required option for NewRetentionWorker. Must be > 0.
func WithRetentionPeriod(d time.Duration) RetentionOption {
	return func(w *RetentionWorker) error {
		if d <= 0 {
			return fmt.Errorf("retention period must be > 0, got %v", d)
		}
		w.retention = d
		return nil
	}
}

// WithRetentionClock overrides the clock used to compute the cutoff.
func WithRetentionClock(now func() time.Time) RetentionOption {
	return func(w *RetentionWorker) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		w.now = now
		return nil
	}
}
