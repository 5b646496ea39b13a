package libp2p

import (
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p/core/crypto"

	"github.com/coregx/p2pchat"
	"github.com/coregx/p2pchat/retry"
)

// DefaultListenAddrs listen on every IPv4 interface over TCP and QUIC with
// OS-assigned ports.
var DefaultListenAddrs = []string{
	"/ip4/0.0.0.0/tcp/0",
	"/ip4/0.0.0.0/udp/0/quic-v1",
}

// DefaultServiceName is the mDNS service tag chat nodes announce.
const DefaultServiceName = "p2p-chat"

type options struct {
	identity        crypto.PrivKey
	listenAddrs     []string
	bootstrapPeers  []string
	serviceName     string
	enableMDNS      bool
	enableDHT       bool
	enableNAT       bool
	discoveryPeriod time.Duration
	dial            retry.Strategy
	logger          p2pchat.Logger
	notifier        p2pchat.PeerNotifier
}

func defaultOptions() options {
	return options{
		listenAddrs:     DefaultListenAddrs,
		serviceName:     DefaultServiceName,
		enableMDNS:      true,
		enableDHT:       true,
		enableNAT:       true,
		discoveryPeriod: 30 * time.Second,
		dial:            retry.DefaultStrategy(),
		logger:          &p2pchat.NoopLogger{},
		notifier:        &p2pchat.NoOpPeerNotifier{},
	}
}

// Option is a function that configures a Node.
type Option func(*options) error

// WithIdentity sets the node key. If not provided, a fresh key is generated
// and the peer identity changes on every start.
func WithIdentity(priv crypto.PrivKey) Option {
	return func(o *options) error {
		if priv == nil {
			return fmt.Errorf("identity cannot be nil")
		}
		o.identity = priv
		return nil
	}
}

// WithListenAddrs overrides DefaultListenAddrs.
func WithListenAddrs(addrs ...string) Option {
	return func(o *options) error {
		if len(addrs) == 0 {
			return fmt.Errorf("at least one listen address is required")
		}
		o.listenAddrs = addrs
		return nil
	}
}

// WithBootstrapPeers sets multiaddrs (with /p2p/ component) dialled at
// start. When empty and the DHT is enabled, the public IPFS bootstrap
// peers are used.
func WithBootstrapPeers(addrs ...string) Option {
	return func(o *options) error {
		o.bootstrapPeers = addrs
		return nil
	}
}

// WithMDNS toggles local network discovery.
func WithMDNS(enabled bool) Option {
	return func(o *options) error {
		o.enableMDNS = enabled
		return nil
	}
}

// WithDHT toggles the Kademlia DHT used for global discovery.
func WithDHT(enabled bool) Option {
	return func(o *options) error {
		o.enableDHT = enabled
		return nil
	}
}

// WithNATTraversal toggles port mapping, relay and hole punching.
func WithNATTraversal(enabled bool) Option {
	return func(o *options) error {
		o.enableNAT = enabled
		return nil
	}
}

// WithServiceName sets the mDNS service tag.
func WithServiceName(name string) Option {
	return func(o *options) error {
		if name == "" {
			return fmt.Errorf("service name cannot be empty")
		}
		o.serviceName = name
		return nil
	}
}

// WithDialStrategy sets the backoff used when connecting to bootstrap and
// discovered peers.
func WithDialStrategy(s retry.Strategy) Option {
	return func(o *options) error {
		if s.MaxAttempts <= 0 {
			return fmt.Errorf("dial strategy needs at least one attempt")
		}
		o.dial = s
		return nil
	}
}

// WithLogger sets the logger instance for the node.
func WithLogger(logger p2pchat.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithNotifier sets the receiver of peer lifecycle events.
func WithNotifier(n p2pchat.PeerNotifier) Option {
	return func(o *options) error {
		if n == nil {
			return fmt.Errorf("notifier cannot be nil")
		}
		o.notifier = n
		return nil
	}
}
