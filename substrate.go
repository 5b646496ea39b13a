package p2pchat

import "context"

// DeliverFunc receives raw bytes published on a joined topic together with
// the sender identity reported by the substrate.
//
// Implementations may call it from any goroutine and must not call it for
// the local peer's own publications.
type DeliverFunc func(ctx context.Context, data []byte, from string)

// Substrate is the peer networking layer the chat core runs on.
// Transport, encryption, NAT traversal and discovery all live behind it;
// the core only needs the operations below.
//
// Peer identities are opaque strings.
type Substrate interface {
	// ID returns the stable identity of the local peer.
	ID() string

	// ListenAddrs returns the addresses the local peer listens on.
	ListenAddrs() []string

	// Connections returns the identities of currently connected peers.
	Connections() []string

	// JoinTopic subscribes to topic and starts delivering inbound messages.
	// Joining the same topic twice is an error.
	JoinTopic(ctx context.Context, topic string, deliver DeliverFunc) error

	// Publish broadcasts data on a joined topic. It returns ErrNoPeers when
	// no subscriber is reachable and never waits for remote acknowledgement.
	Publish(ctx context.Context, topic string, data []byte) error

	// TopicPeers returns the identities of peers subscribed to topic.
	TopicPeers(topic string) ([]string, error)

	// Close stops the node and releases its resources.
	Close() error
}

// ConnKind tells how a connected peer is reached.
type ConnKind string

const (
	// ConnDirect is a connection dialed straight to the peer.
	ConnDirect ConnKind = "direct"

	// ConnRelayed is a limited connection through a circuit relay.
	ConnRelayed ConnKind = "relayed"
)

// ConnDetail describes the connection to one peer.
type ConnDetail struct {
	PeerID     string
	Kind       ConnKind
	RemoteAddr string
}

// ConnDetailer is implemented by substrates that can tell direct
// connections from relayed ones. The /conn command uses it when present.
type ConnDetailer interface {
	ConnDetails() []ConnDetail
}

// PeerInfo is the local node summary shown by the /info command.
type PeerInfo struct {
	ID          string
	ListenAddrs []string
	Connections int
}

// DescribeNode collects a PeerInfo from a substrate.
func DescribeNode(s Substrate) PeerInfo {
	return PeerInfo{
		ID:          s.ID(),
		ListenAddrs: s.ListenAddrs(),
		Connections: len(s.Connections()),
	}
}
