// Package memnet is an in-process p2pchat.Substrate used by tests.
//
// Nodes attached to the same Hub are all connected to each other. Publish
// delivers synchronously to every other node subscribed to the topic, so a
// test can assert on the receiver right after the sender returns.
package memnet

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/coregx/p2pchat"
)

// Hub connects in-memory nodes.
type Hub struct {
	mu    sync.RWMutex
	nodes map[string]*Node
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{nodes: make(map[string]*Node)}
}

// NewNode attaches a node with the given identity to the hub.
func (h *Hub) NewNode(id string) *Node {
	n := &Node{
		hub:    h,
		id:     id,
		topics: make(map[string]p2pchat.DeliverFunc),
	}

	h.mu.Lock()
	h.nodes[id] = n
	h.mu.Unlock()
	return n
}

func (h *Hub) peersOf(id string) []*Node {
	h.mu.RLock()
	defer h.mu.RUnlock()

	peers := make([]*Node, 0, len(h.nodes))
	for otherID, n := range h.nodes {
		if otherID != id {
			peers = append(peers, n)
		}
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i].id < peers[j].id })
	return peers
}

// Node is one in-memory peer. It implements p2pchat.Substrate.
type Node struct {
	hub *Hub
	id  string

	mu            sync.RWMutex
	topics        map[string]p2pchat.DeliverFunc
	topicPeersErr error
	relayed       map[string]bool
	closed        bool
}

var (
	_ p2pchat.Substrate    = (*Node)(nil)
	_ p2pchat.ConnDetailer = (*Node)(nil)
)

// ID returns the node identity.
func (n *Node) ID() string { return n.id }

// ListenAddrs returns a single synthetic address.
func (n *Node) ListenAddrs() []string {
	return []string{"/memnet/" + n.id}
}

// Connections returns every other node on the hub.
func (n *Node) Connections() []string {
	peers := n.hub.peersOf(n.id)
	ids := make([]string, 0, len(peers))
	for _, p := range peers {
		ids = append(ids, p.id)
	}
	return ids
}

// ConnDetails reports every hub peer as a direct connection unless
// MarkRelayed was called for it.
func (n *Node) ConnDetails() []p2pchat.ConnDetail {
	n.mu.RLock()
	defer n.mu.RUnlock()

	peers := n.hub.peersOf(n.id)
	details := make([]p2pchat.ConnDetail, 0, len(peers))
	for _, p := range peers {
		d := p2pchat.ConnDetail{PeerID: p.id, Kind: p2pchat.ConnDirect, RemoteAddr: "/memnet/" + p.id}
		if n.relayed[p.id] {
			d.Kind = p2pchat.ConnRelayed
			d.RemoteAddr = "/memnet/relay/p2p-circuit/" + p.id
		}
		details = append(details, d)
	}
	return details
}

// MarkRelayed makes ConnDetails report the connection to id as relayed.
func (n *Node) MarkRelayed(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.relayed == nil {
		n.relayed = make(map[string]bool)
	}
	n.relayed[id] = true
}

// JoinTopic registers deliver for topic.
func (n *Node) JoinTopic(_ context.Context, topic string, deliver p2pchat.DeliverFunc) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return fmt.Errorf("memnet: node %s is closed", n.id)
	}
	if _, ok := n.topics[topic]; ok {
		return fmt.Errorf("memnet: topic %s already joined", topic)
	}
	n.topics[topic] = deliver
	return nil
}

func (n *Node) deliverFunc(topic string) p2pchat.DeliverFunc {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.topics[topic]
}

// Publish delivers data to every other node subscribed to topic.
func (n *Node) Publish(ctx context.Context, topic string, data []byte) error {
	if n.deliverFunc(topic) == nil {
		return fmt.Errorf("memnet: topic %s not joined", topic)
	}

	var targets []p2pchat.DeliverFunc
	for _, p := range n.hub.peersOf(n.id) {
		if d := p.deliverFunc(topic); d != nil {
			targets = append(targets, d)
		}
	}
	if len(targets) == 0 {
		return p2pchat.ErrNoPeers
	}

	for _, deliver := range targets {
		buf := make([]byte, len(data))
		copy(buf, data)
		deliver(ctx, buf, n.id)
	}
	return nil
}

// TopicPeers returns every other node subscribed to topic.
func (n *Node) TopicPeers(topic string) ([]string, error) {
	n.mu.RLock()
	err := n.topicPeersErr
	n.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, p := range n.hub.peersOf(n.id) {
		if p.deliverFunc(topic) != nil {
			ids = append(ids, p.id)
		}
	}
	return ids, nil
}

// FailTopicPeers makes TopicPeers return err until called again with nil.
func (n *Node) FailTopicPeers(err error) {
	n.mu.Lock()
	n.topicPeersErr = err
	n.mu.Unlock()
}

// Inject delivers raw bytes to this node as if they arrived from the
// network, from any claimed sender including the node itself.
func (n *Node) Inject(ctx context.Context, topic string, data []byte, from string) {
	if d := n.deliverFunc(topic); d != nil {
		d(ctx, data, from)
	}
}

// Close detaches the node from the hub.
func (n *Node) Close() error {
	n.mu.Lock()
	n.closed = true
	n.topics = make(map[string]p2pchat.DeliverFunc)
	n.mu.Unlock()

	n.hub.mu.Lock()
	delete(n.hub.nodes, n.id)
	n.hub.mu.Unlock()
	return nil
}
