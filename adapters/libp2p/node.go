package libp2p

import (
	"context"
	"errors"
	"fmt"
	"sync"

	golibp2p "github.com/libp2p/go-libp2p"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/routing"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	drouting "github.com/libp2p/go-libp2p/p2p/discovery/routing"
	"github.com/multiformats/go-multiaddr"

	"github.com/coregx/p2pchat"
)

// Node is a libp2p host running GossipSub. It implements p2pchat.Substrate.
//
// Inbound messages published by the node itself are filtered out before
// delivery, and Publish reports p2pchat.ErrNoPeers when the topic has no
// other subscribers, since GossipSub accepts such publishes silently.
type Node struct {
	opts options

	host      host.Host
	dht       *dht.IpfsDHT
	discovery *drouting.RoutingDiscovery
	ps        *pubsub.PubSub
	mdns      mdns.Service

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	topics map[string]*joinedTopic
	closed bool
}

type joinedTopic struct {
	topic *pubsub.Topic
	sub   *pubsub.Subscription
}

var (
	_ p2pchat.Substrate    = (*Node)(nil)
	_ p2pchat.ConnDetailer = (*Node)(nil)
)

// NewNode starts a libp2p host, the optional DHT and mDNS services, and the
// GossipSub router. Bootstrap dials run in the background.
//
// Any failure here is a p2pchat.ErrCodeStartup error and leaves nothing running.
func NewNode(ctx context.Context, opts ...Option) (*Node, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, p2pchat.NewErrorWithCause(p2pchat.ErrCodeConfiguration, "failed to apply node option", err)
		}
	}

	bootstrap, err := ParseBootstrapPeers(o.bootstrapPeers)
	if err != nil {
		return nil, p2pchat.NewErrorWithCause(p2pchat.ErrCodeConfiguration, "invalid bootstrap peer", err)
	}

	nodeCtx, cancel := context.WithCancel(context.Background())
	n := &Node{
		opts:   o,
		ctx:    nodeCtx,
		cancel: cancel,
		topics: make(map[string]*joinedTopic),
	}

	if err := n.start(ctx, bootstrap); err != nil {
		_ = n.Close()
		return nil, p2pchat.NewErrorWithCause(p2pchat.ErrCodeStartup, "failed to start p2p node", err)
	}
	return n, nil
}

func (n *Node) hostOptions() []golibp2p.Option {
	o := n.opts
	hostOpts := []golibp2p.Option{
		golibp2p.ListenAddrStrings(o.listenAddrs...),
	}
	if o.identity != nil {
		hostOpts = append(hostOpts, golibp2p.Identity(o.identity))
	}
	if o.enableNAT {
		hostOpts = append(hostOpts,
			golibp2p.NATPortMap(),
			golibp2p.EnableNATService(),
			golibp2p.EnableRelay(),
			golibp2p.EnableAutoRelayWithStaticRelays([]peer.AddrInfo{}),
			golibp2p.EnableHolePunching(),
		)
	}
	if o.enableDHT {
		hostOpts = append(hostOpts, golibp2p.Routing(func(h host.Host) (routing.PeerRouting, error) {
			kdht, err := dht.New(n.ctx, h, dht.Mode(dht.ModeAutoServer))
			n.dht = kdht
			return kdht, err
		}))
	}
	return hostOpts
}

func (n *Node) start(ctx context.Context, bootstrap []peer.AddrInfo) error {
	h, err := golibp2p.New(n.hostOptions()...)
	if err != nil {
		return fmt.Errorf("create host: %w", err)
	}
	n.host = h

	h.Network().Notify(&network.NotifyBundle{
		ConnectedF: func(_ network.Network, conn network.Conn) {
			n.opts.notifier.NotifyPeerConnected(n.ctx, conn.RemotePeer().String())
		},
		DisconnectedF: func(_ network.Network, conn network.Conn) {
			n.opts.notifier.NotifyPeerDisconnected(n.ctx, conn.RemotePeer().String())
		},
	})

	if n.dht != nil {
		if len(bootstrap) == 0 {
			bootstrap = dht.GetDefaultBootstrapPeerAddrInfos()
		}
		if err := n.dht.Bootstrap(ctx); err != nil {
			n.opts.logger.Warnf("DHT bootstrap: %v", err)
		}
		n.discovery = drouting.NewRoutingDiscovery(n.dht)
	}
	if len(bootstrap) > 0 {
		n.opts.logger.Debugf("Dialing %d bootstrap peers\n%s", len(bootstrap), n.opts.dial.GetRetrySchedule())
	}
	for _, pi := range bootstrap {
		n.connectAsync(pi)
	}

	if n.opts.enableMDNS {
		n.mdns = mdns.NewMdnsService(h, n.opts.serviceName, &mdnsNotifee{node: n})
		if err := n.mdns.Start(); err != nil {
			return fmt.Errorf("start mDNS: %w", err)
		}
	}

	var psOpts []pubsub.Option
	if n.discovery != nil {
		psOpts = append(psOpts, pubsub.WithDiscovery(n.discovery))
	}
	n.ps, err = pubsub.NewGossipSub(n.ctx, h, psOpts...)
	if err != nil {
		return fmt.Errorf("create gossipsub: %w", err)
	}

	n.opts.logger.Infof("Node started: id=%s addrs=%v", h.ID(), h.Addrs())
	return nil
}

// ID returns the local peer identity.
func (n *Node) ID() string {
	return n.host.ID().String()
}

// ListenAddrs returns the full dialable addresses of the node, each ending
// in /p2p/<id>.
func (n *Node) ListenAddrs() []string {
	addrs := n.host.Addrs()
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, fmt.Sprintf("%s/p2p/%s", a, n.host.ID()))
	}
	return out
}

// Connections returns the identities of peers with an open connection.
func (n *Node) Connections() []string {
	return peerIDStrings(n.host.Network().Peers())
}

// ConnDetails reports how each connected peer is reached. A peer with at
// least one unrelayed connection counts as direct.
func (n *Node) ConnDetails() []p2pchat.ConnDetail {
	nw := n.host.Network()
	var details []p2pchat.ConnDetail
	for _, id := range nw.Peers() {
		conns := nw.ConnsToPeer(id)
		if len(conns) == 0 {
			continue
		}
		d := p2pchat.ConnDetail{PeerID: id.String(), Kind: p2pchat.ConnRelayed}
		for _, c := range conns {
			kind := connKind(c.Stat().Limited, c.RemoteMultiaddr())
			if d.RemoteAddr == "" || kind == p2pchat.ConnDirect {
				d.Kind = kind
				d.RemoteAddr = c.RemoteMultiaddr().String()
			}
			if kind == p2pchat.ConnDirect {
				break
			}
		}
		details = append(details, d)
	}
	return details
}

// connKind classifies a connection. Circuit v2 connections are marked
// limited; the /p2p-circuit component covers unlimited relays.
func connKind(limited bool, remote multiaddr.Multiaddr) p2pchat.ConnKind {
	if limited {
		return p2pchat.ConnRelayed
	}
	if _, err := remote.ValueForProtocol(multiaddr.P_CIRCUIT); err == nil {
		return p2pchat.ConnRelayed
	}
	return p2pchat.ConnDirect
}

// JoinTopic joins a GossipSub topic and starts a reader goroutine that
// calls deliver for every message from another peer. With the DHT enabled,
// the topic name is also advertised and searched as a rendezvous namespace.
func (n *Node) JoinTopic(_ context.Context, name string, deliver p2pchat.DeliverFunc) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return errors.New("node is closed")
	}
	if _, ok := n.topics[name]; ok {
		return fmt.Errorf("topic %s already joined", name)
	}

	topic, err := n.ps.Join(name)
	if err != nil {
		return fmt.Errorf("join topic %s: %w", name, err)
	}
	sub, err := topic.Subscribe()
	if err != nil {
		_ = topic.Close()
		return fmt.Errorf("subscribe to topic %s: %w", name, err)
	}
	n.topics[name] = &joinedTopic{topic: topic, sub: sub}

	n.wg.Add(1)
	go n.readLoop(sub, deliver)

	if n.discovery != nil {
		n.wg.Add(1)
		go n.discoverLoop(name)
	}
	return nil
}

// track registers a background goroutine unless the node is closed.
// Close marks the node closed under mu before it waits on wg.
func (n *Node) track() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return false
	}
	n.wg.Add(1)
	return true
}

func (n *Node) readLoop(sub *pubsub.Subscription, deliver p2pchat.DeliverFunc) {
	defer n.wg.Done()

	self := n.host.ID()
	for {
		msg, err := sub.Next(n.ctx)
		if err != nil {
			if n.ctx.Err() == nil {
				n.opts.logger.Warnf("Topic %s reader stopped: %v", sub.Topic(), err)
			}
			return
		}
		if msg.GetFrom() == self {
			continue
		}
		deliver(n.ctx, msg.Data, msg.GetFrom().String())
	}
}

func (n *Node) joined(name string) (*joinedTopic, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	t, ok := n.topics[name]
	return t, ok
}

// Publish broadcasts data on a joined topic. It does not wait for delivery.
func (n *Node) Publish(ctx context.Context, name string, data []byte) error {
	t, ok := n.joined(name)
	if !ok {
		return fmt.Errorf("topic %s not joined", name)
	}
	if len(t.topic.ListPeers()) == 0 {
		return p2pchat.ErrNoPeers
	}
	if err := t.topic.Publish(ctx, data); err != nil {
		return fmt.Errorf("publish to %s: %w", name, err)
	}
	return nil
}

// TopicPeers returns the peers GossipSub knows to be subscribed to topic.
func (n *Node) TopicPeers(name string) ([]string, error) {
	if n.ps == nil {
		return nil, errors.New("pubsub not started")
	}
	return peerIDStrings(n.ps.ListPeers(name)), nil
}

// Close leaves every topic and shuts down mDNS, the DHT and the host.
// Background goroutines are stopped before it returns.
func (n *Node) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	topics := n.topics
	n.topics = make(map[string]*joinedTopic)
	n.mu.Unlock()

	n.cancel()

	var errs []error
	for _, t := range topics {
		t.sub.Cancel()
		if err := t.topic.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if n.mdns != nil {
		if err := n.mdns.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if n.dht != nil {
		if err := n.dht.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if n.host != nil {
		if err := n.host.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	n.wg.Wait()
	return errors.Join(errs...)
}

func peerIDStrings(ids []peer.ID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
