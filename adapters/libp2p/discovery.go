package libp2p

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	dutil "github.com/libp2p/go-libp2p/p2p/discovery/util"
	"github.com/multiformats/go-multiaddr"
)

const dialTimeout = 15 * time.Second

// ParseBootstrapPeers parses multiaddrs carrying a /p2p/<id> component.
// Blank entries are skipped; addresses for the same peer are merged.
func ParseBootstrapPeers(addrs []string) ([]peer.AddrInfo, error) {
	var maddrs []multiaddr.Multiaddr
	for _, s := range addrs {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		ma, err := multiaddr.NewMultiaddr(s)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", s, err)
		}
		maddrs = append(maddrs, ma)
	}
	if len(maddrs) == 0 {
		return nil, nil
	}

	infos, err := peer.AddrInfosFromP2pAddrs(maddrs...)
	if err != nil {
		return nil, fmt.Errorf("bootstrap peers need a /p2p/ component: %w", err)
	}
	return infos, nil
}

// mdnsNotifee connects to peers announced on the local network.
type mdnsNotifee struct {
	node *Node
}

func (m *mdnsNotifee) HandlePeerFound(pi peer.AddrInfo) {
	m.node.handleDiscovered(pi)
}

func (n *Node) handleDiscovered(pi peer.AddrInfo) {
	if pi.ID == n.host.ID() || len(pi.Addrs) == 0 {
		return
	}
	n.opts.notifier.NotifyPeerDiscovered(n.ctx, pi.ID.String())
	if n.host.Network().Connectedness(pi.ID) == network.Connected {
		return
	}
	n.connectAsync(pi)
}

// connectAsync dials pi in the background using the dial strategy.
func (n *Node) connectAsync(pi peer.AddrInfo) {
	if !n.track() {
		return
	}
	go func() {
		defer n.wg.Done()

		err := n.opts.dial.Do(n.ctx, func(ctx context.Context) error {
			dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
			defer cancel()
			return n.host.Connect(dialCtx, pi)
		})
		if err != nil && n.ctx.Err() == nil {
			n.opts.logger.Debugf("Giving up on peer %s: %v", pi.ID, err)
		}
	}()
}

// discoverLoop advertises the namespace on the DHT and periodically looks
// for other peers advertising it.
func (n *Node) discoverLoop(namespace string) {
	defer n.wg.Done()

	dutil.Advertise(n.ctx, n.discovery, namespace)
	n.opts.logger.Debugf("Advertising namespace %s", namespace)

	ticker := time.NewTicker(n.opts.discoveryPeriod)
	defer ticker.Stop()

	for {
		n.findPeers(namespace)

		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (n *Node) findPeers(namespace string) {
	peers, err := n.discovery.FindPeers(n.ctx, namespace)
	if err != nil {
		if n.ctx.Err() == nil {
			n.opts.logger.Debugf("DHT lookup for %s failed: %v", namespace, err)
		}
		return
	}
	for pi := range peers {
		n.handleDiscovered(pi)
	}
}
