// Package libp2p provides the p2pchat.Substrate implementation over
// go-libp2p: TCP and QUIC transports, GossipSub topics, Kademlia DHT
// rendezvous discovery, mDNS local discovery, and relay/hole punching for
// NAT traversal.
//
// Example usage:
//
//	priv, err := libp2p.LoadOrCreateIdentity("./data")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	node, err := libp2p.NewNode(ctx,
//	    libp2p.WithIdentity(priv),
//	    libp2p.WithLogger(logger),
//	    libp2p.WithNotifier(p2pchat.NewLoggingPeerNotifier(logger)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
package libp2p
