// Package p2pchat is the core of a serverless peer-to-peer chat: a durable
// message store contract, a topic channel over a pluggable peer-to-peer
// substrate, and a session that turns command lines into chat actions.
//
// There is no server. Every instance joins a named topic on a gossip
// network, broadcasts what its user types, renders what other peers
// publish, and keeps its own local history.
//
// # Components
//
//   - Substrate: the peer-to-peer network (adapters/libp2p in production,
//     internal/memnet in tests)
//   - Channel: joins one topic, publishes envelopes and fans inbound
//     envelopes out to listeners
//   - MessageStore: append-only local history keyed by timestamp and a
//     monotonic sequence (adapters/relica over SQLite, MySQL or PostgreSQL)
//   - Session: command interpreter (/help, /peers, /name, /history, /info,
//     /clear, /quit) and inbound message router
//   - RetentionWorker: optional periodic pruning of old history
//
// # Quick Start
//
// Open a store and start a node:
//
//	import (
//	    "github.com/coregx/p2pchat"
//	    "github.com/coregx/p2pchat/adapters/libp2p"
//	    "github.com/coregx/p2pchat/adapters/relica"
//	    _ "github.com/mattn/go-sqlite3"
//	)
//
//	store, err := relica.Open(ctx, "sqlite3", "./data/messages.db", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	node, err := libp2p.NewNode(ctx, libp2p.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
//
// Wire the channel and session, then run the command loop:
//
//	channel, err := p2pchat.NewChannel(
//	    p2pchat.WithChannelSubstrate(node),
//	    p2pchat.WithChannelTopic("my-room"),
//	    p2pchat.WithChannelLogger(logger),
//	)
//
//	session, err := p2pchat.NewSession(
//	    p2pchat.WithSessionComponents(node, channel, store),
//	    p2pchat.WithSessionDisplay(p2pchat.NewTextDisplay(os.Stdout)),
//	    p2pchat.WithSessionLogger(logger),
//	)
//
//	if err := session.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	_ = session.Run(ctx, os.Stdin)
//
// # Wire Format
//
// Envelopes travel as JSON objects:
//
//	{"type":"broadcast","content":"hi","username":"alice","timestamp":1700000000123}
//
// The sender identity is taken from the substrate on receipt and never
// trusted from the payload.
//
// # Error Handling
//
// Errors are *Error values carrying a category code:
//
//	if p2pchat.HasCode(err, p2pchat.ErrCodeStoreWrite) {
//	    // history is unavailable, the message itself was still sent
//	}
//
// Malformed inbound payloads are dropped with a debug log and never reach
// listeners.
//
// # Thread Safety
//
// Channel, Session, RetentionWorker and the provided stores are safe for
// concurrent use.
package p2pchat
