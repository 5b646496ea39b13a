// Package main provides the p2pchat terminal client: a libp2p node, a
// persistent message store and an interactive command loop.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coregx/p2pchat"
	"github.com/coregx/p2pchat/adapters/libp2p"
	"github.com/coregx/p2pchat/adapters/relica"
	"github.com/coregx/p2pchat/cmd/p2pchat/internal/config"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const retentionInterval = time.Hour

var (
	topic   string
	dataDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "p2pchat",
	Short: "Serverless peer-to-peer chat",
	Long: `p2pchat joins a chat room over libp2p GossipSub. Peers are found on the
local network with mDNS and globally through the Kademlia DHT. Messages are
kept in a local database and replayed on start.

Configuration is read from CONFIG_FILE (TOML), .env and the environment;
flags take precedence.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runChat,
}

func init() {
	rootCmd.Flags().StringVarP(&topic, "topic", "t", "", "Chat room topic (env CHAT_TOPIC)")
	rootCmd.Flags().StringVarP(&dataDir, "data-dir", "d", "", "Directory for identity and history (env DATA_DIR)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging (env VERBOSE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("topic") {
		cfg.Chat.Topic = topic
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.Chat.DataDir = dataDir
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = verbose
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newZapLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	display := newStyledDisplay(os.Stdout)

	priv, err := libp2p.LoadOrCreateIdentity(cfg.Chat.DataDir)
	if err != nil {
		return p2pchat.NewErrorWithCause(p2pchat.ErrCodeStartup, "failed to load identity", err)
	}

	node, err := libp2p.NewNode(ctx,
		libp2p.WithIdentity(priv),
		libp2p.WithListenAddrs(cfg.Network.ListenAddrs...),
		libp2p.WithBootstrapPeers(cfg.Network.BootstrapPeers...),
		libp2p.WithMDNS(cfg.Network.EnableMDNS),
		libp2p.WithDHT(cfg.Network.EnableDHT),
		libp2p.WithLogger(logger),
		libp2p.WithNotifier(p2pchat.NewDisplayPeerNotifier(display, p2pchat.NewLoggingPeerNotifier(logger))),
	)
	if err != nil {
		return err
	}

	store, err := relica.Open(ctx, cfg.Database.Driver, cfg.StoreDSN(), cfg.Database.Prefix)
	if err != nil {
		_ = node.Close()
		return err
	}

	err = chat(ctx, cfg, node, store, display, logger)

	// Store before node.
	if closeErr := store.Close(); closeErr != nil {
		logger.Errorf("Failed to close message store: %v", closeErr)
	}
	if closeErr := node.Close(); closeErr != nil {
		logger.Errorf("Failed to stop p2p node: %v", closeErr)
	}
	return err
}

func chat(ctx context.Context, cfg *config.Config, node *libp2p.Node, store *relica.MessageStore,
	display p2pchat.Display, logger p2pchat.Logger) error {
	channel, err := p2pchat.NewChannel(
		p2pchat.WithChannelSubstrate(node),
		p2pchat.WithChannelTopic(cfg.Chat.Topic),
		p2pchat.WithChannelLogger(logger),
	)
	if err != nil {
		return err
	}

	session, err := p2pchat.NewSession(
		p2pchat.WithSessionComponents(node, channel, store),
		p2pchat.WithSessionDisplay(display),
		p2pchat.WithSessionLogger(logger),
		p2pchat.WithHistoryOnStart(cfg.Chat.HistoryOnStart),
	)
	if err != nil {
		return err
	}

	showBanner(display, node, channel, session)

	if err := session.Start(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Chat.RetentionDays > 0 {
		worker, err := p2pchat.NewRetentionWorker(
			p2pchat.WithRetentionStore(store),
			p2pchat.WithRetentionLogger(logger),
			p2pchat.WithRetentionPeriod(time.Duration(cfg.Chat.RetentionDays)*24*time.Hour),
		)
		if err != nil {
			return err
		}
		go worker.Run(runCtx, retentionInterval)
	}

	// A read from stdin cannot be cancelled; on signal the loop is abandoned.
	done := make(chan error, 1)
	go func() {
		done <- session.Run(runCtx, os.Stdin)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		display.ShowNotice("Shutting down...")
		return nil
	}
}

func showBanner(display p2pchat.Display, node *libp2p.Node, channel *p2pchat.Channel, session *p2pchat.Session) {
	info := p2pchat.DescribeNode(node)
	display.ShowNotice("P2P chat started")
	display.ShowNotice("Peer ID: " + info.ID)
	display.ShowNotice("Listening on:\n  " + strings.Join(info.ListenAddrs, "\n  "))
	display.ShowNotice(fmt.Sprintf("Topic: %s, display name: %s", channel.Topic(), session.DisplayName()))
	display.ShowNotice("Type /help for commands")
}
