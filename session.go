package p2pchat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coregx/p2pchat/model"
)

// HistoryLimit is the number of records shown by /history.
const HistoryLimit = 50

// MaxLineLength bounds a single input line.
const MaxLineLength = 64 * 1024

const defaultHistoryOnStart = 10

// Session is the command interpreter and event router for one chat user.
// It turns command lines into channel and store calls, and turns inbound
// envelopes into rendered and stored messages.
//
// The display name is the only mutable state a Session owns; durable state
// lives in the MessageStore and network state lives in the Substrate.
//
// Thread safety: Safe for concurrent use. Execute runs on the command loop
// while HandleEnvelope runs on the substrate's delivery goroutine.
type Session struct {
	substrate      Substrate
	channel        *Channel
	store          MessageStore
	display        Display
	logger         Logger
	now            func() time.Time
	historyOnStart int

	mu          sync.RWMutex
	displayName string
}

// NewSession creates a new Session with the provided options.
//
// Required options:
//   - WithSessionComponents: substrate, channel and store
//   - WithSessionDisplay: output surface
//   - WithSessionLogger: logger instance
func NewSession(opts ...SessionOption) (*Session, error) {
	s := &Session{
		now:            time.Now,
		historyOnStart: defaultHistoryOnStart,
		displayName:    generateDisplayName(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply session option", err)
		}
	}

	if s.substrate == nil || s.channel == nil || s.store == nil {
		return nil, NewError(ErrCodeConfiguration, "Substrate, Channel and MessageStore are required (use WithSessionComponents)")
	}
	if s.display == nil {
		return nil, NewError(ErrCodeConfiguration, "Display is required (use WithSessionDisplay)")
	}
	if s.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithSessionLogger)")
	}

	return s, nil
}

func generateDisplayName() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 5)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return "user-" + string(b)
}

// DisplayName returns the current display name.
func (s *Session) DisplayName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.displayName
}

// SetDisplayName changes the display name used for outgoing messages.
func (s *Session) SetDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewError(ErrCodeCommand, "usage: /name <new name>")
	}

	s.mu.Lock()
	s.displayName = name
	s.mu.Unlock()
	return nil
}

// Start registers the session as a channel listener, which joins the topic,
// and replays the most recent stored messages.
func (s *Session) Start(ctx context.Context) error {
	if err := s.channel.Subscribe(ctx, s.HandleEnvelope); err != nil {
		return err
	}

	if s.historyOnStart > 0 {
		records, err := s.store.Recent(ctx, s.historyOnStart)
		if err != nil {
			s.logger.Errorf("Failed to load history: %v", err)
		}
		if len(records) > 0 {
			s.display.ShowNotice(fmt.Sprintf("--- last %d messages ---", len(records)))
			s.showRecords(records)
			s.display.ShowNotice("---")
		}
	}

	s.logger.Infof("Session started as %s on topic %s", s.DisplayName(), s.channel.Topic())
	return nil
}

// Run reads command lines from r until /quit, end of input or ctx
// cancellation. Command errors, including lines longer than MaxLineLength,
// are rendered and never end the loop.
func (s *Session) Run(ctx context.Context, r io.Reader) error {
	br := bufio.NewReader(r)
	for {
		line, tooLong, err := readLine(br, MaxLineLength)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read commands: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}

		if tooLong {
			err = NewError(ErrCodeCommand, fmt.Sprintf("line too long, the limit is %d bytes", MaxLineLength))
		} else {
			var quit bool
			quit, err = s.Execute(ctx, line)
			if quit {
				return nil
			}
		}
		if err != nil {
			s.display.ShowError(commandMessage(err))
		}
	}
}

// readLine returns the next line without its terminator. A line longer than
// limit is consumed entirely and reported with tooLong set. A final line
// without a newline is returned with a nil error; io.EOF comes on the next
// call.
func readLine(br *bufio.Reader, limit int) (line string, tooLong bool, err error) {
	var buf []byte
	read := false
	for {
		chunk, rerr := br.ReadSlice('\n')
		read = read || len(chunk) > 0
		if !tooLong {
			buf = append(buf, chunk...)
			// +2 leaves room for a CRLF terminator.
			if len(buf) > limit+2 {
				tooLong, buf = true, nil
			}
		}

		switch {
		case errors.Is(rerr, bufio.ErrBufferFull):
			continue
		case errors.Is(rerr, io.EOF) && read:
		case rerr != nil:
			return "", false, rerr
		}

		line = strings.TrimRight(string(buf), "\r\n")
		if len(line) > limit {
			return "", true, nil
		}
		return line, tooLong, nil
	}
}

func commandMessage(err error) string {
	var chatErr *Error
	if errors.As(err, &chatErr) && chatErr.Err == nil {
		return chatErr.Message
	}
	return err.Error()
}

// Execute runs one command line and reports whether the session should end.
// Malformed commands return an ErrCodeCommand error; every other failure is
// rendered and logged here.
func (s *Session) Execute(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	if !strings.HasPrefix(line, "/") {
		s.send(ctx, line)
		return false, nil
	}

	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch verb {
	case "/help":
		s.display.ShowNotice(helpText)
	case "/peers":
		s.showPeers()
	case "/conn":
		s.showConnections()
	case "/verbose":
		return false, s.toggleVerbose()
	case "/name":
		if err := s.SetDisplayName(arg); err != nil {
			return false, err
		}
		s.display.ShowNotice("Display name set to " + s.DisplayName())
	case "/history":
		s.showHistory(ctx)
	case "/info":
		s.showInfo(ctx)
	case "/clear":
		return false, s.clear(ctx, arg)
	case "/quit", "/exit":
		return true, nil
	default:
		return false, NewError(ErrCodeCommand, fmt.Sprintf("unknown command %s, type /help for a list", verb))
	}

	return false, nil
}

// send publishes a chat line and archives it locally. The channel does not
// deliver our own publications back, so the sender's copy is stored here.
func (s *Session) send(ctx context.Context, content string) {
	e, ok := s.channel.SendBroadcast(ctx, content, s.DisplayName())
	if !ok {
		s.display.ShowError("failed to send message (no peers connected?)")
		return
	}

	s.display.ShowMessage(e)
	if _, err := s.store.Store(ctx, e); err != nil {
		s.logger.Errorf("Failed to store sent message: %v", err)
		s.display.ShowError("message sent but not saved to history")
	}
}

// HandleEnvelope is the channel listener. Only broadcast envelopes from
// other peers are rendered and stored.
func (s *Session) HandleEnvelope(ctx context.Context, e model.Envelope) {
	if !e.Kind.IsKnown() {
		s.logger.Debugf("Ignoring %q message from %s", e.Kind, model.ShortID(e.SenderID, 16))
		return
	}
	if e.SenderID == s.substrate.ID() {
		s.logger.Debugf("Ignoring echo of own message sent at %d", e.SentAt)
		return
	}

	s.display.ShowMessage(e)
	if _, err := s.store.Store(ctx, e); err != nil {
		s.logger.Errorf("Failed to store message from %s: %v", model.ShortID(e.SenderID, 16), err)
	}
}

func (s *Session) showPeers() {
	conns := s.substrate.Connections()
	subs := s.channel.TopicSubscribers()

	var b strings.Builder
	fmt.Fprintf(&b, "Connected peers: %d", len(conns))
	for _, id := range conns {
		fmt.Fprintf(&b, "\n  %s", model.ShortID(id, 10))
	}
	fmt.Fprintf(&b, "\nTopic subscribers: %d", len(subs))
	for _, id := range subs {
		fmt.Fprintf(&b, "\n  %s", model.ShortID(id, 10))
	}
	s.display.ShowNotice(b.String())
}

// showConnections lists connected peers with how each is reached. Without
// a ConnDetailer the kind is reported as unknown.
func (s *Session) showConnections() {
	var details []ConnDetail
	if cd, ok := s.substrate.(ConnDetailer); ok {
		details = cd.ConnDetails()
	} else {
		for _, id := range s.substrate.Connections() {
			details = append(details, ConnDetail{PeerID: id, Kind: "unknown"})
		}
	}

	if len(details) == 0 {
		s.display.ShowNotice("No connections")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Connections: %d", len(details))
	for _, d := range details {
		line := fmt.Sprintf("%s  %-8s %s", model.ShortID(d.PeerID, 10), d.Kind, d.RemoteAddr)
		fmt.Fprintf(&b, "\n  %s", strings.TrimRight(line, " "))
	}
	s.display.ShowNotice(b.String())
}

func (s *Session) toggleVerbose() error {
	vt, ok := s.logger.(VerbosityToggler)
	if !ok {
		return NewError(ErrCodeCommand, "verbose logging cannot be changed at runtime")
	}
	if vt.ToggleVerbose() {
		s.display.ShowNotice("Verbose logging on")
	} else {
		s.display.ShowNotice("Verbose logging off")
	}
	return nil
}

func (s *Session) showHistory(ctx context.Context) {
	records, err := s.store.Recent(ctx, HistoryLimit)
	if err != nil {
		s.logger.Errorf("Failed to load history: %v", err)
		s.display.ShowError("could not read message history")
		return
	}
	if len(records) == 0 {
		s.display.ShowNotice("No messages in history")
		return
	}

	s.display.ShowNotice(fmt.Sprintf("--- %d messages ---", len(records)))
	s.showRecords(records)
}

func (s *Session) showRecords(records []model.Record) {
	for _, r := range records {
		s.display.ShowMessage(r.Envelope())
	}
}

func (s *Session) showInfo(ctx context.Context) {
	info := DescribeNode(s.substrate)

	var b strings.Builder
	fmt.Fprintf(&b, "Peer ID: %s\n", info.ID)
	fmt.Fprintf(&b, "Display name: %s\n", s.DisplayName())
	fmt.Fprintf(&b, "Topic: %s\n", s.channel.Topic())
	fmt.Fprintf(&b, "Connections: %d\n", info.Connections)
	if count, err := s.store.Count(ctx); err == nil {
		fmt.Fprintf(&b, "Stored messages: %d\n", count)
	}
	b.WriteString("Listen addresses:")
	for _, addr := range info.ListenAddrs {
		fmt.Fprintf(&b, "\n  %s", addr)
	}
	s.display.ShowNotice(b.String())
}

// clear prunes messages older than the given number of days.
func (s *Session) clear(ctx context.Context, arg string) error {
	days, err := strconv.Atoi(arg)
	if err != nil || days <= 0 {
		return NewError(ErrCodeCommand, "usage: /clear <days>, days must be a positive number")
	}

	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour).UnixMilli()
	deleted, err := s.store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Errorf("Failed to prune messages: %v", err)
		s.display.ShowError("could not clear old messages")
		return nil
	}

	s.display.ShowNotice(fmt.Sprintf("Deleted %d messages older than %d days", deleted, days))
	return nil
}

const helpText = `Commands:
  /help          show this help
  /peers         list connected peers and topic subscribers
  /conn          show whether each peer is connected directly or relayed
  /name <name>   change your display name
  /history       show the last 50 messages
  /info          show this node's identity and addresses
  /clear <days>  delete messages older than <days> days
  /verbose       toggle debug logging
  /quit, /exit   leave the chat
Anything else is sent as a chat message.`
