package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/onnwee/hardlyknowher/telemetry"
)

// maxMessageRunes is the Twitch PRIVMSG body limit.
const maxMessageRunes = 500

// TwitchConfig holds the IRC identity and the channels to join.
type TwitchConfig struct {
	Username     string
	Token        string // "oauth:..." IRC token
	Channels     []string
	IgnoredUsers []string
}

// TwitchClient adapts go-twitch-irc to the Handler, Sender and Presence contracts.
type TwitchClient struct {
	client   *twitch.Client
	username string
	channels []string
	ignored  map[string]struct{}

	mu      sync.RWMutex
	handler Handler

	connected atomic.Bool
	// retryDelay grows between reconnect attempts, capped at maxRetryDelay.
	retryDelay    time.Duration
	maxRetryDelay time.Duration
}

// NewTwitchClient builds an unconnected client for cfg.
func NewTwitchClient(cfg TwitchConfig) *TwitchClient {
	c := twitch.NewClient(cfg.Username, cfg.Token)
	c.Capabilities = []string{twitch.TagsCapability, twitch.CommandsCapability, twitch.MembershipCapability}

	ignored := make(map[string]struct{}, len(cfg.IgnoredUsers))
	for _, u := range cfg.IgnoredUsers {
		ignored[u] = struct{}{}
	}
	tc := &TwitchClient{
		client:        c,
		username:      cfg.Username,
		channels:      append([]string(nil), cfg.Channels...),
		ignored:       ignored,
		retryDelay:    2 * time.Second,
		maxRetryDelay: 2 * time.Minute,
	}
	c.OnConnect(func() {
		tc.connected.Store(true)
		telemetry.SetChatConnected(true)
		slog.Info("twitch chat connected", slog.String("component", "twitch"), slog.Any("channels", tc.channels))
	})
	return tc
}

// Attach routes inbound events to h. It must be called before Run.
func (tc *TwitchClient) Attach(h Handler) {
	tc.mu.Lock()
	tc.handler = h
	tc.mu.Unlock()
}

func (tc *TwitchClient) currentHandler() Handler {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.handler
}

// Run connects, joins the configured channels and blocks until ctx is cancelled.
// A failure before the first successful connect is returned; later drops are retried.
func (tc *TwitchClient) Run(ctx context.Context) error {
	if tc.currentHandler() == nil {
		return errors.New("twitch client: no handler attached")
	}
	tc.client.OnPrivateMessage(func(m twitch.PrivateMessage) {
		if h := tc.currentHandler(); h != nil {
			h.HandleMessage(ctx, tc.toMessage(m))
		}
	})
	tc.client.OnNoticeMessage(func(m twitch.NoticeMessage) {
		if h := tc.currentHandler(); h != nil {
			h.HandleNotice(ctx, Notice{Channel: m.Channel, MsgID: m.MsgID, Text: m.Message})
		}
	})
	tc.client.Join(tc.channels...)

	// Handle context cancellation by closing the client
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = tc.client.Disconnect()
		case <-stop:
		}
	}()

	everConnected := false
	delay := tc.retryDelay
	for {
		if ctx.Err() != nil {
			return nil
		}
		err := tc.client.Connect()
		wasConnected := tc.connected.Swap(false)
		telemetry.SetChatConnected(false)
		everConnected = everConnected || wasConnected

		if ctx.Err() != nil {
			slog.Info("twitch chat disconnected", slog.String("component", "twitch"))
			return nil
		}
		if !everConnected {
			return fmt.Errorf("twitch connect: %w", err)
		}
		if wasConnected {
			delay = tc.retryDelay
		}
		slog.Warn("twitch chat connection lost; reconnecting",
			slog.String("component", "twitch"),
			slog.Any("err", err),
			slog.Duration("retry_in", delay))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if delay > tc.maxRetryDelay {
			delay = tc.maxRetryDelay
		}
	}
}

// Reply sends text as a threaded reply to ref, or a plain message when ref has no id.
// Twitch reports refused messages asynchronously through NOTICE, not here.
func (tc *TwitchClient) Reply(_ context.Context, ref Ref, text string) error {
	if !tc.connected.Load() {
		return &SendError{Class: SendClassTransport, Channel: ref.Channel, Err: ErrNotConnected}
	}
	text = truncateRunes(text, maxMessageRunes)
	if ref.ID == "" {
		tc.client.Say(ref.Channel, text)
		return nil
	}
	tc.client.Reply(ref.Channel, ref.ID, text)
	return nil
}

// Servers is the number of joined channels.
func (tc *TwitchClient) Servers() int { return len(tc.channels) }

// Members sums the known chatters across joined channels.
func (tc *TwitchClient) Members() int {
	if !tc.connected.Load() {
		return 0
	}
	total := 0
	for _, ch := range tc.channels {
		users, err := tc.client.Userlist(ch)
		if err != nil {
			continue
		}
		total += len(users)
	}
	return total
}

// Connected reports whether the IRC connection is up.
func (tc *TwitchClient) Connected() bool { return tc.connected.Load() }

// SetToken swaps the IRC token used on the next (re)connect.
func (tc *TwitchClient) SetToken(token string) {
	tc.client.SetIRCToken(token)
}

func (tc *TwitchClient) toMessage(m twitch.PrivateMessage) Message {
	channelID := m.RoomID
	if channelID == "" {
		channelID = m.Channel
	}
	return Message{
		ChannelID:   channelID,
		GuildName:   m.Channel,
		ChannelName: m.Channel,
		AuthorIsBot: tc.isBotAuthor(m.User.Name),
		Author:      m.User.Name,
		Text:        m.Message,
		Ref:         Ref{Channel: m.Channel, ID: m.ID},
	}
}

func (tc *TwitchClient) isBotAuthor(login string) bool {
	if login == "" {
		return false
	}
	if login == tc.username {
		return true
	}
	_, ok := tc.ignored[login]
	return ok
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
