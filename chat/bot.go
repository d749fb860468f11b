package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/hardlyknowher/db"
	"github.com/onnwee/hardlyknowher/telemetry"
)

const (
	tracerName = "hardlyknowher/chat"

	cmdPreview      = "test_er"
	cmdPreviewAlias = "preview"
	cmdStats        = "bot_stats"
	cmdStatsAlias   = "stats"

	noWordsReply = "No -er words detected in that text."
)

// Options configures a Bot. Presence and Jokes may be nil.
type Options struct {
	CommandPrefix string
	Presence      Presence
	Jokes         JokeRecorder
}

// Bot glues a Scanner to a Sender and handles chat commands.
type Bot struct {
	scanner  *Scanner
	sender   Sender
	prefix   string
	presence Presence
	jokes    JokeRecorder
}

// NewBot builds a Bot. An empty CommandPrefix means "!".
func NewBot(scanner *Scanner, sender Sender, opts Options) *Bot {
	prefix := opts.CommandPrefix
	if prefix == "" {
		prefix = "!"
	}
	return &Bot{
		scanner:  scanner,
		sender:   sender,
		prefix:   prefix,
		presence: opts.Presence,
		jokes:    opts.Jokes,
	}
}

// HandleMessage scans one message and replies to at most one word in it.
// Send failures are logged and counted; they never stop later messages.
func (b *Bot) HandleMessage(ctx context.Context, msg Message) {
	if msg.AuthorIsBot {
		telemetry.Inc(telemetry.MessagesIgnored)
		return
	}
	ctx = telemetry.WithCorrelation(ctx, uuid.NewString())

	if name, args, ok := b.parseCommand(msg.Text); ok {
		if b.handleCommand(ctx, msg, name, args) {
			return
		}
	}

	ctx, span := telemetry.StartSpan(ctx, tracerName, "chat.scan",
		telemetry.ChannelAttr(msg.ChannelName),
		attribute.String("chat.channel_id", msg.ChannelID),
	)
	defer span.End()

	telemetry.Inc(telemetry.MessagesScanned)
	var (
		joke  Joke
		found bool
	)
	telemetry.TimeFunc(telemetry.ScanDuration, func() {
		joke, found = b.scanner.Scan(msg.ChannelID, msg.Text)
	})
	if !found {
		telemetry.SetSpanSuccess(span)
		return
	}
	span.SetAttributes(telemetry.WordAttr(joke.Word))

	logger := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "bot"))
	if err := b.sender.Reply(ctx, msg.Ref, joke.Reply); err != nil {
		b.reportSendError(ctx, msg.GuildName, msg.ChannelName, err)
		telemetry.RecordError(span, err)
		return
	}
	telemetry.Inc(telemetry.JokesSent)
	telemetry.SetSpanSuccess(span)
	logger.Info("responded",
		slog.String("word", joke.Word),
		slog.String("guild", msg.GuildName),
		slog.String("channel", msg.ChannelName))

	if b.jokes != nil {
		rec := db.JokeRecord{
			ChannelID:   msg.ChannelID,
			ChannelName: msg.ChannelName,
			Word:        joke.Word,
			Reply:       joke.Reply,
			MessageID:   msg.Ref.ID,
			Author:      msg.Author,
			CreatedAt:   time.Now().UTC(),
		}
		if err := b.jokes.RecordJoke(ctx, rec); err != nil {
			telemetry.Inc(telemetry.JokeLogFailures)
			logger.Warn("joke log write failed", slog.Any("err", err))
		}
	}
}

// HandleNotice logs a Twitch NOTICE that reports a refused message.
func (b *Bot) HandleNotice(ctx context.Context, n Notice) {
	logger := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "bot"))
	class, failed := ClassifyNotice(n.MsgID)
	if !failed {
		logger.Debug("chat notice", slog.String("channel", n.Channel), slog.String("msg_id", n.MsgID), slog.String("text", n.Text))
		return
	}
	err := &SendError{Class: class, Channel: n.Channel, Err: fmt.Errorf("%s: %s", n.MsgID, n.Text)}
	b.reportSendError(ctx, n.Channel, n.Channel, err)
}

func (b *Bot) reportSendError(ctx context.Context, guild, channel string, err error) {
	se := ClassifySendError(channel, err)
	telemetry.IncLabel(telemetry.SendFailures, se.Class.String())
	logger := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "bot"))
	if se.Class == SendClassPermissionDenied {
		logger.Warn("no permission to send message",
			slog.String("guild", guild),
			slog.String("channel", channel),
			slog.Any("err", se.Err))
		return
	}
	logger.Error("failed to send message",
		slog.String("guild", guild),
		slog.String("channel", channel),
		slog.String("class", se.Class.String()),
		slog.Any("err", se.Err))
}

func (b *Bot) parseCommand(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, b.prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(text, b.prefix)
	name, args = rest, ""
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		name, args = rest[:i], rest[i:]
	}
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(name), strings.TrimSpace(args), true
}

// handleCommand reports whether name was a known command. Unknown commands fall
// through to normal scanning.
func (b *Bot) handleCommand(ctx context.Context, msg Message, name, args string) bool {
	var reply string
	switch name {
	case cmdPreview, cmdPreviewAlias:
		if args == "" {
			reply = fmt.Sprintf("Usage: %s%s <text>", b.prefix, cmdPreview)
		} else {
			reply = FormatPreview(b.scanner.Preview(args))
		}
		name = cmdPreview
	case cmdStats, cmdStatsAlias:
		reply = b.Stats(ctx).String()
		name = cmdStats
	default:
		return false
	}
	telemetry.IncLabel(telemetry.CommandsHandled, name)
	if err := b.sender.Reply(ctx, msg.Ref, reply); err != nil {
		b.reportSendError(ctx, msg.GuildName, msg.ChannelName, err)
	}
	return true
}

// FormatPreview renders preview results on a single line.
func FormatPreview(jokes []Joke) string {
	if len(jokes) == 0 {
		return noWordsReply
	}
	parts := make([]string, 0, len(jokes))
	for _, j := range jokes {
		parts = append(parts, j.Word+" → "+j.Reply)
	}
	return "I would respond to these words: " + strings.Join(parts, " | ")
}

// Stats is a snapshot of the bot's reach and activity.
type Stats struct {
	Servers         int   `json:"servers"`
	Members         int   `json:"members"`
	ActiveCooldowns int   `json:"active_cooldowns"`
	JokesTold       int64 `json:"jokes_told"`
}

func (s Stats) String() string {
	return fmt.Sprintf("Dad Joke Bot Stats | Servers: %d | Total Members: %d | Active Cooldowns: %d | Jokes Told: %d",
		s.Servers, s.Members, s.ActiveCooldowns, s.JokesTold)
}

// Stats collects current counts. A failing joke log reports zero jokes.
func (b *Bot) Stats(ctx context.Context) Stats {
	st := Stats{ActiveCooldowns: b.scanner.ActiveCooldowns()}
	if b.presence != nil {
		st.Servers = b.presence.Servers()
		st.Members = b.presence.Members()
	}
	if b.jokes != nil {
		n, err := b.jokes.CountJokes(ctx)
		if err != nil {
			telemetry.LoggerWithCorr(ctx).Warn("count jokes failed", slog.String("component", "bot"), slog.Any("err", err))
		} else {
			st.JokesTold = n
		}
	}
	return st
}
