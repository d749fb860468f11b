package chat

import (
	"context"

	"github.com/onnwee/hardlyknowher/db"
)

// Ref identifies a delivered message so a reply can be threaded under it.
type Ref struct {
	Channel string
	ID      string
}

// Message is one inbound chat message, independent of the transport.
type Message struct {
	ChannelID   string // cooldown scope
	GuildName   string
	ChannelName string
	AuthorIsBot bool
	Author      string
	Text        string
	Ref         Ref
}

// Notice is a server notice for a channel, such as a refused message.
type Notice struct {
	Channel string
	MsgID   string
	Text    string
}

// Sender delivers a reply to the message identified by ref.
type Sender interface {
	Reply(ctx context.Context, ref Ref, text string) error
}

// Presence reports where the bot is and how many people it can see.
type Presence interface {
	Servers() int
	Members() int
}

// JokeRecorder is the optional joke log.
type JokeRecorder interface {
	RecordJoke(ctx context.Context, j db.JokeRecord) error
	CountJokes(ctx context.Context) (int64, error)
}

// Handler consumes transport events.
type Handler interface {
	HandleMessage(ctx context.Context, msg Message)
	HandleNotice(ctx context.Context, n Notice)
}
