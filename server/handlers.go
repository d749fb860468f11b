package server

import (
	"context"

	"github.com/onnwee/hardlyknowher/chat"
	"github.com/onnwee/hardlyknowher/db"
)

// Previewer lists the words a message would trigger without firing cooldowns.
type Previewer interface {
	Preview(text string) []chat.Joke
}

// StatsSource reports bot-wide counters.
type StatsSource interface {
	Stats(ctx context.Context) chat.Stats
}

// WordRanker returns the most joked-about words from the joke log.
type WordRanker interface {
	TopWords(ctx context.Context, limit int) ([]db.WordCount, error)
	Ping(ctx context.Context) error
}

// Handlers holds dependencies for all HTTP handlers. Store and ChatConnected may be nil.
type Handlers struct {
	previewer     Previewer
	stats         StatsSource
	store         WordRanker
	chatConnected func() bool
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(previewer Previewer, stats StatsSource, store WordRanker, chatConnected func() bool) *Handlers {
	return &Handlers{
		previewer:     previewer,
		stats:         stats,
		store:         store,
		chatConnected: chatConnected,
	}
}
