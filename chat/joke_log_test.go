package chat

import (
	"context"
	"testing"

	"github.com/onnwee/hardlyknowher/db"
	"github.com/onnwee/hardlyknowher/testutil"
)

func TestBotRecordsJokesInPostgres(t *testing.T) {
	database := testutil.SetupTestDB(t)
	store := &db.JokeStore{DB: database}

	s, _ := newTestScanner(t)
	sender := &fakeSender{}
	bot := NewBot(s, sender, Options{Jokes: store})
	ctx := context.Background()

	bot.HandleMessage(ctx, msg("The new computer is amazing"))
	bot.HandleMessage(ctx, msg("computer again"))
	bot.HandleMessage(ctx, msg("a painter"))

	n, err := store.CountJokes(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("jokes logged = %d, want 2", n)
	}
	if got := bot.Stats(ctx).JokesTold; got != 2 {
		t.Errorf("Stats().JokesTold = %d, want 2", got)
	}
}
