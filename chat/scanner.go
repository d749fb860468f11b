package chat

import (
	"strings"

	"github.com/onnwee/hardlyknowher/cooldown"
	"github.com/onnwee/hardlyknowher/telemetry"
	"github.com/onnwee/hardlyknowher/words"
)

// Joke is a word the bot decided to riff on.
type Joke struct {
	Token string // as typed, punctuation included
	Word  string // normalized
	Reply string
}

// Scanner finds the first joke-worthy, not cooling down word in a message.
type Scanner struct {
	classifier *words.Classifier
	tracker    *cooldown.Tracker
}

// NewScanner wires a classifier to a cooldown tracker. A nil classifier uses words.Default().
func NewScanner(classifier *words.Classifier, tracker *cooldown.Tracker) *Scanner {
	if classifier == nil {
		classifier = words.Default()
	}
	return &Scanner{classifier: classifier, tracker: tracker}
}

// Scan walks the whitespace-separated tokens of text in order and returns the first
// one the classifier accepts and the tracker lets fire for channelID. Firing is
// recorded; later tokens are not looked at.
func (s *Scanner) Scan(channelID, text string) (Joke, bool) {
	for _, tok := range strings.Fields(text) {
		if !s.classifier.ShouldJoke(tok) {
			continue
		}
		word := words.Normalize(tok)
		if !s.tracker.TryFire(channelID, word) {
			telemetry.Inc(telemetry.JokesSuppressed)
			continue
		}
		return Joke{Token: tok, Word: word, Reply: words.Reply(word)}, true
	}
	return Joke{}, false
}

// Preview lists every token the classifier would joke about, ignoring cooldowns.
// It never records a firing.
func (s *Scanner) Preview(text string) []Joke {
	var out []Joke
	for _, tok := range strings.Fields(text) {
		if !s.classifier.ShouldJoke(tok) {
			continue
		}
		word := words.Normalize(tok)
		out = append(out, Joke{Token: tok, Word: word, Reply: words.Reply(word)})
	}
	return out
}

// ActiveCooldowns reports the tracker's unexpired entry count.
func (s *Scanner) ActiveCooldowns() int { return s.tracker.Active() }
