// Package words decides whether a chat token is worth a "Hardly know her!" joke.
//
// A token qualifies when, after trimming punctuation and lowercasing, it is either
// in the curated lexicon or it matches one of the suffix rules while not being one
// of the known single-syllable words (her, for, were, ...). The lexicon and the
// rule table are plain data and can be extended without touching the algorithm.
package words

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Punchline is appended to the capitalized word when replying.
const Punchline = "? Hardly know her!"

// MinPatternLength is the shortest token (in characters) evaluated by the suffix rules.
// Shorter tokens only qualify through the lexicon.
const MinPatternLength = 4

// trimCutset is stripped from both ends of a token before matching.
const trimCutset = ".,!?;:\"'"

//go:embed lexicon.txt
var lexiconData string

// SingleSyllable lists words that match a suffix rule but are one syllable.
var SingleSyllable = []string{"her", "per", "for", "or", "are", "ere", "err", "our", "cur", "fur", "sir", "were"}

// Rule is a suffix heuristic applied to tokens missing from the lexicon.
type Rule struct {
	Pattern *regexp.Regexp
	Exclude map[string]struct{}
}

// Matches reports whether word satisfies the pattern and is not excluded.
func (r Rule) Matches(word string) bool {
	if !r.Pattern.MatchString(word) {
		return false
	}
	_, excluded := r.Exclude[word]
	return !excluded
}

// DefaultRules returns the built-in rule table, in evaluation order.
func DefaultRules() []Rule {
	exclude := toSet(SingleSyllable)
	patterns := []string{
		`^.*[aeiou].*er$`,
		`^.*[aeiou].*or$`,
		`^.*[aeiou].*ar$`,
		`^.*cker$`,
		`^.*nner$`,
		`^.*pper$`,
		`^.*tter$`,
		`^.*mmer$`,
		`^.*sser$`,
	}
	rules := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, Rule{Pattern: regexp.MustCompile(p), Exclude: exclude})
	}
	return rules
}

// Classifier holds an immutable lexicon and rule table.
type Classifier struct {
	lexicon map[string]struct{}
	rules   []Rule
}

// New builds a classifier from explicit data. Lexicon entries are normalized.
func New(lexicon []string, rules []Rule) *Classifier {
	c := &Classifier{lexicon: make(map[string]struct{}, len(lexicon)), rules: rules}
	for _, w := range lexicon {
		if n := Normalize(w); n != "" {
			c.lexicon[n] = struct{}{}
		}
	}
	return c
}

var defaultClassifier = sync.OnceValue(func() *Classifier {
	words, err := ParseLexicon(strings.NewReader(lexiconData))
	if err != nil {
		panic(fmt.Sprintf("words: embedded lexicon: %v", err))
	}
	return New(words, DefaultRules())
})

// Default returns the classifier built from the embedded lexicon and DefaultRules.
func Default() *Classifier { return defaultClassifier() }

// WithExtraWords returns a copy of c whose lexicon also contains extra.
func (c *Classifier) WithExtraWords(extra ...string) *Classifier {
	out := &Classifier{lexicon: make(map[string]struct{}, len(c.lexicon)+len(extra)), rules: c.rules}
	for w := range c.lexicon {
		out.lexicon[w] = struct{}{}
	}
	for _, w := range extra {
		if n := Normalize(w); n != "" {
			out.lexicon[n] = struct{}{}
		}
	}
	return out
}

// LexiconSize returns the number of distinct lexicon entries.
func (c *Classifier) LexiconSize() int { return len(c.lexicon) }

// InLexicon reports whether the normalized token is a curated entry.
func (c *Classifier) InLexicon(token string) bool {
	_, ok := c.lexicon[Normalize(token)]
	return ok
}

// ShouldJoke reports whether the bot should joke about token.
func (c *Classifier) ShouldJoke(token string) bool {
	word := Normalize(token)
	if word == "" {
		return false
	}
	if _, ok := c.lexicon[word]; ok {
		return true
	}
	if utf8.RuneCountInString(word) < MinPatternLength {
		return false
	}
	for _, r := range c.rules {
		if r.Matches(word) {
			return true
		}
	}
	return false
}

// Normalize trims surrounding punctuation and lowercases the token.
func Normalize(token string) string {
	return strings.ToLower(strings.Trim(token, trimCutset))
}

// Capitalize upper-cases the first character of word.
func Capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(r)) + word[size:]
}

// Reply renders the joke for an already normalized word.
func Reply(word string) string {
	return Capitalize(word) + Punchline
}

// ParseLexicon reads one word per line, skipping blanks and # comments.
func ParseLexicon(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return out, nil
}

// LoadLexiconFile reads an operator-supplied word list.
func LoadLexiconFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("open lexicon %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return ParseLexicon(f)
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
