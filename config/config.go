// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the bot can run locally with only a token file and a channel.
// For required chat credentials, use ValidateChatReady.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultTokenFile is read for the chat token when TOKEN_FILE is unset.
const DefaultTokenFile = "token.txt"

type Config struct {
	// Twitch
	TwitchBotUsername  string
	TwitchChannels     []string
	TwitchOAuthToken   string
	TwitchClientID     string
	TwitchClientSecret string
	TwitchRefreshToken string
	TokenFile          string

	// Jokes
	JokeCooldown          time.Duration
	CooldownSweepInterval time.Duration
	CommandPrefix         string
	IgnoredUsers          []string
	LexiconExtraFile      string

	// Token refresh
	TokenRefreshInterval time.Duration
	TokenRefreshWindow   time.Duration

	// Database (optional joke log)
	DBDsn string

	// HTTP
	HTTPAddr         string
	PreviewRateLimit int // requests per IP per minute on /preview; 0 disables
}

// Load reads environment variables and applies defaults. It doesn't fail if chat creds are missing;
// use ValidateChatReady() before connecting. Missing optional variables disable features (joke log, refresh).
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.TwitchBotUsername = strings.ToLower(strings.TrimSpace(os.Getenv("TWITCH_BOT_USERNAME")))
	channels := splitList(os.Getenv("TWITCH_CHANNELS"))
	if len(channels) == 0 {
		channels = splitList(os.Getenv("TWITCH_CHANNEL"))
	}
	for _, ch := range channels {
		cfg.TwitchChannels = append(cfg.TwitchChannels, strings.ToLower(ch))
	}
	cfg.TwitchClientID = os.Getenv("TWITCH_CLIENT_ID")
	cfg.TwitchClientSecret = os.Getenv("TWITCH_CLIENT_SECRET")
	cfg.TwitchRefreshToken = os.Getenv("TWITCH_REFRESH_TOKEN")

	// Token: local file first, env as fallback
	cfg.TokenFile = os.Getenv("TOKEN_FILE")
	if cfg.TokenFile == "" {
		cfg.TokenFile = DefaultTokenFile
	}
	tok, err := ReadTokenFile(cfg.TokenFile)
	switch {
	case err == nil:
		cfg.TwitchOAuthToken = tok
	case errors.Is(err, os.ErrNotExist):
		cfg.TwitchOAuthToken = NormalizeIRCToken(os.Getenv("TWITCH_OAUTH_TOKEN"))
	default:
		return nil, err
	}

	cfg.JokeCooldown = 30 * time.Second
	if v := os.Getenv("JOKE_COOLDOWN_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid JOKE_COOLDOWN_SECONDS %q: must be a positive integer", v)
		}
		cfg.JokeCooldown = time.Duration(n) * time.Second
	}

	if cfg.CooldownSweepInterval, err = durationEnv("COOLDOWN_SWEEP_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.TokenRefreshInterval, err = durationEnv("TOKEN_REFRESH_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.TokenRefreshWindow, err = durationEnv("TOKEN_REFRESH_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}

	cfg.CommandPrefix = os.Getenv("COMMAND_PREFIX")
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "!"
	}
	for _, u := range splitList(os.Getenv("IGNORE_USERS")) {
		cfg.IgnoredUsers = append(cfg.IgnoredUsers, strings.ToLower(u))
	}
	cfg.LexiconExtraFile = os.Getenv("LEXICON_EXTRA_FILE")

	cfg.DBDsn = os.Getenv("DB_DSN")

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	cfg.PreviewRateLimit = 30
	if v := os.Getenv("PREVIEW_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid PREVIEW_RATE_LIMIT %q: must be a non-negative integer", v)
		}
		cfg.PreviewRateLimit = n
	}

	return cfg, nil
}

// ValidateChatReady checks the fields required to connect to chat.
func (c *Config) ValidateChatReady() error {
	if len(c.TwitchChannels) == 0 || c.TwitchBotUsername == "" || c.TwitchOAuthToken == "" {
		return fmt.Errorf("missing twitch config: require TWITCH_CHANNELS (or TWITCH_CHANNEL), TWITCH_BOT_USERNAME and a token in %s or TWITCH_OAUTH_TOKEN", c.TokenFile)
	}
	return nil
}

// RefreshEnabled reports whether enough credentials exist to refresh the chat token.
func (c *Config) RefreshEnabled() bool {
	return c.TwitchClientID != "" && c.TwitchClientSecret != "" && c.TwitchRefreshToken != ""
}

// ReadTokenFile returns the trimmed token stored at path, prefixed for IRC.
func ReadTokenFile(path string) (string, error) {
	b, err := os.ReadFile(path) //nolint:gosec // G304: token path is operator configuration
	if err != nil {
		return "", fmt.Errorf("read token file %s: %w", path, err)
	}
	tok := NormalizeIRCToken(string(b))
	if tok == "" {
		return "", fmt.Errorf("token file %s is empty", path)
	}
	return tok, nil
}

// WriteTokenFile persists a refreshed token so restarts pick it up.
func WriteTokenFile(path, token string) error {
	tok := NormalizeIRCToken(token)
	if err := os.WriteFile(path, []byte(tok+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file %s: %w", path, err)
	}
	return nil
}

// NormalizeIRCToken trims whitespace and ensures the "oauth:" prefix Twitch IRC expects.
func NormalizeIRCToken(tok string) string {
	tok = strings.TrimSpace(tok)
	if tok == "" || strings.HasPrefix(tok, "oauth:") {
		return tok
	}
	return "oauth:" + tok
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, v)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "#"))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
