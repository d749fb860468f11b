package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points TOKEN_FILE at an empty temp dir so a developer's token.txt never leaks into tests.
func isolate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "token.txt")
	t.Setenv("TOKEN_FILE", path)
	for _, k := range []string{"TWITCH_CHANNELS", "TWITCH_CHANNEL", "TWITCH_BOT_USERNAME", "TWITCH_OAUTH_TOKEN",
		"JOKE_COOLDOWN_SECONDS", "COOLDOWN_SWEEP_INTERVAL", "COMMAND_PREFIX", "IGNORE_USERS", "HTTP_ADDR",
		"TOKEN_REFRESH_INTERVAL", "TOKEN_REFRESH_WINDOW", "DB_DSN", "TWITCH_CLIENT_ID", "TWITCH_CLIENT_SECRET",
		"TWITCH_REFRESH_TOKEN", "LEXICON_EXTRA_FILE", "PREVIEW_RATE_LIMIT"} {
		t.Setenv(k, "")
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.JokeCooldown != 30*time.Second {
		t.Errorf("JokeCooldown = %v, want 30s", cfg.JokeCooldown)
	}
	if cfg.CooldownSweepInterval != 10*time.Second {
		t.Errorf("CooldownSweepInterval = %v, want 10s", cfg.CooldownSweepInterval)
	}
	if cfg.CommandPrefix != "!" {
		t.Errorf("CommandPrefix = %q, want !", cfg.CommandPrefix)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.PreviewRateLimit != 30 {
		t.Errorf("PreviewRateLimit = %d, want 30", cfg.PreviewRateLimit)
	}
	if cfg.DBDsn != "" {
		t.Errorf("DBDsn should default to empty (joke log disabled), got %q", cfg.DBDsn)
	}
	if cfg.RefreshEnabled() {
		t.Error("refresh should be disabled without credentials")
	}
}

func TestLoadTokenFromFile(t *testing.T) {
	path := isolate(t)
	if err := os.WriteFile(path, []byte("  abc123\n"), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}
	t.Setenv("TWITCH_OAUTH_TOKEN", "from-env")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.TwitchOAuthToken != "oauth:abc123" {
		t.Errorf("token = %q, want oauth:abc123", cfg.TwitchOAuthToken)
	}
}

func TestLoadTokenEnvFallback(t *testing.T) {
	isolate(t)
	t.Setenv("TWITCH_OAUTH_TOKEN", "oauth:envtoken")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.TwitchOAuthToken != "oauth:envtoken" {
		t.Errorf("token = %q", cfg.TwitchOAuthToken)
	}
}

func TestLoadEmptyTokenFileFails(t *testing.T) {
	path := isolate(t)
	if err := os.WriteFile(path, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}
	if _, err := Load(); err == nil {
		t.Error("expected error for empty token file")
	}
}

func TestLoadOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("JOKE_COOLDOWN_SECONDS", "45")
	t.Setenv("COOLDOWN_SWEEP_INTERVAL", "2s")
	t.Setenv("TWITCH_CHANNELS", "#Alpha, beta ,,")
	t.Setenv("IGNORE_USERS", "Nightbot,StreamElements")
	t.Setenv("COMMAND_PREFIX", "?")
	t.Setenv("PREVIEW_RATE_LIMIT", "0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.JokeCooldown != 45*time.Second {
		t.Errorf("JokeCooldown = %v", cfg.JokeCooldown)
	}
	if cfg.CooldownSweepInterval != 2*time.Second {
		t.Errorf("CooldownSweepInterval = %v", cfg.CooldownSweepInterval)
	}
	if len(cfg.TwitchChannels) != 2 || cfg.TwitchChannels[0] != "alpha" || cfg.TwitchChannels[1] != "beta" {
		t.Errorf("TwitchChannels = %v", cfg.TwitchChannels)
	}
	if len(cfg.IgnoredUsers) != 2 || cfg.IgnoredUsers[0] != "nightbot" {
		t.Errorf("IgnoredUsers = %v", cfg.IgnoredUsers)
	}
	if cfg.CommandPrefix != "?" {
		t.Errorf("CommandPrefix = %q", cfg.CommandPrefix)
	}
	if cfg.PreviewRateLimit != 0 {
		t.Errorf("PreviewRateLimit = %d, want 0 (disabled)", cfg.PreviewRateLimit)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := map[string]string{
		"JOKE_COOLDOWN_SECONDS":   "0",
		"COOLDOWN_SWEEP_INTERVAL": "soon",
		"TOKEN_REFRESH_WINDOW":    "-1m",
		"PREVIEW_RATE_LIMIT":      "-5",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			isolate(t)
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", key, val)
			}
		})
	}
}

func TestValidateChatReady(t *testing.T) {
	isolate(t)
	t.Setenv("TWITCH_CHANNEL", "chan")
	t.Setenv("TWITCH_BOT_USERNAME", "Bot")
	t.Setenv("TWITCH_OAUTH_TOKEN", "token")
	cfg, _ := Load()
	if err := cfg.ValidateChatReady(); err != nil {
		t.Errorf("expected valid chat config, got %v", err)
	}
	if cfg.TwitchBotUsername != "bot" {
		t.Errorf("bot username should be lowercased, got %q", cfg.TwitchBotUsername)
	}

	t.Setenv("TWITCH_CHANNEL", "")
	cfg, _ = Load()
	if err := cfg.ValidateChatReady(); err == nil {
		t.Errorf("expected error when missing channel")
	}
}

func TestWriteTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tok")
	if err := WriteTokenFile(path, "fresh"); err != nil {
		t.Fatalf("WriteTokenFile: %v", err)
	}
	got, err := ReadTokenFile(path)
	if err != nil {
		t.Fatalf("ReadTokenFile: %v", err)
	}
	if got != "oauth:fresh" {
		t.Errorf("got %q", got)
	}
}
