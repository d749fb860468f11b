// Package oauth keeps the chat bot's Twitch user token fresh. It performs jittered
// checks and refreshes through the OAuth2 refresh_token grant when the expiry falls
// within a configured window, handing each new token to a callback.
package oauth

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/twitch"

	"github.com/onnwee/hardlyknowher/telemetry"
)

// ErrNoRefreshToken is returned when there is nothing to refresh with.
var ErrNoRefreshToken = errors.New("no refresh token")

// RefreshFunc receives every refreshed token, e.g. to update the IRC client and token file.
type RefreshFunc func(ctx context.Context, tok *oauth2.Token) error

// Refresher holds the current token and refreshes it on demand.
type Refresher struct {
	conf      *oauth2.Config
	onRefresh RefreshFunc

	mu    sync.Mutex
	token *oauth2.Token
}

// NewTwitchRefresher builds a Refresher against the Twitch OAuth endpoint. The current
// access token's expiry is unknown, so the first check refreshes it.
func NewTwitchRefresher(clientID, clientSecret, refreshToken string, onRefresh RefreshFunc) *Refresher {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     twitch.Endpoint,
	}
	return NewRefresher(conf, &oauth2.Token{RefreshToken: refreshToken}, onRefresh)
}

// NewRefresher builds a Refresher for any OAuth2 provider.
func NewRefresher(conf *oauth2.Config, tok *oauth2.Token, onRefresh RefreshFunc) *Refresher {
	if tok == nil {
		tok = &oauth2.Token{}
	}
	return &Refresher{conf: conf, token: tok, onRefresh: onRefresh}
}

// Token returns a copy of the current token.
func (r *Refresher) Token() oauth2.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.token
}

// RefreshOnce refreshes the token if it has no known expiry or expires within window.
// It reports whether a refresh happened.
func (r *Refresher) RefreshOnce(ctx context.Context, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.token
	if cur.RefreshToken == "" {
		return false, ErrNoRefreshToken
	}
	if cur.AccessToken != "" && !cur.Expiry.IsZero() && time.Until(cur.Expiry) > window {
		return false, nil
	}

	ctx2, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	// A token without an access token is always refreshed by the source.
	nt, err := r.conf.TokenSource(ctx2, &oauth2.Token{RefreshToken: cur.RefreshToken}).Token()
	if err != nil {
		telemetry.Inc(telemetry.TokenRefreshFail)
		return false, err
	}
	if nt.RefreshToken == "" {
		nt.RefreshToken = cur.RefreshToken
	}
	if r.onRefresh != nil {
		if err := r.onRefresh(ctx, nt); err != nil {
			telemetry.Inc(telemetry.TokenRefreshFail)
			return false, err
		}
	}
	r.token = nt
	telemetry.Inc(telemetry.TokenRefreshes)
	return true, nil
}

// Run checks the token every interval (with jitter) until ctx is cancelled.
// interval: how often to wake up and check.
// window: refresh when remaining lifetime <= window.
func (r *Refresher) Run(ctx context.Context, interval, window time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	logger := slog.Default().With(slog.String("component", "oauth_refresh"))

	// The first check runs immediately; the stored access token's lifetime is unknown.
	next := time.Duration(0)
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(next):
		}
		refreshed, err := r.RefreshOnce(ctx, window)
		switch {
		case err != nil && ctx.Err() == nil:
			logger.Warn("token refresh failed", slog.Any("err", err))
		case refreshed:
			tok := r.Token()
			logger.Info("token refreshed", slog.Time("expires_at", tok.Expiry))
		}

		// Add per-iteration jitter (±20% of interval) for scheduling diversity.
		jitterRange := int64(interval / 5)
		next = interval
		if jitterRange > 0 {
			//nolint:gosec // G404: math/rand is sufficient for scheduling jitter, not used for security
			next += time.Duration(rand.Int63n(jitterRange*2) - jitterRange)
		}
	}
}
