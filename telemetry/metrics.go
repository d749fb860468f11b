// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once      sync.Once
	gaugeOnce sync.Once

	// Counters
	MessagesScanned  prometheus.Counter
	MessagesIgnored  prometheus.Counter
	JokesSent        prometheus.Counter
	JokesSuppressed  prometheus.Counter
	SendFailures     *prometheus.CounterVec // label: class
	CommandsHandled  *prometheus.CounterVec // label: command
	JokeLogFailures  prometheus.Counter
	TokenRefreshes   prometheus.Counter
	TokenRefreshFail prometheus.Counter

	// Histograms (seconds)
	ScanDuration prometheus.Observer

	// Gauges
	ChatConnectedGauge prometheus.Gauge // 1=connected,0=disconnected
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MessagesScanned = promauto.NewCounter(prometheus.CounterOpts{Name: "hkh_messages_scanned_total", Help: "Number of chat messages scanned for -er words"})
		MessagesIgnored = promauto.NewCounter(prometheus.CounterOpts{Name: "hkh_messages_ignored_total", Help: "Number of chat messages skipped (bot authors)"})
		JokesSent = promauto.NewCounter(prometheus.CounterOpts{Name: "hkh_jokes_sent_total", Help: "Number of joke replies handed to the chat transport"})
		JokesSuppressed = promauto.NewCounter(prometheus.CounterOpts{Name: "hkh_jokes_suppressed_total", Help: "Number of qualifying words skipped because of an active cooldown"})
		SendFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "hkh_send_failures_total", Help: "Reply send failures by class"}, []string{"class"})
		CommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{Name: "hkh_commands_total", Help: "Chat commands handled by name"}, []string{"command"})
		JokeLogFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "hkh_joke_log_failures_total", Help: "Number of jokes that could not be persisted"})
		TokenRefreshes = promauto.NewCounter(prometheus.CounterOpts{Name: "hkh_token_refreshes_total", Help: "Number of successful chat token refreshes"})
		TokenRefreshFail = promauto.NewCounter(prometheus.CounterOpts{Name: "hkh_token_refresh_failures_total", Help: "Number of failed chat token refreshes"})
		ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "hkh_scan_duration_seconds", Help: "Time spent scanning one message", Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01}})
		ChatConnectedGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "hkh_chat_connected", Help: "Chat transport connected=1 disconnected=0"})
	})
}

// RegisterActiveCooldowns exposes fn as the active cooldown gauge. Only the first call registers.
func RegisterActiveCooldowns(fn func() int) {
	gaugeOnce.Do(func() {
		promauto.NewGaugeFunc(prometheus.GaugeOpts{Name: "hkh_active_cooldowns", Help: "Current number of unexpired (channel, word) cooldowns"}, func() float64 {
			return float64(fn())
		})
	})
}

// SetChatConnected records transport connectivity.
func SetChatConnected(connected bool) {
	if ChatConnectedGauge == nil {
		return
	}
	if connected {
		ChatConnectedGauge.Set(1)
	} else {
		ChatConnectedGauge.Set(0)
	}
}

// Inc increments c if it has been initialised.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// IncLabel increments the labelled series of vec if it has been initialised.
func IncLabel(vec *prometheus.CounterVec, label string) {
	if vec != nil {
		vec.WithLabelValues(label).Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
