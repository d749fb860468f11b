// Command hardlyknowher is the "X? Hardly know her!" Twitch chat bot.
// It:
//   - Loads configuration and initializes structured logging.
//   - Optionally connects to Postgres and runs migrations for the joke log.
//   - Builds the word classifier, cooldown tracker and message scanner, then
//     connects to Twitch IRC and replies to qualifying -er words.
//   - Keeps the chat token fresh when refresh credentials are configured.
//   - Exposes an HTTP server with /healthz, /readyz, /metrics, /preview and /stats.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"

	"github.com/joho/godotenv"
	"github.com/onnwee/hardlyknowher/chat"
	"github.com/onnwee/hardlyknowher/config"
	"github.com/onnwee/hardlyknowher/cooldown"
	"github.com/onnwee/hardlyknowher/db"
	"github.com/onnwee/hardlyknowher/oauth"
	"github.com/onnwee/hardlyknowher/server"
	"github.com/onnwee/hardlyknowher/telemetry"
	"github.com/onnwee/hardlyknowher/words"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		// unknown level -> keep info but note once using temporary logger
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", map[bool]string{true: "json", false: "text"}[format == "json"]))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateChatReady(); err != nil {
		slog.Error("chat not configured", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("hardlyknowher", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional joke log
	var (
		database *sql.DB
		store    *db.JokeStore
	)
	if cfg.DBDsn != "" {
		database, err = db.Connect(ctx, cfg.DBDsn)
		if err != nil {
			slog.Error("failed to open db", slog.Any("err", err))
			os.Exit(1)
		}
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
		// Versioned migrations first; idempotent statements as a fallback.
		slog.Info("running database migrations", slog.String("component", "db_migrate"))
		if err := db.RunMigrations(database); err != nil {
			slog.Warn("versioned migrations failed, attempting fallback to embedded SQL",
				slog.Any("err", err),
				slog.String("component", "db_migrate"))
			if err := db.Migrate(ctx, database); err != nil {
				slog.Error("failed to migrate db (both versioned and embedded SQL failed)", slog.Any("err", err))
				os.Exit(1)
			}
		} else if v, dirty, err := db.GetMigrationVersion(database); err == nil {
			slog.Info("database schema ready", slog.Uint64("version", uint64(v)), slog.Bool("dirty", dirty), slog.String("component", "db_migrate"))
		}
		store = &db.JokeStore{DB: database}
	} else {
		slog.Info("DB_DSN not set; joke log disabled")
	}

	// Classifier, optionally extended with operator words
	classifier := words.Default()
	if cfg.LexiconExtraFile != "" {
		extra, err := words.LoadLexiconFile(cfg.LexiconExtraFile)
		if err != nil {
			slog.Error("failed to load extra lexicon", slog.Any("err", err))
			os.Exit(1)
		}
		classifier = classifier.WithExtraWords(extra...)
	}
	slog.Info("lexicon loaded", slog.Int("words", classifier.LexiconSize()))

	tracker := cooldown.New(cfg.JokeCooldown, clockwork.NewRealClock())
	go tracker.Run(ctx, cfg.CooldownSweepInterval)
	telemetry.RegisterActiveCooldowns(tracker.Active)
	scanner := chat.NewScanner(classifier, tracker)

	twitchClient := chat.NewTwitchClient(chat.TwitchConfig{
		Username:     cfg.TwitchBotUsername,
		Token:        cfg.TwitchOAuthToken,
		Channels:     cfg.TwitchChannels,
		IgnoredUsers: cfg.IgnoredUsers,
	})
	opts := chat.Options{CommandPrefix: cfg.CommandPrefix, Presence: twitchClient}
	if store != nil {
		opts.Jokes = store
	}
	bot := chat.NewBot(scanner, twitchClient, opts)
	twitchClient.Attach(bot)

	// Chat token refresher
	if cfg.RefreshEnabled() {
		refresher := oauth.NewTwitchRefresher(cfg.TwitchClientID, cfg.TwitchClientSecret, cfg.TwitchRefreshToken,
			func(_ context.Context, tok *oauth2.Token) error {
				ircToken := config.NormalizeIRCToken(tok.AccessToken)
				twitchClient.SetToken(ircToken)
				return config.WriteTokenFile(cfg.TokenFile, ircToken)
			})
		go refresher.Run(ctx, cfg.TokenRefreshInterval, cfg.TokenRefreshWindow)
	} else {
		slog.Info("token refresh disabled (TWITCH_CLIENT_ID, TWITCH_CLIENT_SECRET, TWITCH_REFRESH_TOKEN not all set)")
	}

	// Enable pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	// HTTP server (health/metrics/preview/stats)
	var ranker server.WordRanker
	if store != nil {
		ranker = store
	}
	handlers := server.NewHandlers(scanner, bot, ranker, twitchClient.Connected)
	go func() {
		if err := server.Start(ctx, server.NewMux(ctx, handlers, cfg.PreviewRateLimit), cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	slog.Info("starting chat bot", slog.Any("channels", cfg.TwitchChannels), slog.Duration("cooldown", tracker.Window()))
	if err := twitchClient.Run(ctx); err != nil {
		slog.Error("chat connection failed", slog.Any("err", err))
		stop()
		os.Exit(1) //nolint:gocritic // exitAfterDefer: process is aborting startup
	}
	slog.Info("shutting down")
}
