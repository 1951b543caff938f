package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sohamkundu27/AITelehealth/internal/config"
	"github.com/sohamkundu27/AITelehealth/internal/correlate"
	"github.com/sohamkundu27/AITelehealth/internal/debounce"
	"github.com/sohamkundu27/AITelehealth/internal/domain"
	"github.com/sohamkundu27/AITelehealth/internal/notify"
	"github.com/sohamkundu27/AITelehealth/internal/safety"
	"github.com/sohamkundu27/AITelehealth/internal/server"
	"github.com/sohamkundu27/AITelehealth/internal/session"
	"github.com/sohamkundu27/AITelehealth/internal/store/memory"
	"github.com/sohamkundu27/AITelehealth/internal/store/postgres"
	redisstore "github.com/sohamkundu27/AITelehealth/internal/store/redis"
	"github.com/sohamkundu27/AITelehealth/internal/visit"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

// clarificationPublisher routes correlator signals onto the per-session
// Redis channel the WebSocket hub subscribes to.
type clarificationPublisher struct {
	pubsub *redisstore.PubSub
}

func (p *clarificationPublisher) Publish(ctx context.Context, sessionID string, payload []byte) error {
	return p.pubsub.Publish(ctx, redisstore.ClarificationChannel(sessionID), payload)
}

func run() error {
	initLogging()

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Visit record repository: in-memory by default, Postgres when configured.
	var records domain.VisitRecordRepository = memory.NewRecordStore()
	if cfg.Database.Enabled() {
		if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
			return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
		}
		store, pgErr := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
		if pgErr != nil {
			return pgErr
		}
		defer store.Close()
		records = store.Records()
		log.Info().Msg("postgres visit record archive enabled")
	}

	// Optional Redis fan-out for clarification signals.
	var pubsub *redisstore.PubSub
	correlatorOpts := []correlate.Option{}
	if cfg.Redis.Enabled() {
		pubsub, err = redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer pubsub.Close()
		correlatorOpts = append(correlatorOpts, correlate.WithPublisher(&clarificationPublisher{pubsub: pubsub}))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis clarification fan-out enabled")
	}

	// Session pipeline.
	sessions := session.NewStore()
	correlator := correlate.New(correlate.Config{
		AttributionWindow: cfg.Correlation.AttributionWindow,
		TriggerWindow:     cfg.Correlation.TriggerWindow,
		ClarificationTTL:  cfg.Correlation.ClarificationTTL,
	}, sessions, correlatorOpts...)
	debouncer := debounce.New(cfg.Correlation.DebounceWindow)

	// Safety evaluator: rules always, oracle lookups when a URL is configured.
	var oracle safety.Oracle
	if cfg.Oracle.BaseURL != "" {
		oracle = safety.NewHTTPOracle(cfg.Oracle.BaseURL, cfg.Oracle.Timeout)
		log.Info().Str("url", cfg.Oracle.BaseURL).Msg("interaction oracle enabled")
	}
	evaluator := safety.NewEvaluator(oracle, cfg.Oracle.Timeout)

	lifecycleOpts := []visit.Option{}
	if cfg.Slack.Enabled() {
		notifier := notify.NewClinicianNotifier(slacklib.New(cfg.Slack.BotToken), cfg.Slack.ClinicianChannel)
		lifecycleOpts = append(lifecycleOpts, visit.WithNotifier(notifier))
		log.Info().Str("channel", cfg.Slack.ClinicianChannel).Msg("slack clinician notifications enabled")
	}

	lifecycle := visit.NewLifecycle(sessions, correlator, debouncer, evaluator, records, lifecycleOpts...)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, lifecycle, records, pubsub)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

// initLogging configures the global zerolog logger from environment, with an
// optional rotating file sink.
func initLogging() {
	level, parseErr := zerolog.ParseLevel(os.Getenv("TELEHEALTH_LOG_LEVEL"))
	if parseErr != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var sink io.Writer = os.Stdout
	if os.Getenv("TELEHEALTH_LOG_FORMAT") == "text" {
		sink = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	if logFile := os.Getenv("TELEHEALTH_LOG_FILE"); logFile != "" {
		sink = io.MultiWriter(sink, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	log.Logger = zerolog.New(sink).With().Timestamp().Logger()
}
