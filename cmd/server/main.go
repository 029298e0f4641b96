// Command server runs the Telegram gateway: the webhook HTTP server that
// validates and enqueues inbound messages, and the queue consumer that
// invokes the conversational agent and replies.
//
// Startup order matters: configuration and the bot token are resolved before
// anything listens, so a missing credential fails loudly at boot instead of
// on the first webhook.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-telegram-gateway/internal/agent"
	"github.com/tbourn/go-telegram-gateway/internal/bootstrap"
	"github.com/tbourn/go-telegram-gateway/internal/config"
	httpapi "github.com/tbourn/go-telegram-gateway/internal/http"
	"github.com/tbourn/go-telegram-gateway/internal/observability"
	"github.com/tbourn/go-telegram-gateway/internal/queue"
	"github.com/tbourn/go-telegram-gateway/internal/repo"
	"github.com/tbourn/go-telegram-gateway/internal/secrets"
	"github.com/tbourn/go-telegram-gateway/internal/sysutil"
	"github.com/tbourn/go-telegram-gateway/internal/telegram"
	"github.com/tbourn/go-telegram-gateway/internal/worker"
)

// version is stamped at build time via -ldflags.
var version = "dev"

const shutdownGrace = 10 * time.Second

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Logger = log.With().Str("env", cfg.Environment).Logger()
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	var awsOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		awsOpts = append(awsOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("aws config load failed")
	}

	// Bot token, fetched once and cached for the process lifetime.
	tokens := secrets.NewTokenCache(secrets.NewParameterStore(ssm.NewFromConfig(awsCfg)), cfg.Telegram.TokenParam)
	token, err := tokens.Token(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("param", cfg.Telegram.TokenParam).Msg("bot token unavailable")
	}

	var tgOpts []telegram.ClientOption
	if cfg.Telegram.APIBase != "" {
		tgOpts = append(tgOpts, telegram.WithAPIBase(cfg.Telegram.APIBase))
	}
	tg, err := telegram.NewClient(token, tgOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram client init failed")
	}

	q := queue.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.Queue.URL,
		queue.WithWaitTime(cfg.Queue.WaitTime),
		queue.WithVisibilityTimeout(cfg.Queue.VisibilityTimeout))

	invoker := agent.NewInvoker(
		agent.NewBedrockBackend(bedrockagentruntime.NewFromConfig(awsCfg)),
		cfg.Agent.ID, cfg.Agent.AliasID,
		agent.WithTimeout(cfg.Agent.Timeout))

	// Dedupe store is advisory; a broken database degrades to at-least-once
	// replies, never to a dead gateway.
	var dedupe worker.DedupeStore
	if cfg.DedupeDBPath != "" {
		db, err := repo.OpenSQLite(cfg.DedupeDBPath)
		if err == nil {
			err = repo.AutoMigrate(db)
		}
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.DedupeDBPath).Msg("dedupe store unavailable; duplicate replies possible")
		} else {
			if n, err := repo.PruneProcessed(ctx, db, cfg.DedupeTTL); err == nil && n > 0 {
				log.Info().Int64("pruned", n).Msg("expired processed records removed")
			}
			dedupe = worker.GormDedupe{DB: db}
		}
	}

	// One-time webhook registration when a public URL is configured.
	if cfg.Telegram.WebhookPublicURL != "" {
		res := bootstrap.Run(ctx, tg, bootstrap.LogReporter{}, bootstrap.Request{
			Type:       bootstrap.Create,
			WebhookURL: cfg.Telegram.WebhookPublicURL,
		})
		if res.Status == bootstrap.StatusFailed {
			log.Fatal().Str("reason", res.Reason).Msg("webhook registration failed")
		}
	}

	// Egress path: queue consumer.
	consumer := worker.NewConsumer(q, worker.NewDispatcher(invoker, tg, dedupe),
		worker.WithBatchSize(int32(cfg.Queue.BatchSize)))
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("consumer stopped")
		}
	}()

	// Ingress path: webhook HTTP server.
	r := gin.New()
	httpapi.RegisterRoutes(r, q, tg, telegram.DefaultOriginPolicy(), cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown failed")
	}
	<-consumerDone
	log.Info().Msg("gateway stopped")
}
