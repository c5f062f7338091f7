package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lectorium/ai"
	"lectorium/bot"
	"lectorium/core/buildinfo"
	"lectorium/core/config"
	"lectorium/core/database"
	"lectorium/core/logger"
	"lectorium/core/telegram"
	"lectorium/flow"
	"lectorium/storage"
	"lectorium/web"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("lectorium: %v", err)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Profile: cfg.Logging.Profile,
	})
	logger.L.Info("starting",
		slog.String("event", "app.start"),
		slog.String("build", buildinfo.Summary()),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		return err
	}

	store := storage.NewLectureStore(db)
	machine := flow.NewMachine(store, flow.NewSessions(0))

	var assistant bot.Assistant
	if cfg.AI.APIKey != "" {
		client, err := ai.New(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			return err
		}
		assistant = client
	} else {
		logger.AI.Warn("chat passthrough disabled", slog.String("event", "ai.disabled"))
	}

	app := bot.New(cfg, store, machine, assistant)

	webSrv := web.New(cfg.Web, cfg.Logging.Profile, store, app)
	webErr := make(chan error, 1)
	go func() {
		webErr <- webSrv.Run(ctx)
	}()

	startedAt := time.Now()
	runErr := telegram.Run(ctx, telegram.Options{
		Token:                  cfg.Telegram.Token,
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: telegram.WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
		Middlewares: app.Middlewares(),
		Routes:      app.Routes(),
		OnStart:     app.OnStart,
	})
	cancel()

	if err := <-webErr; err != nil && runErr == nil {
		runErr = err
	}

	logger.L.Info("stopped",
		slog.String("event", "app.stop"),
		slog.Duration("uptime", logger.RoundMS(time.Since(startedAt))),
	)
	return runErr
}
