package main

import (
	"EnergyAssistant/internal/app/assistant"
	"EnergyAssistant/internal/app/web"
	"EnergyAssistant/internal/config"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		// без конфигурации не стартуем и в API не ходим
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.DebugMode)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	//сброс буфера логгера
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, assistant.NewBackend(cfg, sugar), sugar); err != nil {
		sugar.Errorw("Ассистент остановлен с ошибкой", "error", err)
		// os.Exit не выполняет defer
		_ = logger.Sync()
		os.Exit(1)
	}
}

// run поднимает web сервер и держит его до отмены ctx.
func run(ctx context.Context, cfg *config.Config, backend assistant.Backend, sugar *zap.SugaredLogger) error {
	app, err := assistant.New(ctx, cfg, backend, sugar)
	if err != nil {
		return fmt.Errorf("start assistant: %w", err)
	}

	srv := web.New(web.Config{
		BindAddr:  cfg.BindAddr,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	}, app, sugar)

	sugar.Infow("Starting app", "DebugMode", cfg.DebugMode, "model", app.Model, "addr", cfg.BindAddr)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start web server on %s: %w", cfg.BindAddr, err)
	}

	<-ctx.Done()
	if err := srv.Stop(context.WithoutCancel(ctx)); err != nil {
		sugar.Warnw("Ошибка остановки web сервера", "error", err)
	}
	sugar.Infow("Stopped")
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
