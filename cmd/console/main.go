package main

import (
	"EnergyAssistant/internal/app/assistant"
	"EnergyAssistant/internal/app/console"
	"EnergyAssistant/internal/config"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterh/liner"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// lineReader приводит Ctrl+C в liner к обычному завершению ввода.
type lineReader struct {
	state *liner.State
}

func (r lineReader) Prompt(prompt string) (string, error) {
	line, err := r.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	if err == nil && line != "" {
		r.state.AppendHistory(line)
	}
	return line, err
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// в консоли логи только при отладке, чтобы не мешать диалогу
	logger := zap.NewNop()
	if cfg.DebugMode {
		if logger, err = zap.NewDevelopment(); err != nil {
			panic(err)
		}
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	app, err := assistant.New(ctx, cfg, assistant.NewBackend(cfg, sugar), sugar)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	tty := term.IsTerminal(int(os.Stdout.Fd()))
	c := console.New(app.Store.Create(), app.Allowed.Sorted(), lineReader{state: line},
		console.NewTerminalRenderer(os.Stdout, tty), os.Stdout, sugar)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}
}
