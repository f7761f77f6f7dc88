package console

import (
	"EnergyAssistant/internal/service/session"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// LineReader читает строку ввода с подсказкой; *liner.State подходит.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// Console — интерактивный чат в терминале поверх одной сессии.
type Console struct {
	sess     *session.Session
	allowed  []string
	in       LineReader
	renderer Renderer
	out      io.Writer
	logger   *zap.SugaredLogger
}

func New(sess *session.Session, allowed []string, in LineReader, renderer Renderer, out io.Writer, logger *zap.SugaredLogger) *Console {
	return &Console{sess: sess, allowed: allowed, in: in, renderer: renderer, out: out, logger: logger}
}

const helpText = `Commands:
  /history  show what the model currently sees
  /models   list allowed models
  /help     this help
  /quit     exit`

// Run читает ввод до EOF, /quit или отмены ctx. Ошибка модели показывается
// для этого хода и не прерывает чат.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintf(c.out, "Energy Efficiency Building Assistant (model %s). Type /help for commands.\n", c.sess.Model())
	for {
		if err := context.Cause(ctx); err != nil {
			return err
		}
		line, err := c.in.Prompt("> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			if quit := c.command(input); quit {
				return nil
			}
			continue
		}

		c.renderer.Render(c.sess.Transcript(), "Thinking...")
		if _, err := c.sess.Submit(ctx, input); err != nil {
			c.logger.Debugw("turn failed", "error", err)
		}
		c.renderer.Render(c.sess.Transcript(), "")
	}
}

func (c *Console) command(input string) (quit bool) {
	switch strings.ToLower(strings.Fields(input)[0]) {
	case "/quit", "/exit":
		return true
	case "/history":
		for _, m := range c.sess.Messages() {
			fmt.Fprintf(c.out, "[%s] %s\n", m.Role(), m.Content())
		}
	case "/models":
		for _, id := range c.allowed {
			mark := " "
			if id == c.sess.Model() {
				mark = "*"
			}
			fmt.Fprintf(c.out, "%s %s\n", mark, id)
		}
	case "/help":
		fmt.Fprintln(c.out, helpText)
	default:
		fmt.Fprintf(c.out, "unknown command %s, type /help\n", input)
	}
	return false
}
