package ai

import (
	"EnergyAssistant/internal/conversation"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

// ErrEmptyResponse — провайдер вернул ответ без вариантов.
var ErrEmptyResponse = errors.New("model returned no choices")

// NewOpenAIClient создаёт клиента OpenAI-совместимого API (Groq и т.п.).
// Таймаут и повторы остаются на стороне SDK.
func NewOpenAIClient(apiKey, baseURL string, timeout time.Duration, opts ...option.RequestOption) openai.Client {
	base := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		base = append(base, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		base = append(base, option.WithRequestTimeout(timeout))
	}
	return openai.NewClient(append(base, opts...)...)
}

// ChatClient отправляет диалог в Chat Completions API.
type ChatClient struct {
	client *openai.Client
	logger *zap.SugaredLogger
}

var (
	_ Client      = (*ChatClient)(nil)
	_ ModelLister = (*ChatClient)(nil)
)

func NewChatClient(client *openai.Client, logger *zap.SugaredLogger) *ChatClient {
	return &ChatClient{client: client, logger: logger}
}

func (c *ChatClient) Complete(ctx context.Context, model string, history []conversation.Message) (conversation.Message, error) {
	if c.client == nil {
		return conversation.Message{}, errors.New("nil openai client")
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toParams(history),
	}

	start := time.Now()
	c.logger.Debugw("Запрос в модель...", "model", model, "messages", len(history))
	resp, err := c.client.Chat.Completions.New(ctx, params)
	dur := time.Since(start)
	if err != nil {
		c.logger.Errorw("Ошибка ответа модели", "model", model, "duration", dur.String(), "error", err)
		return conversation.Message{}, err
	}
	c.logger.Infow("Ответ модели получен", "model", model, "duration", dur.String())

	if len(resp.Choices) == 0 {
		return conversation.Message{}, ErrEmptyResponse
	}
	msg := resp.Choices[0].Message
	content := msg.Content
	if content == "" && msg.Refusal != "" {
		content = msg.Refusal
	}
	return conversation.Assistant(content), nil
}

// ListModels возвращает модели, которые объявляет провайдер.
func (c *ChatClient) ListModels(ctx context.Context) ([]string, error) {
	if c.client == nil {
		return nil, errors.New("nil openai client")
	}
	page, err := c.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func toParams(history []conversation.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		switch m.Role() {
		case conversation.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content()))
		case conversation.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content()))
		default:
			out = append(out, openai.UserMessage(m.Content()))
		}
	}
	return out
}
