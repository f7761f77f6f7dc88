package ai

import (
	"EnergyAssistant/internal/conversation"
	"context"
)

// StubClient заглушка, которая не делает реальных запросов
type StubClient struct {
	Models []string
}

func NewStubClient(models ...string) *StubClient { return &StubClient{Models: models} }

// Complete отвечает эхом на последнюю реплику пользователя.
func (c *StubClient) Complete(_ context.Context, _ string, history []conversation.Message) (conversation.Message, error) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role() == conversation.RoleUser {
			return conversation.Assistant("запрос получен: " + history[i].Content()), nil
		}
	}
	return conversation.Assistant("запрос получен"), nil
}

func (c *StubClient) ListModels(_ context.Context) ([]string, error) {
	return append([]string(nil), c.Models...), nil
}
