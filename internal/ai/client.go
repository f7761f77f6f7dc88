package ai

import (
	"EnergyAssistant/internal/conversation"
	"context"
)

// Client интерфейс вызова модели. Все реализации должны быть взаимозаменяемыми.
// history — полный снимок диалога, начиная с системного сообщения.
type Client interface {
	Complete(ctx context.Context, model string, history []conversation.Message) (conversation.Message, error)
}

// ModelLister возвращает идентификаторы моделей, которые объявляет провайдер.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}
