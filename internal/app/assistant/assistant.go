package assistant

import (
	"EnergyAssistant/internal/ai"
	"EnergyAssistant/internal/config"
	"EnergyAssistant/internal/models"
	"EnergyAssistant/internal/service/session"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Assistant — собранное приложение: клиент модели, разрешённые модели и хранилище сессий.
type Assistant struct {
	Client  ai.Client
	Allowed models.Set
	Model   string
	Store   *session.Store
}

// Backend — клиент, который умеет и отвечать, и перечислять модели.
type Backend interface {
	ai.Client
	ai.ModelLister
}

// NewBackend выбирает реализацию клиента по конфигурации.
func NewBackend(cfg *config.Config, logger *zap.SugaredLogger) Backend {
	if cfg.Stub {
		logger.Warnw("Режим заглушки: запросы к API не выполняются")
		return ai.NewStubClient(cfg.Model)
	}
	oc := ai.NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.RequestTimeout)
	return ai.NewChatClient(&oc, logger)
}

// New собирает приложение. Список моделей запрашивается один раз при старте;
// если провайдер недоступен, объявленной считается только модель из конфигурации.
func New(ctx context.Context, cfg *config.Config, backend Backend, logger *zap.SugaredLogger) (*Assistant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	advertised, err := backend.ListModels(ctx)
	if err != nil {
		logger.Warnw("Не удалось получить список моделей, используем модель из конфигурации", "model", cfg.Model, "error", err)
		advertised = []string{cfg.Model}
	}
	allowed := models.Filter(models.NewSet(advertised...), models.NewSet(cfg.ModelDenylist...))

	model, err := models.Select(allowed, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("select model: %w", err)
	}
	if model != cfg.Model {
		logger.Warnw("Модель из конфигурации недоступна, выбрана другая", "wanted", cfg.Model, "selected", model)
	}
	logger.Infow("Модели", "advertised", len(advertised), "allowed", allowed.Len(), "selected", model)

	store := session.NewStore(session.Settings{
		SystemPrompt: cfg.SystemPrompt,
		MaxHistory:   cfg.MaxHistory,
		Model:        model,
		MaxSessions:  cfg.MaxSessions,
	}, backend, logger)

	return &Assistant{Client: backend, Allowed: allowed, Model: model, Store: store}, nil
}
