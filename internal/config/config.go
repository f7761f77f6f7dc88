package config

import (
	"EnergyAssistant/internal/models"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// DefaultSystemPrompt — инструкция ассистенту, задаётся один раз на сессию.
const DefaultSystemPrompt = "You are an assistant that provides guidance to the user for energy efficiency in buildings/houses."

type Config struct {
	DebugMode      bool          `env:"DEBUG_MODE"`                      // Режим дебага
	APIKey         string        `env:"GROQ_API_KEY"`                    // Ключ API провайдера, обязателен
	BaseURL        string        `env:"GROQ_BASE_URL"`                   // OpenAI-совместимый endpoint провайдера
	Model          string        `env:"MODEL"`                           // Желаемая модель
	ModelDenylist  []string      `env:"MODEL_DENYLIST" envSeparator:";"` // Модели, которые исключаются из списка провайдера
	SystemPrompt   string        `env:"SYSTEM_PROMPT"`                   // Системное сообщение диалога
	MaxHistory     int           `env:"MAX_HISTORY"`                     // Сколько последних сообщений (без системного) видит модель
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`                 // Таймаут одного запроса к модели
	Stub           bool          `env:"STUB_MODE"`                       // Работать без сети, ответы-заглушки
	MaxSessions    int           `env:"MAX_SESSIONS"`                    // Сколько сессий держать в памяти, лишние вытесняются

	// Web
	BindAddr  string  `env:"BIND_ADDR"`  // Адрес HTTP сервера
	RateLimit float64 `env:"RATE_LIMIT"` // Допустимое число сообщений в секунду на сервер
	RateBurst int     `env:"RATE_BURST"` // Всплеск сообщений сверх RateLimit
}

// ErrConfiguration — общий признак ошибок конфигурации для errors.Is.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError — конфигурация неполная или некорректная, запуск невозможен.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// Defaults возвращает конфигурацию с предустановленными значениями по умолчанию.
// Эти значения перекрываются .env, переменными окружения и флагами CLI.
func Defaults() *Config {
	return &Config{
		BaseURL:        "https://api.groq.com/openai/v1",
		Model:          "llama-3.1-70b-versatile",
		ModelDenylist:  append([]string(nil), models.DefaultDenylist...),
		SystemPrompt:   DefaultSystemPrompt,
		MaxHistory:     5,
		MaxSessions:    1000,
		RequestTimeout: 60 * time.Second,
		BindAddr:       "127.0.0.1:8501",
		RateLimit:      1,
		RateBurst:      5,
	}
}

// NewConfig загружает конфигурацию процесса из .env, окружения и os.Args.
func NewConfig() (*Config, error) {
	return Load(os.Args[0], os.Args[1:])
}

// Load загружает конфигурацию. envFiles — файлы .env, по умолчанию ".env" в рабочей папке.
func Load(name string, args []string, envFiles ...string) (*Config, error) {
	// отсутствие .env не ошибка
	_ = godotenv.Load(envFiles...)

	// Стартуем с дефолтов, затем перекрываем окружением и флагами
	cfg := Defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, &ConfigurationError{Field: "env", Reason: err.Error()}
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага")
	fs.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "ключ API провайдера (перекрывает ENV GROQ_API_KEY)")
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "OpenAI-совместимый endpoint провайдера")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "желаемая модель")
	denylistFlag := strings.Join(cfg.ModelDenylist, ";")
	fs.StringVar(&denylistFlag, "model-denylist", denylistFlag, "исключаемые модели, разделённые ';'")
	fs.StringVar(&cfg.SystemPrompt, "system-prompt", cfg.SystemPrompt, "системное сообщение диалога")
	fs.IntVar(&cfg.MaxHistory, "max-history", cfg.MaxHistory, "сколько последних сообщений видит модель")
	fs.IntVar(&cfg.MaxSessions, "max-sessions", cfg.MaxSessions, "сколько сессий держать в памяти")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "таймаут запроса к модели, напр. 60s")
	fs.BoolVar(&cfg.Stub, "stub", cfg.Stub, "ответы-заглушки без обращения к API")
	fs.StringVar(&cfg.BindAddr, "bind-addr", cfg.BindAddr, "адрес HTTP сервера, напр. 127.0.0.1:8501")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "сообщений в секунду на сервер")
	fs.IntVar(&cfg.RateBurst, "rate-burst", cfg.RateBurst, "допустимый всплеск сообщений")
	if err := fs.Parse(args); err != nil {
		return nil, &ConfigurationError{Field: "flags", Reason: err.Error()}
	}

	cfg.ModelDenylist = parseListFlag(denylistFlag, nil)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет, что с конфигурацией можно стартовать.
func (c *Config) Validate() error {
	if c.APIKey == "" && !c.Stub {
		return &ConfigurationError{Field: "GROQ_API_KEY", Reason: "not set; export it or put it into .env"}
	}
	if c.Model == "" {
		return &ConfigurationError{Field: "MODEL", Reason: "must not be empty"}
	}
	// при нуле вопрос пользователя вытесняется раньше, чем уходит в модель
	if c.MaxHistory < 1 {
		return &ConfigurationError{Field: "MAX_HISTORY", Reason: fmt.Sprintf("must be at least 1, got %d", c.MaxHistory)}
	}
	if c.MaxSessions < 1 {
		return &ConfigurationError{Field: "MAX_SESSIONS", Reason: fmt.Sprintf("must be at least 1, got %d", c.MaxSessions)}
	}
	if c.RequestTimeout <= 0 {
		return &ConfigurationError{Field: "REQUEST_TIMEOUT", Reason: fmt.Sprintf("must be positive, got %s", c.RequestTimeout)}
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return &ConfigurationError{Field: "RATE_LIMIT", Reason: "limit and burst must not be negative"}
	}
	return nil
}

// parseListFlag разбирает значение флага со списком, разделённым ';'
func parseListFlag(v string, def []string) []string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	parts := strings.Split(v, ";")
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return def
	}
	return cleaned
}
