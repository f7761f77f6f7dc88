package session

import (
	"EnergyAssistant/internal/ai"
	"EnergyAssistant/internal/conversation"
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Entry — строка ленты для отображения. Лента хранит все ходы сессии,
// в отличие от диалога, который видит модель. Err заполнен у неудачного хода.
type Entry struct {
	Role    conversation.Role
	Content string
	Err     string
}

// Session — контекст одной сессии чата. Всё состояние сессии живёт здесь,
// между сессиями ничего не разделяется. Один ход обрабатывается целиком,
// прежде чем принимается следующий.
type Session struct {
	id     string
	model  string
	client ai.Client
	logger *zap.SugaredLogger

	mu         sync.Mutex
	conv       *conversation.Conversation
	transcript []Entry
}

// New создаёт сессию с диалогом, ограниченным maxSize сообщениями.
// В диалоге всегда остаётся хотя бы текущая реплика, иначе модель не увидит вопроса.
func New(id string, systemPrompt string, maxSize int, model string, client ai.Client, logger *zap.SugaredLogger) *Session {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Session{
		id:     id,
		model:  model,
		client: client,
		logger: logger.With("session", id),
		conv:   conversation.New(conversation.System(systemPrompt), maxSize),
	}
}

func (s *Session) ID() string    { return s.id }
func (s *Session) Model() string { return s.model }

// Submit выполняет ход: реплика пользователя → вызов модели → ответ ассистента.
// При ошибке модели возвращается *InvocationError, реплика пользователя не откатывается.
func (s *Session) Submit(ctx context.Context, userText string) (conversation.Message, error) {
	text := strings.TrimSpace(userText)
	if text == "" {
		return conversation.Message{}, ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := conversation.User(text)
	if err := s.conv.Add(user); err != nil {
		return conversation.Message{}, err
	}
	s.transcript = append(s.transcript, Entry{Role: user.Role(), Content: user.Content()})

	reply, err := s.client.Complete(ctx, s.model, s.conv.Messages())
	if err != nil {
		ierr := &InvocationError{Model: s.model, Cause: err}
		s.transcript = append(s.transcript, Entry{Role: conversation.RoleAssistant, Err: FailedTurnText})
		s.logger.Warnw("Ход завершился ошибкой модели", "model", s.model, "error", err)
		return conversation.Message{}, ierr
	}
	// ответ всегда сохраняем как реплику ассистента
	reply = conversation.Assistant(reply.Content())
	if err := s.conv.Add(reply); err != nil {
		return conversation.Message{}, err
	}
	s.transcript = append(s.transcript, Entry{Role: reply.Role(), Content: reply.Content()})
	return reply, nil
}

// Last возвращает последнее сообщение диалога.
func (s *Session) Last() (conversation.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Last()
}

// Messages возвращает снимок диалога, который увидит модель (с системным сообщением).
func (s *Session) Messages() []conversation.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Messages()
}

// Transcript возвращает копию ленты для отображения.
func (s *Session) Transcript() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.transcript))
	copy(out, s.transcript)
	return out
}
