package session

import (
	"EnergyAssistant/internal/ai"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultMaxSessions = 1000

// Settings — параметры, общие для всех новых сессий.
type Settings struct {
	SystemPrompt string
	MaxHistory   int
	Model        string
	MaxSessions  int // ёмкость хранилища, <= 0 — значение по умолчанию
}

type storeEntry struct {
	sess *Session
	seen uint64 // номер последнего обращения
}

// Store держит сессии процесса по идентификатору. Ёмкость ограничена,
// при переполнении вытесняется сессия, к которой дольше всех не обращались.
// Маршрутизация запросов к сессии — забота вызывающего (cookie, консоль).
type Store struct {
	settings Settings
	client   ai.Client
	logger   *zap.SugaredLogger

	mu       sync.Mutex
	clock    uint64
	sessions map[string]*storeEntry
}

func NewStore(settings Settings, client ai.Client, logger *zap.SugaredLogger) *Store {
	if settings.MaxSessions <= 0 {
		settings.MaxSessions = defaultMaxSessions
	}
	return &Store{
		settings: settings,
		client:   client,
		logger:   logger,
		sessions: make(map[string]*storeEntry),
	}
}

// Create создаёт новую сессию со свежим идентификатором.
func (s *Store) Create() *Session {
	sess := New(uuid.NewString(), s.settings.SystemPrompt, s.settings.MaxHistory, s.settings.Model, s.client, s.logger)

	s.mu.Lock()
	var evicted string
	if len(s.sessions) >= s.settings.MaxSessions {
		evicted = s.evictOldestLocked()
	}
	s.clock++
	s.sessions[sess.ID()] = &storeEntry{sess: sess, seen: s.clock}
	s.mu.Unlock()

	if evicted != "" {
		s.logger.Infow("Сессия вытеснена", "session", evicted)
	}
	s.logger.Infow("Сессия создана", "session", sess.ID(), "model", sess.Model())
	return sess
}

// evictOldestLocked удаляет сессию с самым старым обращением. Вызывать под s.mu.
func (s *Store) evictOldestLocked() string {
	var (
		oldest string
		seen   uint64
	)
	for id, e := range s.sessions {
		if oldest == "" || e.seen < seen {
			oldest, seen = id, e.seen
		}
	}
	delete(s.sessions, oldest)
	return oldest
}

// Get возвращает сессию по идентификатору и отмечает обращение к ней.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	s.clock++
	e.seen = s.clock
	return e.sess, true
}

// GetOrCreate возвращает существующую сессию или создаёт новую.
// created сообщает, что идентификатор поменялся.
func (s *Store) GetOrCreate(id string) (sess *Session, created bool) {
	if id != "" {
		if sess, ok := s.Get(id); ok {
			return sess, false
		}
	}
	return s.Create(), true
}

// Delete удаляет сессию.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) Settings() Settings { return s.settings }
