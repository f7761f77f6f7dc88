package web

import (
	"EnergyAssistant/internal/app/assistant"
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config параметры HTTP сервера.
type Config struct {
	BindAddr  string
	RateLimit float64 // сообщений в секунду на сервер, 0 — без ограничения
	RateBurst int
}

// Server отдаёт страницу чата, JSON API и WebSocket канал.
type Server struct {
	cfg      Config
	app      *assistant.Assistant
	srv      *http.Server
	logger   *zap.SugaredLogger
	limiter  *rate.Limiter
	upgrader websocket.Upgrader
	running  atomic.Bool
	addr     atomic.Value  // фактический адрес после Listen
	done     chan struct{} // закрывается при shutdown, чтобы закрыть WebSocket соединения

	started    atomic.Bool
	served     chan struct{} // закрывается, когда Serve вернул управление
	servedOnce sync.Once
}

func New(cfg Config, app *assistant.Assistant, logger *zap.SugaredLogger) *Server {
	if cfg.BindAddr == "" {
		cfg.BindAddr = "127.0.0.1:8501"
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := max(1, cfg.RateBurst)

	s := &Server{
		cfg:     cfg,
		app:     app,
		logger:  logger,
		limiter: rate.NewLimiter(limit, burst),
		done:    make(chan struct{}),
		served:  make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	s.addr.Store(cfg.BindAddr)

	s.srv = &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	// Shutdown не трогает hijacked соединения
	s.srv.RegisterOnShutdown(func() { close(s.done) })
	return s
}

// Handler возвращает маршруты сервера.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /chat", s.handleChatForm)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("POST /api/messages", s.handleMessage)
	mux.HandleFunc("GET /api/models", s.handleModels)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// Start начинает слушать адрес и обслуживает запросы в отдельной горутине.
// Сервер останавливается при отмене ctx.
func (s *Server) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.BindAddr)
	if err != nil {
		s.running.Store(false)
		return err
	}
	s.addr.Store(ln.Addr().String())
	s.started.Store(true)

	go func() {
		defer s.servedOnce.Do(func() { close(s.served) })
		s.logger.Infow("Web server listening", "addr", s.Addr())
		if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) && err != nil {
			s.logger.Errorw("Web server stopped with error", "error", err)
		} else {
			s.logger.Infow("Web server stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Stop(context.WithoutCancel(ctx))
	}()
	return nil
}

// Stop инициирует graceful shutdown и ждёт завершения цикла Serve.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeoutCause(ctx, 5*time.Second, errors.New("web server shutdown timeout"))
	defer cancel()
	if !s.running.CompareAndSwap(true, false) {
		s.waitServed(shutdownCtx)
		return nil
	}
	defer s.waitServed(shutdownCtx)
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warnw("graceful shutdown error", "error", err)
		return s.srv.Close()
	}
	return nil
}

func (s *Server) waitServed(ctx context.Context) {
	if !s.started.Load() {
		return
	}
	select {
	case <-s.served:
	case <-ctx.Done():
	}
}

func (s *Server) Addr() string { return s.addr.Load().(string) }
