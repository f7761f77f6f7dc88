package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait = 10 * time.Second
	wsMaxFrame  = maxBodyBytes
)

// handleWebSocket — чат поверх WebSocket: клиент шлёт {"content": "..."},
// сервер отвечает репликой ассистента или {"error": "..."}.
// Ходы в одном соединении обрабатываются по очереди.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	sess, created := s.app.Store.GetOrCreate(id)
	header := http.Header{}
	if created {
		header.Add("Set-Cookie", sessionCookieFor(sess.ID()).String())
	}

	conn, err := s.upgrader.Upgrade(w, r, header)
	if err != nil {
		// Upgrade уже ответил клиенту
		s.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxFrame)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()

	s.logger.Infow("websocket connected", "session", sess.ID())
	for {
		var req messageRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warnw("websocket read failed", "session", sess.ID(), "error", err)
			}
			return
		}

		var out messageView
		if !s.limiter.Allow() {
			out = messageView{Error: msgRateLimited}
		} else if reply, err := sess.Submit(r.Context(), req.Content); err != nil {
			_, msg := s.statusFor(sess, err)
			out = messageView{Error: msg}
		} else {
			out = viewOf(reply)
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(out); err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				s.logger.Warnw("websocket write failed", "session", sess.ID(), "error", err)
			}
			return
		}
	}
}
