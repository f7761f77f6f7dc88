package web

import (
	"EnergyAssistant/internal/conversation"
	"EnergyAssistant/internal/service/session"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	sessionCookie = "assistant_session"
	maxBodyBytes  = 64 << 10
)

// ошибки, которые видит пользователь
const (
	msgRateLimited = "too many messages, try again in a moment"
	msgModelFailed = session.FailedTurnText
)

type messageRequest struct {
	Content string `json:"content"`
}

type messageView struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// sessionFor находит сессию по cookie или создаёт новую и выставляет cookie.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	sess, created := s.app.Store.GetOrCreate(id)
	if created {
		http.SetCookie(w, sessionCookieFor(sess.ID()))
	}
	return sess
}

// existingSession находит сессию по cookie, не создавая новую.
func (s *Server) existingSession(r *http.Request) (*session.Session, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return nil, false
	}
	return s.app.Store.Get(c.Value)
}

func sessionCookieFor(id string) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderPage(w, sess); err != nil {
		s.logger.Errorw("render page", "error", err)
	}
}

// handleChatForm — отправка формы без JavaScript.
func (s *Server) handleChatForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	sess := s.sessionFor(w, r)
	if !s.limiter.Allow() {
		http.Error(w, msgRateLimited, http.StatusTooManyRequests)
		return
	}
	// ошибка модели попадает в ленту и будет показана на странице
	if _, err := sess.Submit(r.Context(), r.PostFormValue("content")); err != nil && !errors.Is(err, session.ErrEmptyInput) {
		s.logger.Warnw("chat submit failed", "session", sess.ID(), "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleHistory только читает: без известной сессии отдаёт пустую ленту.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.existingSession(r)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"session":  "",
			"model":    s.app.Model,
			"messages": []messageView{},
		})
		return
	}
	entries := sess.Transcript()
	views := make([]messageView, 0, len(entries))
	for _, e := range entries {
		views = append(views, messageView{Role: string(e.Role), Content: e.Content, Error: e.Err})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session":  sess.ID(),
		"model":    sess.Model(),
		"messages": views,
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	var req messageRequest
	if err := decodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		writeErrorString(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.limiter.Allow() {
		writeErrorString(w, http.StatusTooManyRequests, msgRateLimited)
		return
	}
	reply, err := sess.Submit(r.Context(), req.Content)
	if err != nil {
		status, msg := s.statusFor(sess, err)
		writeErrorString(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(reply))
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"model":   s.app.Model,
		"allowed": s.app.Allowed.Sorted(),
	})
}

// statusFor переводит ошибку хода в HTTP статус и текст для пользователя.
func (s *Server) statusFor(sess *session.Session, err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		return http.StatusBadRequest, "message is empty"
	case errors.Is(err, session.ErrModelInvocation):
		s.logger.Warnw("model invocation failed", "session", sess.ID(), "error", err)
		return http.StatusBadGateway, msgModelFailed
	default:
		s.logger.Errorw("submit failed", "session", sess.ID(), "error", err)
		return http.StatusInternalServerError, "internal error"
	}
}

func viewOf(m conversation.Message) messageView {
	return messageView{Role: string(m.Role()), Content: m.Content()}
}

func decodeJSON(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErrorString(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(msg)})
}
