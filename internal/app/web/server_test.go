package web

import (
	"EnergyAssistant/internal/app/assistant"
	"EnergyAssistant/internal/config"
	"EnergyAssistant/internal/conversation"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type scriptedBackend struct {
	mu    sync.Mutex
	reply string
	err   error
}

func (b *scriptedBackend) Complete(_ context.Context, _ string, history []conversation.Message) (conversation.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return conversation.Message{}, b.err
	}
	return conversation.Assistant(b.reply), nil
}

func (b *scriptedBackend) ListModels(context.Context) ([]string, error) {
	return []string{"llama-3.1-70b-versatile", "mixtral-8x7b-32768", "gemma2-9b-it"}, nil
}

type testEnv struct {
	srv    *httptest.Server
	client *http.Client
	app    *assistant.Assistant
}

func newTestEnv(t *testing.T, backend *scriptedBackend, webCfg Config) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()
	cfg := config.Defaults()
	cfg.APIKey = "key"
	app, err := assistant.New(context.Background(), cfg, backend, logger)
	require.NoError(t, err)

	s := New(webCfg, app, logger)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testEnv{srv: srv, client: &http.Client{Jar: jar}, app: app}
}

func (e *testEnv) postMessage(t *testing.T, content string) (*http.Response, map[string]string) {
	t.Helper()
	body, _ := json.Marshal(messageRequest{Content: content})
	resp, err := e.client.Post(e.srv.URL+"/api/messages", "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

type historyResponse struct {
	Session  string        `json:"session"`
	Model    string        `json:"model"`
	Messages []messageView `json:"messages"`
}

func (e *testEnv) history(t *testing.T) historyResponse {
	t.Helper()
	resp, err := e.client.Get(e.srv.URL + "/api/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	var h historyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	return h
}

func TestServer_IndexSetsSessionCookie(t *testing.T) {
	env := newTestEnv(t, &scriptedBackend{reply: "hi"}, Config{})

	resp, err := env.client.Get(env.srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Energy Efficiency Building Assistant")
	assert.Contains(t, string(body), "HVAC systems")
	assert.Contains(t, string(body), "Ask about energy efficiency...")
	// без WebSocket форма отправляется обычным POST
	assert.Contains(t, string(body), `action="/chat"`)
	assert.Contains(t, string(body), `form.removeEventListener("submit", sendOverSocket)`)
	u, _ := url.Parse(env.srv.URL)
	require.Len(t, env.client.Jar.Cookies(u), 1)
	assert.Equal(t, 1, env.app.Store.Len())
}

func TestServer_MessageRoundTrip(t *testing.T) {
	env := newTestEnv(t, &scriptedBackend{reply: "Seal the windows."}, Config{})

	resp, out := env.postMessage(t, "How to save heat?")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "assistant", out["role"])
	assert.Equal(t, "Seal the windows.", out["content"])

	h := env.history(t)
	assert.Equal(t, "llama-3.1-70b-versatile", h.Model)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, messageView{Role: "user", Content: "How to save heat?"}, h.Messages[0])
	assert.Equal(t, messageView{Role: "assistant", Content: "Seal the windows."}, h.Messages[1])
	assert.Equal(t, 1, env.app.Store.Len())
}

func TestServer_EmptyMessage(t *testing.T) {
	env := newTestEnv(t, &scriptedBackend{reply: "x"}, Config{})

	resp, out := env.postMessage(t, "   ")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, out["error"])
	assert.Empty(t, env.history(t).Messages)
}

func TestServer_InvalidJSON(t *testing.T) {
	env := newTestEnv(t, &scriptedBackend{reply: "x"}, Config{})

	resp, err := env.client.Post(env.srv.URL+"/api/messages", "application/json", strings.NewReader(`{"text":1}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_ModelFailureKeepsHistory(t *testing.T) {
	env := newTestEnv(t, &scriptedBackend{err: errors.New("rate limit exceeded")}, Config{})

	resp, out := env.postMessage(t, "hello")

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, msgModelFailed, out["error"])
	h := env.history(t)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, "hello", h.Messages[0].Content)
	assert.Equal(t, msgModelFailed, h.Messages[1].Error)
	assert.NotContains(t, h.Messages[1].Error, "rate limit exceeded")
}

func TestServer_HistoryWithoutSessionCreatesNothing(t *testing.T) {
	env := newTestEnv(t, &scriptedBackend{reply: "ok"}, Config{})
	// клиент без cookie jar, как curl
	plain := &http.Client{}

	for i := 0; i < 200; i++ {
		resp, err := plain.Get(env.srv.URL + "/api/history")
		require.NoError(t, err)
		var h historyResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
		resp.Body.Close()
		assert.Empty(t, resp.Header.Get("Set-Cookie"))
		assert.Empty(t, h.Session)
		assert.Empty(t, h.Messages)
		assert.Equal(t, "llama-3.1-70b-versatile", h.Model)
	}

	assert.Equal(t, 0, env.app.Store.Len())
}

func TestServer_CookielessPagesStayBounded(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	cfg := config.Defaults()
	cfg.APIKey = "key"
	cfg.MaxSessions = 5
	app, err := assistant.New(context.Background(), cfg, &scriptedBackend{reply: "ok"}, logger)
	require.NoError(t, err)
	srv := httptest.NewServer(New(Config{}, app, logger).Handler())
	t.Cleanup(srv.Close)

	for i := 0; i < 50; i++ {
		resp, err := http.Get(srv.URL + "/")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	assert.Equal(t, 5, app.Store.Len())
}

func TestServer_RateLimited(t *testing.T) {
	env := newTestEnv(t, &scriptedBackend{reply: "ok"}, Config{RateLimit: 0.001, RateBurst: 1})

	resp, _ := env.postMessage(t, "first")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, out := env.postMessage(t, "second")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, msgRateLimited, out["error"])
}

func TestServer_Models(t *testing.T) {
	env := newTestEnv(t, &scriptedBackend{reply: "ok"}, Config{})

	resp, err := env.client.Get(env.srv.URL + "/api/models")
	require.NoError(t, err)
	defer resp.Body.Close()
	var out struct {
		Model   string   `json:"model"`
		Allowed []string `json:"allowed"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	assert.Equal(t, "llama-3.1-70b-versatile", out.Model)
	assert.Equal(t, []string{"gemma2-9b-it", "llama-3.1-70b-versatile"}, out.Allowed)
}

func TestServer_ChatFormRendersMarkdown(t *testing.T) {
	env := newTestEnv(t, &scriptedBackend{reply: "Use **LED** bulbs <script>alert(1)</script>"}, Config{})

	resp, err := env.client.PostForm(env.srv.URL+"/chat", url.Values{"content": {"lighting?"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	// клиент прошёл редирект на страницу
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<strong>LED</strong>")
	assert.NotContains(t, string(body), "<script>alert")
	assert.Contains(t, string(body), "lighting?")
}

func TestServer_WebSocket(t *testing.T) {
	backend := &scriptedBackend{reply: "Add a heat pump."}
	env := newTestEnv(t, backend, Config{})

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.NotEmpty(t, resp.Header.Get("Set-Cookie"))

	require.NoError(t, conn.WriteJSON(messageRequest{Content: "heating?"}))
	var out messageView
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, messageView{Role: "assistant", Content: "Add a heat pump."}, out)

	backend.mu.Lock()
	backend.err = errors.New("network down")
	backend.mu.Unlock()

	require.NoError(t, conn.WriteJSON(messageRequest{Content: "again?"}))
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, msgModelFailed, out.Error)
}

func TestServer_StartStop(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	cfg := config.Defaults()
	cfg.APIKey = "key"
	app, err := assistant.New(context.Background(), cfg, &scriptedBackend{reply: "ok"}, logger)
	require.NoError(t, err)

	s := New(Config{BindAddr: "127.0.0.1:0"}, app, logger)
	require.NoError(t, s.Start(context.Background()))
	require.NotEqual(t, "127.0.0.1:0", s.Addr())

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}

func TestRenderMarkdown(t *testing.T) {
	assert.Equal(t, "", string(renderMarkdown("")))
	got := string(renderMarkdown("# Tips\n\n- seal gaps\n\n<img src=x onerror=alert(1)>"))
	assert.Contains(t, got, "<h1")
	assert.Contains(t, got, "<li>seal gaps</li>")
	assert.NotContains(t, got, "onerror")
}
