package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/pack-n-strap/internal/core/domain"
	"github.com/rl1809/pack-n-strap/internal/host"
	"github.com/rl1809/pack-n-strap/internal/intercept"
)

type stubProfiles struct {
	mu      sync.Mutex
	inv     map[string]*domain.Inventory
	started map[string]time.Time
	getErr  error
}

func newStubProfiles() *stubProfiles {
	return &stubProfiles{inv: map[string]*domain.Inventory{}, started: map[string]time.Time{}}
}

func (s *stubProfiles) GetInventory(ctx context.Context, sessionID string) (*domain.Inventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.inv[sessionID], nil
}

func (s *stubProfiles) SaveInventory(ctx context.Context, sessionID string, inv domain.Inventory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inv[sessionID] = &inv
	return nil
}

func (s *stubProfiles) MarkSessionStarted(ctx context.Context, sessionID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started[sessionID] = at
	return nil
}

func newTestHandler(t *testing.T) (*HTTPHandler, *intercept.Registry, *stubProfiles) {
	t.Helper()
	reg := intercept.NewRegistry()
	profiles := newStubProfiles()
	require.NoError(t, intercept.Provide(reg, host.OpGameStart, host.GameStart(profiles, nil)))
	require.NoError(t, intercept.Provide(reg, host.OpItemKeptAfterDeath, host.ItemKeptAfterDeath(host.DefaultLostOnDeath())))
	return NewHTTPHandler(reg, profiles, nil), reg, profiles
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) HTTPResponse {
	t.Helper()
	var resp HTTPResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestGameStart_SessionHeader(t *testing.T) {
	h, _, profiles := newTestHandler(t)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	req := httptest.NewRequest(http.MethodPost, GameStartPath, nil)
	req.Header.Set(SessionHeader, "session-1")
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.True(t, decodeResponse(t, rec).Success)
	assert.Equal(t, fixed, profiles.started["session-1"])
}

func TestGameStart_SessionInBody(t *testing.T) {
	h, _, profiles := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, GameStartPath, strings.NewReader(`{"sessionId":"session-2"}`))
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))
	assert.Contains(t, profiles.started, "session-2")
}

func TestGameStart_Validation(t *testing.T) {
	h, _, _ := newTestHandler(t)

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"no session", http.MethodPost, "", http.StatusBadRequest},
		{"bad body", http.MethodPost, "{", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, GameStartPath, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.GameStart(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGameStart_RunsInterceptors(t *testing.T) {
	h, reg, _ := newTestHandler(t)

	var intercepted string
	require.NoError(t, intercept.Intercept(reg, host.OpGameStart, func(original host.GameStartFunc) host.GameStartFunc {
		return func(ctx context.Context, req host.GameStartRequest) error {
			intercepted = req.SessionID
			return original(ctx, req)
		}
	}))

	req := httptest.NewRequest(http.MethodPost, GameStartPath, nil)
	req.Header.Set(SessionHeader, "session-3")
	rec := httptest.NewRecorder()
	h.GameStart(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "session-3", intercepted)
}

func TestGameStart_OriginalError(t *testing.T) {
	h, reg, _ := newTestHandler(t)
	require.NoError(t, intercept.Intercept(reg, host.OpGameStart, func(original host.GameStartFunc) host.GameStartFunc {
		return func(ctx context.Context, req host.GameStartRequest) error {
			return errors.New("boom")
		}
	}))

	req := httptest.NewRequest(http.MethodPost, GameStartPath, nil)
	req.Header.Set(SessionHeader, "session-4")
	rec := httptest.NewRecorder()
	h.GameStart(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func retentionInventory() *domain.Inventory {
	return &domain.Inventory{
		Equipment: "eq",
		Items: []domain.Item{
			{ID: "eq", TemplateID: "equipment"},
			{ID: "armband", TemplateID: "armband-tpl", ParentID: "eq", SlotID: domain.SlotArmBand},
			{ID: "keycard", TemplateID: "keycard-tpl", ParentID: "armband", SlotID: "mod_card"},
		},
	}
}

func postKept(h *HTTPHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, ItemKeptAfterDeathPath, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestItemKeptAfterDeath(t *testing.T) {
	h, reg, profiles := newTestHandler(t)
	profiles.inv["s"] = retentionInventory()

	rec := postKept(h, `{"sessionId":"s","itemId":"keycard"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Kept)
	assert.False(t, *resp.Kept, "built-in rule drops armband children")

	require.NoError(t, intercept.Intercept(reg, host.OpItemKeptAfterDeath, func(original host.RetentionFunc) host.RetentionFunc {
		return func(ctx context.Context, q host.RetentionQuery) bool {
			return q.Item.ID == "keycard" || original(ctx, q)
		}
	}))

	rec = postKept(h, `{"sessionId":"s","itemId":"keycard"}`)
	resp = decodeResponse(t, rec)
	require.NotNil(t, resp.Kept)
	assert.True(t, *resp.Kept)
}

func TestItemKeptAfterDeath_Errors(t *testing.T) {
	h, _, profiles := newTestHandler(t)
	profiles.inv["s"] = retentionInventory()

	assert.Equal(t, http.StatusBadRequest, postKept(h, `{`).Code)
	assert.Equal(t, http.StatusBadRequest, postKept(h, `{"sessionId":"s"}`).Code)
	assert.Equal(t, http.StatusNotFound, postKept(h, `{"sessionId":"other","itemId":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound, postKept(h, `{"sessionId":"s","itemId":"missing"}`).Code)

	profiles.getErr = errors.New("redis down")
	assert.Equal(t, http.StatusInternalServerError, postKept(h, `{"sessionId":"s","itemId":"keycard"}`).Code)
}

func TestItemKeptAfterDeath_NotProvided(t *testing.T) {
	h := NewHTTPHandler(intercept.NewRegistry(), newStubProfiles(), nil)
	h.profiles.(*stubProfiles).inv["s"] = retentionInventory()

	rec := postKept(h, `{"sessionId":"s","itemId":"keycard"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
