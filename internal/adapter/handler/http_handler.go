package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/pack-n-strap/internal/host"
	"github.com/rl1809/pack-n-strap/internal/intercept"
	"github.com/rl1809/pack-n-strap/internal/logger"
	"github.com/rl1809/pack-n-strap/internal/port"
)

const (
	SessionHeader   = "X-Session-Id"
	RequestIDHeader = "X-Request-Id"

	GameStartPath          = "/client/game/start"
	ItemKeptAfterDeathPath = "/client/items/kept-after-death"
	HealthPath             = "/health"
)

// HTTPHandler serves the host routes. Operations are resolved from the
// registry on every request so interceptors installed after construction
// still apply.
type HTTPHandler struct {
	registry *intercept.Registry
	profiles port.ProfileRepository
	log      *logger.Logger
	now      func() time.Time
}

type GameStartHTTPRequest struct {
	SessionID string `json:"sessionId"`
}

type KeptAfterDeathHTTPRequest struct {
	SessionID string `json:"sessionId"`
	ItemID    string `json:"itemId"`
}

type HTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Kept    *bool  `json:"kept,omitempty"`
}

func NewHTTPHandler(registry *intercept.Registry, profiles port.ProfileRepository, log *logger.Logger) *HTTPHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &HTTPHandler{registry: registry, profiles: profiles, log: log, now: time.Now}
}

// Routes returns a mux with every host route registered.
func (h *HTTPHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(HealthPath, h.HealthCheck)
	mux.HandleFunc(GameStartPath, h.withRequestID(h.GameStart))
	mux.HandleFunc(ItemKeptAfterDeathPath, h.withRequestID(h.ItemKeptAfterDeath))
	return mux
}

func (h *HTTPHandler) GameStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := strings.TrimSpace(r.Header.Get(SessionHeader))
	if sessionID == "" {
		var req GameStartHTTPRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, HTTPResponse{Message: "invalid request body"})
			return
		}
		sessionID = strings.TrimSpace(req.SessionID)
	}
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, HTTPResponse{Message: "missing session id"})
		return
	}

	start, err := intercept.Resolve[host.GameStartFunc](h.registry, host.OpGameStart)
	if err != nil {
		h.log.Error(err, "resolve game start")
		writeJSON(w, http.StatusInternalServerError, HTTPResponse{Message: "internal error"})
		return
	}

	err = start(r.Context(), host.GameStartRequest{
		URL:       r.URL.Path,
		SessionID: sessionID,
		StartedAt: h.now(),
	})
	if err != nil {
		h.log.Errorf(err, "game start for %s", sessionID)
		writeJSON(w, http.StatusInternalServerError, HTTPResponse{Message: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, HTTPResponse{Success: true, Message: "game started"})
}

func (h *HTTPHandler) ItemKeptAfterDeath(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req KeptAfterDeathHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, HTTPResponse{Message: "invalid request body"})
		return
	}
	if req.SessionID == "" || req.ItemID == "" {
		writeJSON(w, http.StatusBadRequest, HTTPResponse{Message: "missing required fields"})
		return
	}

	inv, err := h.profiles.GetInventory(r.Context(), req.SessionID)
	if err != nil {
		h.log.Errorf(err, "load inventory for %s", req.SessionID)
		writeJSON(w, http.StatusInternalServerError, HTTPResponse{Message: "internal error"})
		return
	}
	if inv == nil {
		writeJSON(w, http.StatusNotFound, HTTPResponse{Message: "profile not found"})
		return
	}
	item, ok := inv.Find(req.ItemID)
	if !ok {
		writeJSON(w, http.StatusNotFound, HTTPResponse{Message: "item not found"})
		return
	}

	kept, err := intercept.Resolve[host.RetentionFunc](h.registry, host.OpItemKeptAfterDeath)
	if err != nil {
		h.log.Error(err, "resolve retention")
		writeJSON(w, http.StatusInternalServerError, HTTPResponse{Message: "internal error"})
		return
	}

	result := kept(r.Context(), host.RetentionQuery{Inventory: inv, Item: *item})
	writeJSON(w, http.StatusOK, HTTPResponse{Success: true, Kept: &result})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		start := time.Now()
		next(w, r)
		h.log.Debugf("%s %s request_id=%s took=%s", r.Method, r.URL.Path, id, time.Since(start))
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
