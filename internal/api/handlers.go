package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-bridges/internal/bridges/comfortcloud"
	"github.com/nerrad567/gray-logic-bridges/internal/cloudauth"
	"github.com/nerrad567/gray-logic-bridges/internal/infrastructure/logging"
)

// healthCheckTimeout bounds each component probe in /health.
const healthCheckTimeout = 2 * time.Second

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status  string                      `json:"status"`
	Version string                      `json:"version"`
	Checks  map[string]string           `json:"checks"`
	Bridge  *comfortcloud.HealthMessage `json:"bridge,omitempty"`
}

// handleHealth probes every registered component. Any failure makes the
// response 503 with status "degraded".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: s.version,
		Checks:  make(map[string]string, len(s.checks)),
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := s.checks[name].HealthCheck(ctx)
		cancel()

		if err != nil {
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	if s.bridge != nil {
		h := s.bridge.Health()
		resp.Bridge = &h
		if h.Status != comfortcloud.HealthHealthy {
			resp.Status = "degraded"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// SessionResponse describes the cloud session. It never carries tokens or
// credentials.
type SessionResponse struct {
	Account        string     `json:"account"`
	State          string     `json:"state"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Scope          string     `json:"scope,omitempty"`
	HasAccClientID bool       `json:"has_acc_client_id"`
	AppVersion     string     `json:"app_version"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request) {
	if s.session == nil {
		writeUnavailable(w, "cloud session not configured")
		return
	}

	resp := SessionResponse{
		Account:    logging.Redact(s.session.Username()),
		State:      string(s.session.State()),
		AppVersion: s.session.AppVersion(),
	}
	if tok := s.session.Token(); tok != nil {
		exp := tok.ExpiresAt().UTC()
		resp.ExpiresAt = &exp
		resp.Scope = tok.Scope
		resp.HasAccClientID = tok.AccClientID != ""
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLogout ends the cloud session and drops the stored token. It does not
// pause the bridge: the next poll finds no token and runs a fresh login, so
// this endpoint forces re-authentication rather than disconnecting the account.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.session == nil {
		writeUnavailable(w, "cloud session not configured")
		return
	}

	err := s.session.Logout(r.Context())
	switch {
	case err == nil:
		s.logger.Info("cloud session logged out", "request_id", requestID(r.Context()))
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
	case errors.Is(err, cloudauth.ErrNoToken):
		writeError(w, http.StatusConflict, ErrCodeConflict, "no cloud session to log out")
	default:
		s.logger.Warn("cloud logout failed", "error", err, "request_id", requestID(r.Context()))
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, "cloud logout failed")
	}
}

func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	if s.bridge == nil {
		writeUnavailable(w, "bridge not running")
		return
	}

	devices := s.bridge.States()
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil {
		writeUnavailable(w, "bridge not running")
		return
	}

	address := chi.URLParam(r, "address")
	for _, d := range s.bridge.States() {
		if d.Address == address {
			writeJSON(w, http.StatusOK, d)
			return
		}
	}
	writeNotFound(w, "device not found")
}
