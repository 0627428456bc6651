package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/squareft/authbridge/internal/callback"
	"github.com/squareft/authbridge/internal/config"
	"github.com/squareft/authbridge/internal/logger"
	"github.com/squareft/authbridge/internal/session"
	"github.com/squareft/authbridge/internal/telemetry"
	"go.uber.org/zap"
)

// handleCallback runs an inbound authentication redirect through the state
// machine and renders the result. The dashboard forwards the full original
// link (fragment included) in ?url= because fragments never reach a server on
// their own; direct hits fall back to this request's own query string.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	var req callback.Request
	if raw := r.URL.Query().Get("url"); raw != "" {
		parsed, err := callback.ParseRequestURL(raw)
		if err != nil {
			renderError(w, "Invalid or expired authentication link. Please try again.", config.RouteLogin)
			return
		}
		req = parsed
	} else {
		req = callback.ParseRequest(r.URL.Query(), url.Values{})
	}

	outcome := s.machine.Handle(r.Context(), req)

	if outcome.Errored() {
		logger.Warn("callback concluded in error", zap.String("message", outcome.Message))
		if wantsJSON(r) {
			writeError(w, "callback_failed", outcome.Message, http.StatusUnprocessableEntity)
			return
		}
		renderError(w, outcome.Message, config.RouteLogin)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{
			"state":    outcome.State,
			"route":    outcome.Route,
			"message":  outcome.Message,
			"delay_ms": outcome.Delay.Milliseconds(),
		})
		return
	}
	renderConfirm(w, outcome.Message, outcome.Route, outcome.Delay)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

type pushRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at,omitempty"` // epoch seconds
}

// handleSessionPush accepts a token pair from the dashboard and fans it out
// to every configured origin.
func (s *Server) handleSessionPush(w http.ResponseWriter, r *http.Request) {
	var body pushRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, "invalid_request", "malformed JSON body", http.StatusBadRequest)
		return
	}
	if body.AccessToken == "" || body.RefreshToken == "" {
		writeError(w, "invalid_request", "access_token and refresh_token are required", http.StatusBadRequest)
		return
	}

	sess := session.Session{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
	}
	if body.ExpiresAt > 0 {
		sess.ExpiresAt = time.Unix(body.ExpiresAt, 0)
	}
	s.bridge.Push(r.Context(), sess)

	if id, ok := session.IdentityOf(sess.AccessToken); ok {
		s.recorder.SetUser(id.UserID, "")
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// handleSessionPull probes the origins once and reports whether a session was
// installed. Tokens never leave this process through this endpoint.
func (s *Server) handleSessionPull(w http.ResponseWriter, r *http.Request) {
	res := s.bridge.Pull(r.Context())

	resp := map[string]any{"installed": res.Installed}
	if res.Installed {
		resp["origin"] = map[string]string{
			"name": res.Origin.Name,
			"url":  res.Origin.URL,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSessionLogout propagates a sign-out everywhere this process can
// reach, then drops the telemetry attribution.
func (s *Server) handleSessionLogout(w http.ResponseWriter, r *http.Request) {
	s.bridge.PropagateLogout(r.Context())
	s.recorder.Log(telemetry.EventLogout, nil)
	s.recorder.ClearUser()
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

type eventRequest struct {
	Type       string         `json:"type"`
	Data       telemetry.Data `json:"data,omitempty"`
	ContextURL string         `json:"context_url,omitempty"`
}

// handleEvents enqueues an activity event. Always fast: the write happens on
// the queue's own schedule.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var body eventRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, "invalid_request", "malformed JSON body", http.StatusBadRequest)
		return
	}
	if body.Type == "" {
		writeError(w, "invalid_request", "type is required", http.StatusBadRequest)
		return
	}

	s.recorder.Enqueue(telemetry.Event{
		Type:       telemetry.EventType(body.Type),
		Data:       body.Data,
		ContextURL: body.ContextURL,
		ClientInfo: r.UserAgent(),
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
