package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"netclub/internal/service"
)

// SessionsHandler exposes the session start/end engine.
type SessionsHandler struct {
	sessions *service.SessionService
	logger   *zap.Logger
}

// NewSessionsHandler builds the handler.
func NewSessionsHandler(sessions *service.SessionService, logger *zap.Logger) *SessionsHandler {
	return &SessionsHandler{sessions: sessions, logger: logger}
}

type startSessionRequest struct {
	MemberID  int64 `json:"member_id"`
	MachineID int64 `json:"machine_id"`
}

type endSessionRequest struct {
	MachineID int64 `json:"machine_id"`
}

// Start handles POST /api/sessions/start.
func (h *SessionsHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	record, err := h.sessions.Start(r.Context(), service.StartSessionInput{
		MemberID:  req.MemberID,
		MachineID: req.MachineID,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"record": record})
}

// End handles POST /api/sessions/end.
func (h *SessionsHandler) End(w http.ResponseWriter, r *http.Request) {
	var req endSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	result, err := h.sessions.End(r.Context(), service.EndSessionInput{MachineID: req.MachineID})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
