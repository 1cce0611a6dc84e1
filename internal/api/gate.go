package api

import (
	"fmt"
	"net/http"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/security"
	"github.com/starford/dagaz/internal/sse"
)

// GateState handles GET /api/gate. Questions come back only while the gate
// is recovering; they are display-only in that state.
func (h *Handler) GateState(w http.ResponseWriter, r *http.Request) {
	resp := GateResponse{State: string(h.gate.State())}
	if h.gate.State() == security.StateRecovering {
		resp.Question1, resp.Question2 = h.gate.Questions()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Unlock handles POST /api/gate/unlock.
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req UnlockRequest
	if !decode(w, r, &req) {
		return
	}
	if !h.gate.CheckPassword(req.Password) {
		writeError(w, "unlock", fmt.Errorf("gate: %w", apperr.ErrAuth))
		return
	}
	writeJSON(w, http.StatusOK, GateResponse{State: string(h.gate.State())})
}

// Lock handles POST /api/gate/lock. Surfaces listening on the event stream
// withdraw themselves.
func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	h.gate.Lock()
	h.publish(sse.EventGateLocked)
	writeJSON(w, http.StatusOK, GateResponse{State: string(h.gate.State())})
}

// BeginRecovery handles POST /api/gate/recovery/begin.
func (h *Handler) BeginRecovery(w http.ResponseWriter, r *http.Request) {
	q1, q2, err := h.gate.BeginRecovery()
	if err != nil {
		writeError(w, "begin recovery", err)
		return
	}
	writeJSON(w, http.StatusOK, GateResponse{
		State:     string(h.gate.State()),
		Question1: q1,
		Question2: q2,
	})
}

// CancelRecovery handles POST /api/gate/recovery/cancel.
func (h *Handler) CancelRecovery(w http.ResponseWriter, r *http.Request) {
	h.gate.CancelRecovery()
	writeJSON(w, http.StatusOK, GateResponse{State: string(h.gate.State())})
}

// CheckAnswers handles POST /api/gate/recovery/answers. Success permits a
// follow-up credentials update without the old password.
func (h *Handler) CheckAnswers(w http.ResponseWriter, r *http.Request) {
	var req AnswersRequest
	if !decode(w, r, &req) {
		return
	}
	if !h.gate.CheckAnswers(req.Answer1, req.Answer2) {
		writeError(w, "check answers", fmt.Errorf("gate: %w", apperr.ErrAuth))
		return
	}
	writeJSON(w, http.StatusOK, GateResponse{State: string(h.gate.State())})
}

// SetCredentials handles PUT /api/gate/credentials.
func (h *Handler) SetCredentials(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decode(w, r, &req) {
		return
	}
	err := h.gate.SetPasswordAndQuestions(security.Update{
		Password:  req.Password,
		Question1: req.Question1,
		Answer1:   req.Answer1,
		Question2: req.Question2,
		Answer2:   req.Answer2,
	})
	if err != nil {
		writeError(w, "set credentials", err)
		return
	}
	writeJSON(w, http.StatusOK, GateResponse{State: string(h.gate.State())})
}

// ScheduleReset handles POST /api/gate/reset: it persists the single-shot
// wipe marker consumed on the next process start.
func (h *Handler) ScheduleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.ScheduleReset(); err != nil {
		writeError(w, "schedule reset", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
