package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"playpark-backend/internal/domain"
	"playpark-backend/internal/logger"
	"playpark-backend/internal/service"
)

// SessionHandler exposes the engine's lifecycle operations over HTTP.
type SessionHandler struct {
	svc service.RentalService
}

func NewSessionHandler(svc service.RentalService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// Register mounts the session routes on the router.
func (h *SessionHandler) Register(r *mux.Router) {
	r.HandleFunc("/v1/sessions", h.HandleCreate).Methods(http.MethodPost)
	r.HandleFunc("/v1/sessions/{id}", h.HandleGet).Methods(http.MethodGet)
	r.HandleFunc("/v1/sessions/{id}/extend", h.HandleExtend).Methods(http.MethodPost)
	r.HandleFunc("/v1/sessions/{id}/cancel", h.HandleCancel).Methods(http.MethodPost)
	r.HandleFunc("/v1/sessions/{id}/complete", h.HandleComplete).Methods(http.MethodPost)
	r.HandleFunc("/v1/branches/{id}/sessions", h.HandleListByBranch).Methods(http.MethodGet)
}

type createSessionRequest struct {
	BranchID        string `json:"branch_id"`
	GameID          string `json:"game_id"`
	DurationMinutes int32  `json:"duration_minutes"`
	// DepositCents is recorded on the session as-is; settlement is
	// handled at the counter, not here.
	DepositCents int64 `json:"deposit_cents,omitempty"`
}

func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.BranchID == "" || req.GameID == "" {
		http.Error(w, "branch_id and game_id are required", http.StatusBadRequest)
		return
	}

	session, err := h.svc.Create(r.Context(), req.BranchID, req.GameID, req.DurationMinutes, req.DepositCents)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type extendSessionRequest struct {
	ExtraMinutes int32 `json:"extra_minutes"`
}

func (h *SessionHandler) HandleExtend(w http.ResponseWriter, r *http.Request) {
	var req extendSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.svc.Extend(r.Context(), mux.Vars(r)["id"], req.ExtraMinutes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Cancel(r.Context(), mux.Vars(r)["id"], time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type completeSessionRequest struct {
	FinalAmountCents *int64 `json:"final_amount_cents,omitempty"`
}

func (h *SessionHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	if req.FinalAmountCents != nil && *req.FinalAmountCents < 0 {
		http.Error(w, "final_amount_cents must be non-negative", http.StatusBadRequest)
		return
	}

	session, err := h.svc.Complete(r.Context(), mux.Vars(r)["id"], time.Now(), req.FinalAmountCents)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type listSessionsResponse struct {
	Sessions []domain.RentalSession `json:"sessions"`
	Total    int32                  `json:"total"`
}

func (h *SessionHandler) HandleListByBranch(w http.ResponseWriter, r *http.Request) {
	page := queryInt32(r, "page", 1)
	pageSize := queryInt32(r, "page_size", 20)
	status := r.URL.Query().Get("status")

	sessions, total, err := h.svc.ListByBranch(r.Context(), mux.Vars(r)["id"], status, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions, Total: total})
}

func queryInt32(r *http.Request, key string, fallback int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v < 1 {
		return fallback
	}
	return int32(v)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// writeError maps the domain error taxonomy to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrInvalidDuration), errors.Is(err, domain.ErrInvalidExtension):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrGameNotFound),
		errors.Is(err, domain.ErrBranchNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotActive), errors.Is(err, domain.ErrAlreadyTerminal):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
