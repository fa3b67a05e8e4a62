package invite

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/replybase/replybase/internal"
	"github.com/replybase/replybase/internal/transport"
	"github.com/replybase/replybase/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:     svc,
	}
}

func (h *Handler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	var dto CreateInviteDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inviterID := internal.UserIDFromContext(r.Context())
	if inviterID == "" {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	created, err := h.Service.CreateInvite(r.Context(), inviterID, dto)
	if err != nil {
		h.writeInviteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created)
}

// AcceptInvite serves the public invitation link. No session is established
// here; the caller authenticates separately after redirecting.
func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	var dto AcceptInviteDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.AcceptInvite(r.Context(), dto)
	if err != nil {
		h.writeInviteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) RevokeInvite(w http.ResponseWriter, r *http.Request) {
	inviteID := chi.URLParam(r, "id")
	byUserID := internal.UserIDFromContext(r.Context())
	if byUserID == "" {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.Service.RevokeInvite(r.Context(), inviteID, byUserID); err != nil {
		h.writeInviteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.URL.Query().Get("workspace_id")
	if workspaceID == "" {
		h.WriteError(w, http.StatusBadRequest, "workspace_id is required")
		return
	}

	callerID := internal.UserIDFromContext(r.Context())
	if callerID == "" {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	invites, err := h.Service.ListPending(r.Context(), callerID, workspaceID)
	if err != nil {
		h.writeInviteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"invites": invites})
}

// writeInviteError maps service errors onto responses. Every invite lookup
// terminal state collapses to one indistinguishable 400 so the response
// never reveals whether a token was wrong, used, revoked or expired; the
// distinct codes stay in the logs.
func (h *Handler) writeInviteError(w http.ResponseWriter, err error) {
	if internal.IsInviteTerminal(err) {
		if appErr, ok := internal.IsAppError(err); ok {
			h.Logger.Warn("invite request rejected", "code", appErr.Code)
		}
		h.WriteError(w, http.StatusBadRequest, internal.GenericInviteMessage)
		return
	}

	appErr, ok := internal.IsAppError(err)
	if !ok {
		h.Logger.Error("invite request failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if internal.IsInvariantViolation(err) {
		h.Logger.Error("invite invariant violation", "code", appErr.Code, "error", err)
	} else {
		h.Logger.Warn("invite request rejected", "code", appErr.Code)
	}
	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}
