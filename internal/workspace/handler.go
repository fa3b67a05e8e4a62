package workspace

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

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var dto SignupDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.Signup(r.Context(), dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "id")
	callerID := internal.UserIDFromContext(r.Context())

	ws, err := h.Service.GetWorkspace(r.Context(), callerID, workspaceID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ws)
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "id")
	callerID := internal.UserIDFromContext(r.Context())

	employees, err := h.Service.ListEmployees(r.Context(), callerID, workspaceID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"employees": employees})
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userID")
	callerID := internal.UserIDFromContext(r.Context())

	var dto UpdateEmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.writeServiceError(w, err)
		return
	}

	err := h.Service.UpdateEmployeeProfile(r.Context(), callerID, workspaceID, userID, ProfileFields{
		Name:  dto.Name,
		Phone: dto.Phone,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userID")
	callerID := internal.UserIDFromContext(r.Context())

	if err := h.Service.DeactivateEmployee(r.Context(), callerID, workspaceID, userID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		h.Logger.Error("workspace request failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}
