package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/replybase/replybase/internal"
	"github.com/replybase/replybase/internal/transport"
	"github.com/replybase/replybase/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.Service.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			h.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		if errors.Is(err, internal.ErrResolutionFailed) {
			h.WriteError(w, http.StatusServiceUnavailable, "role resolution unavailable")
			return
		}
		h.Logger.Error("get profile failed", "user_id", userID, "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}
