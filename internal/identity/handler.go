package identity

import (
	"net/http"

	"go.uber.org/zap"

	"go-market/internal/apperr"
	"go-market/internal/render"
)

type Handler struct {
	log *zap.Logger
}

func NewHandler(log *zap.Logger) *Handler {
	return &Handler{log: log}
}

// Me echoes the verified identity of the caller.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := FromContext(r.Context())
	if !ok {
		render.Error(w, h.log, apperr.ErrUnauthenticated)
		return
	}
	render.JSON(w, http.StatusOK, id)
}
