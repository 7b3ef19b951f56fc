package sync

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mediconsult/mediconsult-api/internal/handler"
	"github.com/mediconsult/mediconsult-api/internal/model"
	"github.com/mediconsult/mediconsult-api/internal/service/sync"
	apperrors "github.com/mediconsult/mediconsult-api/pkg/errors"
	"github.com/mediconsult/mediconsult-api/pkg/httputil"
)

type Handler struct {
	service *sync.Service
}

func NewHandler(service *sync.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/sync")
	{
		group.POST("/push", h.Push)
		group.GET("/pull", h.Pull)
	}
}

// Push upserts a batch of client records. Group failures are reported inside
// the response body, not as an HTTP error, so partial progress survives.
func (h *Handler) Push(c *gin.Context) {
	if _, ok := handler.CallerFromContext(c); !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required"))
		return
	}

	var req model.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid request payload", err))
		return
	}

	resp, err := h.service.Push(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, resp)
}

// Pull returns consultations updated since the client's checkpoint, scoped to
// the caller's role.
func (h *Handler) Pull(c *gin.Context) {
	caller, ok := handler.CallerFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required"))
		return
	}

	since := time.Time{}
	if raw := c.Query("since"); raw != "" {
		millis, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || millis < 0 {
			httputil.RespondWithError(c, apperrors.NewBadRequest("invalid since parameter", err))
			return
		}
		since = time.UnixMilli(millis).UTC()
	}

	resp, err := h.service.Pull(c.Request.Context(), since, caller)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, resp)
}
