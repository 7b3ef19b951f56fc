package specialization

import (
	"github.com/gin-gonic/gin"

	"github.com/mediconsult/mediconsult-api/internal/service/specialization"
	"github.com/mediconsult/mediconsult-api/pkg/httputil"
)

type Handler struct {
	service *specialization.Service
}

func NewHandler(service *specialization.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/specializations", h.ListSpecializations)
}

func (h *Handler) ListSpecializations(c *gin.Context) {
	specializations, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, specializations)
}
