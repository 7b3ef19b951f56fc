package appointment

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediconsult/mediconsult-api/internal/handler"
	"github.com/mediconsult/mediconsult-api/internal/model"
	"github.com/mediconsult/mediconsult-api/internal/service/booking"
	apperrors "github.com/mediconsult/mediconsult-api/pkg/errors"
	"github.com/mediconsult/mediconsult-api/pkg/httputil"
)

type Handler struct {
	service *booking.Service
}

func NewHandler(service *booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.PATCH("/:id", h.TransitionAppointment)
		appointments.GET("/doctor", h.ListForDoctor)
		appointments.GET("/patient", h.ListForPatient)
	}
}

// CreateAppointment books a PENDING appointment for the authenticated
// patient.
func (h *Handler) CreateAppointment(c *gin.Context) {
	caller, ok := handler.CallerFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required"))
		return
	}

	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid request payload", err))
		return
	}

	scheduledAt, err := booking.ParseScheduledAt(req.ScheduledAt)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointment, err := h.service.Create(c.Request.Context(), booking.CreateInput{
		PatientID:       caller.ID,
		DoctorID:        req.DoctorID,
		ScheduledAt:     scheduledAt,
		DurationMinutes: req.DurationMinutes,
		Reason:          req.Reason,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, appointment)
}

// TransitionAppointment applies an ACCEPT, CANCEL or COMPLETE action.
func (h *Handler) TransitionAppointment(c *gin.Context) {
	caller, ok := handler.CallerFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid appointment ID", err))
		return
	}

	var req model.TransitionAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid request payload", err))
		return
	}

	appointment, err := h.service.Transition(c.Request.Context(), id, req.Action, caller)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointment)
}

// ListForDoctor returns the authenticated doctor's appointments, soonest
// first.
func (h *Handler) ListForDoctor(c *gin.Context) {
	caller, ok := handler.CallerFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required"))
		return
	}
	if !caller.IsDoctor() && !caller.IsAdmin() {
		httputil.RespondWithError(c, apperrors.NewAction(apperrors.ReasonForbidden, "doctor role required"))
		return
	}

	doctorID := caller.ID
	if caller.IsAdmin() {
		if raw := c.Query("doctor_id"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				httputil.RespondWithError(c, apperrors.NewBadRequest("invalid doctor ID", err))
				return
			}
			doctorID = parsed
		}
	}

	appointments, err := h.service.ListForDoctor(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointments)
}

// ListForPatient returns the authenticated patient's appointments, soonest
// first.
func (h *Handler) ListForPatient(c *gin.Context) {
	caller, ok := handler.CallerFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required"))
		return
	}

	appointments, err := h.service.ListForPatient(c.Request.Context(), caller.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointments)
}
