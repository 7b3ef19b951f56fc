package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/mediconsult/mediconsult-api/internal/model"
)

const callerContextKey = "caller"

// SetCaller stores the authenticated caller on the request context. The auth
// middleware is the only writer.
func SetCaller(c *gin.Context, caller model.Caller) {
	c.Set(callerContextKey, caller)
}

// CallerFromContext returns the authenticated caller set by the auth
// middleware.
func CallerFromContext(c *gin.Context) (model.Caller, bool) {
	value, ok := c.Get(callerContextKey)
	if !ok {
		return model.Caller{}, false
	}
	caller, ok := value.(model.Caller)
	return caller, ok
}

// RegisterValidators installs custom binding validators on gin's validator
// engine. Call once at startup, before routes are served.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("appointment_action", validAppointmentAction)
	}
}

func validAppointmentAction(fl validator.FieldLevel) bool {
	switch model.AppointmentAction(fl.Field().String()) {
	case model.AppointmentActionAccept, model.AppointmentActionCancel, model.AppointmentActionComplete:
		return true
	default:
		return false
	}
}
