package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/selah-im/intake_server/internal/model/dto"
	"github.com/selah-im/intake_server/internal/pkg/response"
	"github.com/selah-im/intake_server/internal/service"
)

const (
	msgInvalidIntake = "Please complete all contemplative questions"
	msgStoreFailed   = "Please try again in a moment"
	msgEndpointAlive = "Sacred intake endpoint active"
)

type IntakeHandler struct {
	intakeService *service.IntakeService
}

func NewIntakeHandler(intakeService *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{
		intakeService: intakeService,
	}
}

// Submit accepts the public application form.
// POST /applications/submit
func (h *IntakeHandler) Submit(c *gin.Context) {
	var req dto.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.IntakeFailure(c, http.StatusBadRequest, msgInvalidIntake, []service.FieldError{{
			Field:   "body",
			Code:    service.CodeInvalidJSON,
			Message: "Request body must be a JSON object with string fields",
		}})
		return
	}

	resp, err := h.intakeService.Submit(c.Request.Context(), &req, c.Request.UserAgent())
	if err != nil {
		var validationErr *service.ValidationError
		switch {
		case errors.As(err, &validationErr):
			response.IntakeFailure(c, http.StatusBadRequest, msgInvalidIntake, validationErr.Details)
		default:
			response.IntakeFailure(c, http.StatusInternalServerError, msgStoreFailed, nil)
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Health is the liveness probe of the intake route.
// GET /applications/submit
func (h *IntakeHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Message:   msgEndpointAlive,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}
