package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/selah-im/intake_server/internal/api/middleware"
	"github.com/selah-im/intake_server/internal/model/dto"
	"github.com/selah-im/intake_server/internal/pkg/response"
	"github.com/selah-im/intake_server/internal/service"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// Login
// POST /admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.adminService.Login(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrAdminDisabled):
			response.AuthError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}

// List
// GET /admin/applications?status=&page=&page_size=
func (h *AdminHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	items, total, err := h.adminService.List(c.Request.Context(), c.Query("status"), page, pageSize)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			response.ParamError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Get
// GET /admin/applications/:id
func (h *AdminHandler) Get(c *gin.Context) {
	detail, err := h.adminService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrApplicationNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, detail)
}

// UpdateStatus
// PATCH /admin/applications/:id/status
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	reviewer, _ := middleware.GetAdmin(c)

	app, err := h.adminService.UpdateStatus(c.Request.Context(), c.Param("id"), &req, reviewer)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrApplicationNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrStatusConflict):
			response.ConflictError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, app)
}

// Stats
// GET /admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, stats)
}
