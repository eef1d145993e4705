package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scpnet/scp-backend/internal/i18n"
	"github.com/scpnet/scp-backend/internal/services"
	"github.com/scpnet/scp-backend/internal/utils"
)

type StaffHandler struct {
	staffService *services.StaffService
}

func NewStaffHandler(staffService *services.StaffService) *StaffHandler {
	return &StaffHandler{staffService: staffService}
}

// POST /staff
func (h *StaffHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req services.CreateStaffRequest
	if !bindJSON(c, &req) {
		return
	}

	staff, err := h.staffService.Create(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, i18n.KeyStaffCreated, staff)
}

// GET /staff
func (h *StaffHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	staff, err := h.staffService.List(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, staff)
}

// PATCH /staff/:id
func (h *StaffHandler) UpdateRole(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "staff")
	if !ok {
		return
	}
	var req services.UpdateStaffRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	staff, err := h.staffService.UpdateRole(c.Request.Context(), p, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.KeyStaffUpdated, staff)
}

// DELETE /staff/:id
func (h *StaffHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "staff")
	if !ok {
		return
	}

	if err := h.staffService.Delete(c.Request.Context(), p, id); err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.KeyStaffDeleted, nil)
}
