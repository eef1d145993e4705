package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/scpnet/scp-backend/internal/i18n"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/services"
	"github.com/scpnet/scp-backend/internal/utils"
)

type ComplaintHandler struct {
	complaintService *services.ComplaintService
}

func NewComplaintHandler(complaintService *services.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{complaintService: complaintService}
}

// POST /complaints
func (h *ComplaintHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req services.CreateComplaintRequest
	if !bindJSON(c, &req) {
		return
	}

	complaint, err := h.complaintService.Create(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, i18n.KeyComplaintCreated, complaint)
}

// GET /complaints?status=&mine=
func (h *ComplaintHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)
	mine, _ := strconv.ParseBool(c.DefaultQuery("mine", "false"))

	complaints, total, err := h.complaintService.List(c.Request.Context(), p, services.ComplaintListParams{
		Status:           models.ComplaintStatus(c.Query("status")),
		Mine:             mine,
		PaginationParams: params,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(complaints, total, params))
}

// PATCH /complaints/:id/status
func (h *ComplaintHandler) UpdateStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "complaint")
	if !ok {
		return
	}
	var req services.UpdateComplaintStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	complaint, err := h.complaintService.UpdateStatus(c.Request.Context(), p, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.KeyComplaintUpdated, complaint)
}

// POST /complaints/:id/escalate
func (h *ComplaintHandler) Escalate(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "complaint")
	if !ok {
		return
	}

	complaint, err := h.complaintService.Escalate(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.KeyComplaintEscalated, complaint)
}
