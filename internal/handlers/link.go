package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scpnet/scp-backend/internal/access"
	"github.com/scpnet/scp-backend/internal/i18n"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/services"
	"github.com/scpnet/scp-backend/internal/utils"
)

type LinkHandler struct {
	linkService *services.LinkService
}

func NewLinkHandler(linkService *services.LinkService) *LinkHandler {
	return &LinkHandler{linkService: linkService}
}

// POST /links/:id, where id names the supplier
func (h *LinkHandler) Request(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	supplierID, ok := parseID(c, "id", "supplier")
	if !ok {
		return
	}

	link, err := h.linkService.Request(c.Request.Context(), p, supplierID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, i18n.KeyLinkRequested, link)
}

// GET /links
func (h *LinkHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	links, total, err := h.linkService.List(c.Request.Context(), p, services.LinkListParams{
		Status:           models.LinkStatus(c.Query("status")),
		PaginationParams: params,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(links, total, params))
}

// POST /links/:id/accept
func (h *LinkHandler) Accept(c *gin.Context) {
	h.decide(c, h.linkService.Accept)
}

// POST /links/:id/block
func (h *LinkHandler) Block(c *gin.Context) {
	h.decide(c, h.linkService.Block)
}

// POST /links/:id/remove
func (h *LinkHandler) Remove(c *gin.Context) {
	h.decide(c, h.linkService.Remove)
}

type linkDecision func(ctx context.Context, p access.Principal, linkID uuid.UUID) (*models.Link, error)

func (h *LinkHandler) decide(c *gin.Context, fn linkDecision) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "link")
	if !ok {
		return
	}

	link, err := fn(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.KeyLinkUpdated, link)
}
