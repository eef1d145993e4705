package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/scpnet/scp-backend/internal/i18n"
	"github.com/scpnet/scp-backend/internal/services"
	"github.com/scpnet/scp-backend/internal/utils"
)

type SupplierHandler struct {
	supplierService *services.SupplierService
}

func NewSupplierHandler(supplierService *services.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

// POST /suppliers
func (h *SupplierHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req services.CreateSupplierRequest
	if !bindJSON(c, &req) {
		return
	}

	supplier, err := h.supplierService.Create(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, i18n.KeySupplierCreated, supplier)
}

// GET /suppliers
func (h *SupplierHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	suppliers, total, err := h.supplierService.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(suppliers, total, params))
}

// GET /suppliers/me
func (h *SupplierHandler) Mine(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	supplier, err := h.supplierService.GetMine(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, supplier)
}

// GET /suppliers/:id
func (h *SupplierHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "supplier")
	if !ok {
		return
	}

	supplier, err := h.supplierService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, supplier)
}
