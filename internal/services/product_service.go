// internal/services/product_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/scpnet/scp-backend/internal/access"
	"github.com/scpnet/scp-backend/internal/i18n"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
	"github.com/scpnet/scp-backend/internal/utils"
)

type ProductService struct {
	store *repository.Store
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,notblank,max=255"`
	Description string          `json:"description" validate:"max=5000"`
	Unit        string          `json:"unit" validate:"required,notblank,max=32"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"min=0"`
	MOQ         int             `json:"moq" validate:"omitempty,min=1"`
	IsActive    *bool           `json:"is_active,omitempty"`
	Tags        []string        `json:"tags,omitempty" validate:"max=20,dive,max=64"`
}

// UpdateProductRequest is partial: nil fields keep their value.
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,notblank,max=255"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=5000"`
	Unit        *string          `json:"unit,omitempty" validate:"omitempty,notblank,max=32"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,min=0"`
	MOQ         *int             `json:"moq,omitempty" validate:"omitempty,min=1"`
	IsActive    *bool            `json:"is_active,omitempty"`
	Tags        []string         `json:"tags,omitempty" validate:"max=20,dive,max=64"`
}

func NewProductService(store *repository.Store) *ProductService {
	return &ProductService{store: store}
}

func invalidPrice() *Error {
	return ErrBadRequest(i18n.KeyValidationInvalid, "price").with("price", "must be greater than 0")
}

func (s *ProductService) Create(ctx context.Context, p access.Principal, req *CreateProductRequest) (*models.Product, error) {
	supplierID, err := s.catalogOwner(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	if !req.Price.IsPositive() {
		return nil, invalidPrice()
	}

	product := &models.Product{
		SupplierID:  supplierID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Unit:        strings.TrimSpace(req.Unit),
		Price:       req.Price.Round(2),
		Stock:       req.Stock,
		MOQ:         req.MOQ,
		IsActive:    true,
		Tags:        req.Tags,
	}
	if product.MOQ == 0 {
		product.MOQ = 1
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.store.Products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	logrus.WithFields(logrus.Fields{"product_id": product.ID, "supplier_id": supplierID}).Info("Product created")
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, p access.Principal, productID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	supplierID, err := s.catalogOwner(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	if req.Price != nil && !req.Price.IsPositive() {
		return nil, invalidPrice()
	}

	product, err := s.ownProduct(ctx, supplierID, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Unit != nil {
		product.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.Price != nil {
		product.Price = req.Price.Round(2)
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.MOQ != nil {
		product.MOQ = *req.MOQ
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.Tags != nil {
		product.Tags = req.Tags
	}

	if err := s.store.Products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// Delete hides the product from the catalog. Order lines keep referencing it.
func (s *ProductService) Delete(ctx context.Context, p access.Principal, productID uuid.UUID) error {
	supplierID, err := s.catalogOwner(ctx, p)
	if err != nil {
		return err
	}
	product, err := s.ownProduct(ctx, supplierID, productID)
	if err != nil {
		return err
	}
	if err := s.store.Products.Delete(ctx, product.ID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// ListMine lists the whole catalog, inactive items included, for any
// supplier role.
func (s *ProductService) ListMine(ctx context.Context, p access.Principal, params utils.PaginationParams) ([]models.Product, int64, error) {
	supplierID, err := supplierOf(ctx, s.store, p)
	if err != nil {
		return nil, 0, err
	}
	return s.list(ctx, repository.ProductFilter{
		SupplierID: supplierID,
		Page:       pageOf(params.Limit, params.Offset),
	})
}

// ListForSupplier is the consumer view: active products behind an
// ACCEPTED link.
func (s *ProductService) ListForSupplier(ctx context.Context, p access.Principal, supplierID uuid.UUID, params utils.PaginationParams) ([]models.Product, int64, error) {
	if !access.IsConsumer(p) {
		return nil, 0, roleForbidden(p)
	}
	if _, err := acceptedLinkBetween(ctx, s.store, p.UserID(), supplierID); err != nil {
		return nil, 0, err
	}
	return s.list(ctx, repository.ProductFilter{
		SupplierID: supplierID,
		OnlyActive: true,
		Page:       pageOf(params.Limit, params.Offset),
	})
}

// Get applies the list visibility rules to a single product.
func (s *ProductService) Get(ctx context.Context, p access.Principal, productID uuid.UUID) (*models.Product, error) {
	product, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}

	if access.IsConsumer(p) {
		if _, err := acceptedLinkBetween(ctx, s.store, p.UserID(), product.SupplierID); err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, ErrNotFound(i18n.KeyProductNotFound)
		}
		return product, nil
	}

	supplierID, err := supplierOf(ctx, s.store, p)
	if err != nil {
		return nil, err
	}
	if product.SupplierID != supplierID {
		return nil, ErrNotFound(i18n.KeyProductNotFound)
	}
	return product, nil
}

func (s *ProductService) list(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	products, total, err := s.store.Products.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func (s *ProductService) catalogOwner(ctx context.Context, p access.Principal) (uuid.UUID, error) {
	if !access.CanManageCatalog(p) {
		return uuid.Nil, roleForbidden(p)
	}
	return supplierOf(ctx, s.store, p)
}

func (s *ProductService) load(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.store.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, ErrNotFound(i18n.KeyProductNotFound)
	}
	return product, nil
}

func (s *ProductService) ownProduct(ctx context.Context, supplierID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.SupplierID != supplierID {
		return nil, ErrForbidden(i18n.KeyOrderWrongSupplier, product.ID)
	}
	return product, nil
}
