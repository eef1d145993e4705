package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scpnet/scp-backend/internal/access"
	"github.com/scpnet/scp-backend/internal/i18n"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
	"github.com/scpnet/scp-backend/internal/utils"
)

type SupplierService struct {
	store *repository.Store
}

type CreateSupplierRequest struct {
	Name        string `json:"name" validate:"required,notblank,max=255"`
	Description string `json:"description" validate:"max=5000"`
}

func NewSupplierService(store *repository.Store) *SupplierService {
	return &SupplierService{store: store}
}

// Create registers the caller's company. An owner holds exactly one.
func (s *SupplierService) Create(ctx context.Context, p access.Principal, req *CreateSupplierRequest) (*models.Supplier, error) {
	if !access.CanCreateSupplier(p) {
		return nil, roleForbidden(p)
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	supplier := &models.Supplier{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     p.UserID(),
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		owned, err := tx.Suppliers.GetByOwnerID(ctx, p.UserID())
		if err != nil {
			return fmt.Errorf("failed to look up owned supplier: %w", err)
		}
		if owned != nil {
			return ErrConflict(i18n.KeySupplierOwnerHasOne)
		}

		named, err := tx.Suppliers.GetByName(ctx, req.Name)
		if err != nil {
			return fmt.Errorf("failed to look up supplier name: %w", err)
		}
		if named != nil {
			return ErrConflict(i18n.KeySupplierNameTaken)
		}

		if err := tx.Suppliers.Create(ctx, supplier); err != nil {
			if isDuplicate(err) {
				return ErrConflict(i18n.KeySupplierNameTaken)
			}
			return fmt.Errorf("failed to create supplier: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"supplier_id": supplier.ID, "owner_id": supplier.OwnerID}).Info("Supplier created")
	return supplier, nil
}

// GetMine returns the supplier the caller acts for, owned or staffed.
func (s *SupplierService) GetMine(ctx context.Context, p access.Principal) (*models.Supplier, error) {
	supplierID, err := supplierOf(ctx, s.store, p)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, supplierID)
}

func (s *SupplierService) Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	supplier, err := s.store.Suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load supplier: %w", err)
	}
	if supplier == nil {
		return nil, ErrNotFound(i18n.KeySupplierNotFound)
	}
	return supplier, nil
}

func (s *SupplierService) List(ctx context.Context, params utils.PaginationParams) ([]models.Supplier, int64, error) {
	suppliers, total, err := s.store.Suppliers.List(ctx, repository.SupplierFilter{
		Search: strings.TrimSpace(params.Search),
		Page:   pageOf(params.Limit, params.Offset),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, total, nil
}
