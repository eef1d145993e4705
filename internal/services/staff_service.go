package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scpnet/scp-backend/internal/access"
	"github.com/scpnet/scp-backend/internal/i18n"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
	"github.com/scpnet/scp-backend/internal/utils"
)

type StaffService struct {
	store *repository.Store
}

type CreateStaffRequest struct {
	Email    string           `json:"email" validate:"required,email,max=255"`
	Password string           `json:"password" validate:"required,password"`
	Role     models.StaffRole `json:"role" validate:"required"`
}

type UpdateStaffRoleRequest struct {
	Role models.StaffRole `json:"role" validate:"required"`
}

func NewStaffService(store *repository.Store) *StaffService {
	return &StaffService{store: store}
}

// Create opens a staff seat: a new account holding the seat's credentials
// plus the registry row naming the owner as inviter.
func (s *StaffService) Create(ctx context.Context, p access.Principal, req *CreateStaffRequest) (*models.SupplierStaff, error) {
	if !access.CanManageStaff(p) {
		return nil, roleForbidden(p)
	}
	supplierID, err := supplierOf(ctx, s.store, p)
	if err != nil {
		return nil, err
	}

	req.Email = normalizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	if !req.Role.Valid() {
		return nil, ErrBadRequest(i18n.KeyStaffInvalidRole).with("role", req.Role)
	}

	user := &models.User{
		Email: req.Email,
		Role:  req.Role.UserRole(),
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	staff := &models.SupplierStaff{
		SupplierID:  supplierID,
		Role:        req.Role,
		InvitedByID: p.UserID(),
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		existing, err := tx.Users.GetByEmail(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if existing != nil {
			return ErrConflict(i18n.KeyAuthEmailTaken)
		}

		if err := tx.Users.Create(ctx, user); err != nil {
			if isDuplicate(err) {
				return ErrConflict(i18n.KeyAuthEmailTaken)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		staff.UserID = user.ID
		if err := tx.Staff.Create(ctx, staff); err != nil {
			return fmt.Errorf("failed to create staff member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	staff.User = user
	logrus.WithFields(logrus.Fields{
		"supplier_id": supplierID,
		"staff_id":    staff.ID,
		"role":        staff.Role,
	}).Info("Staff member created")
	return staff, nil
}

func (s *StaffService) List(ctx context.Context, p access.Principal) ([]models.SupplierStaff, error) {
	if !access.CanViewStaff(p) {
		return nil, roleForbidden(p)
	}
	supplierID, err := supplierOf(ctx, s.store, p)
	if err != nil {
		return nil, err
	}

	staff, err := s.store.Staff.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return staff, nil
}

// UpdateRole moves a seat between MANAGER and SALES. The account role
// follows the seat role in the same transaction.
func (s *StaffService) UpdateRole(ctx context.Context, p access.Principal, staffID uuid.UUID, req *UpdateStaffRoleRequest) (*models.SupplierStaff, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	if !req.Role.Valid() {
		return nil, ErrBadRequest(i18n.KeyStaffInvalidRole).with("role", req.Role)
	}

	staff, err := s.ownedSeat(ctx, p, staffID)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Staff.UpdateRole(ctx, staff.ID, req.Role); err != nil {
			return fmt.Errorf("failed to update staff role: %w", err)
		}
		if err := tx.Users.UpdateRole(ctx, staff.UserID, req.Role.UserRole()); err != nil {
			return fmt.Errorf("failed to update user role: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	staff.Role = req.Role
	if staff.User != nil {
		staff.User.Role = req.Role.UserRole()
	}
	return staff, nil
}

// Delete removes the seat together with the account behind it.
func (s *StaffService) Delete(ctx context.Context, p access.Principal, staffID uuid.UUID) error {
	staff, err := s.ownedSeat(ctx, p, staffID)
	if err != nil {
		return err
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Staff.Delete(ctx, staff.ID); err != nil {
			return fmt.Errorf("failed to delete staff member: %w", err)
		}
		if err := tx.Users.Delete(ctx, staff.UserID); err != nil {
			return fmt.Errorf("failed to delete staff account: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"staff_id": staff.ID, "user_id": staff.UserID}).Info("Staff member deleted")
	return nil
}

// ownedSeat loads a seat for an owner and rejects seats of other suppliers.
func (s *StaffService) ownedSeat(ctx context.Context, p access.Principal, staffID uuid.UUID) (*models.SupplierStaff, error) {
	if !access.CanManageStaff(p) {
		return nil, roleForbidden(p)
	}
	supplierID, err := supplierOf(ctx, s.store, p)
	if err != nil {
		return nil, err
	}

	staff, err := s.store.Staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to load staff member: %w", err)
	}
	if staff == nil {
		return nil, ErrNotFound(i18n.KeyStaffNotFound)
	}
	if staff.SupplierID != supplierID {
		return nil, ErrForbidden(i18n.KeyStaffOtherCompany)
	}
	return staff, nil
}
