package gormstore

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
)

type userRepo struct {
	db *gorm.DB
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return first(r.db.WithContext(ctx).Where("id = ?", id), &models.User{})
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return first(r.db.WithContext(ctx).Where("email = ?", email), &models.User{})
}

func (r *userRepo) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role).Error
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error
}

type supplierRepo struct {
	db *gorm.DB
}

func (r *supplierRepo) Create(ctx context.Context, supplier *models.Supplier) error {
	return translate(r.db.WithContext(ctx).Create(supplier).Error)
}

func (r *supplierRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	return first(r.db.WithContext(ctx).Where("id = ?", id), &models.Supplier{})
}

func (r *supplierRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.Supplier, error) {
	return first(r.db.WithContext(ctx).Where("owner_id = ?", ownerID), &models.Supplier{})
}

func (r *supplierRepo) GetByName(ctx context.Context, name string) (*models.Supplier, error) {
	return first(r.db.WithContext(ctx).Where("name = ?", name), &models.Supplier{})
}

func (r *supplierRepo) List(ctx context.Context, filter repository.SupplierFilter) ([]models.Supplier, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Supplier{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var suppliers []models.Supplier
	err := page(query.Order("created_at DESC"), filter.Page).Find(&suppliers).Error
	return suppliers, total, err
}

type staffRepo struct {
	db *gorm.DB
}

func (r *staffRepo) Create(ctx context.Context, staff *models.SupplierStaff) error {
	return translate(r.db.WithContext(ctx).Create(staff).Error)
}

func (r *staffRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SupplierStaff, error) {
	return first(r.db.WithContext(ctx).Preload("User").Where("id = ?", id), &models.SupplierStaff{})
}

func (r *staffRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.SupplierStaff, error) {
	return first(r.db.WithContext(ctx).Where("user_id = ?", userID), &models.SupplierStaff{})
}

func (r *staffRepo) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierStaff, error) {
	var staff []models.SupplierStaff
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("supplier_id = ?", supplierID).
		Order("created_at DESC").
		Find(&staff).Error
	return staff, err
}

func (r *staffRepo) UpdateRole(ctx context.Context, id uuid.UUID, role models.StaffRole) error {
	return r.db.WithContext(ctx).Model(&models.SupplierStaff{}).Where("id = ?", id).Update("role", role).Error
}

func (r *staffRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.SupplierStaff{}, "id = ?", id).Error
}

type auditLogRepo struct {
	db *gorm.DB
}

func (r *auditLogRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
