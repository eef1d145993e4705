package gormstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
)

type linkRepo struct {
	db *gorm.DB
}

func (r *linkRepo) Create(ctx context.Context, link *models.Link) error {
	return translate(r.db.WithContext(ctx).Create(link).Error)
}

func (r *linkRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Link, error) {
	return first(r.db.WithContext(ctx).Where("id = ?", id), &models.Link{})
}

func (r *linkRepo) GetByPair(ctx context.Context, consumerID, supplierID uuid.UUID) (*models.Link, error) {
	return first(r.db.WithContext(ctx).Where("consumer_id = ? AND supplier_id = ?", consumerID, supplierID), &models.Link{})
}

func (r *linkRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from []models.LinkStatus, to models.LinkStatus) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Link{}).Where("id = ?", id)
	if len(from) > 0 {
		query = query.Where("status IN ?", from)
	}
	res := query.Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	return res.RowsAffected > 0, res.Error
}

func (r *linkRepo) List(ctx context.Context, filter repository.LinkFilter) ([]models.Link, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Link{})
	if filter.ConsumerID != nil {
		query = query.Where("consumer_id = ?", *filter.ConsumerID)
	}
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var links []models.Link
	err := page(query.Order("created_at DESC"), filter.Page).Find(&links).Error
	return links, total, err
}
