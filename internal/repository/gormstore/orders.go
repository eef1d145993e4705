package gormstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
)

type orderRepo struct {
	db *gorm.DB
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	return translate(r.db.WithContext(ctx).Create(order).Error)
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return first(r.db.WithContext(ctx).Preload("Items").Where("id = ?", id), &models.Order{})
}

func (r *orderRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	return res.RowsAffected > 0, res.Error
}

func (r *orderRepo) SetPaymentIntent(ctx context.Context, id uuid.UUID, paymentIntentID string) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("payment_intent_id", paymentIntentID).Error
}

func (r *orderRepo) List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
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

	var orders []models.Order
	err := page(query.Preload("Items").Order("created_at DESC"), filter.Page).Find(&orders).Error
	return orders, total, err
}

type complaintRepo struct {
	db *gorm.DB
}

func (r *complaintRepo) Create(ctx context.Context, complaint *models.Complaint) error {
	return translate(r.db.WithContext(ctx).Create(complaint).Error)
}

func (r *complaintRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	return first(r.db.WithContext(ctx).Where("id = ?", id), &models.Complaint{})
}

func (r *complaintRepo) Transition(ctx context.Context, id uuid.UUID, from models.ComplaintStatus, change repository.ComplaintChange) (bool, error) {
	updates := map[string]interface{}{
		"status":     change.Status,
		"updated_at": time.Now(),
	}
	if change.AssignedToID != nil {
		updates["assigned_to_id"] = *change.AssignedToID
	}
	if change.EscalatedAt != nil {
		updates["escalated_at"] = *change.EscalatedAt
	}
	if change.ResolvedAt != nil {
		updates["resolved_at"] = *change.ResolvedAt
	}

	res := r.db.WithContext(ctx).
		Model(&models.Complaint{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *complaintRepo) List(ctx context.Context, filter repository.ComplaintFilter) ([]models.Complaint, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Complaint{})
	if filter.SupplierID != nil {
		query = query.
			Joins("JOIN links ON links.id = complaints.link_id").
			Where("links.supplier_id = ?", *filter.SupplierID)
	}
	if filter.CreatedByID != nil {
		query = query.Where("complaints.created_by_id = ?", *filter.CreatedByID)
	}
	if filter.AssignedToID != nil {
		query = query.Where("complaints.assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.Status != "" {
		query = query.Where("complaints.status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var complaints []models.Complaint
	err := page(query.Select("complaints.*").Order("complaints.created_at DESC"), filter.Page).Find(&complaints).Error
	return complaints, total, err
}

type messageRepo struct {
	db *gorm.DB
}

func (r *messageRepo) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepo) ListByLink(ctx context.Context, linkID uuid.UUID, p repository.Page) ([]models.Message, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Message{}).Where("link_id = ?", linkID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []models.Message
	err := page(query.Order("created_at DESC"), p).Find(&messages).Error
	return messages, total, err
}
