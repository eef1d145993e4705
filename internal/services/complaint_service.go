package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scpnet/scp-backend/internal/access"
	"github.com/scpnet/scp-backend/internal/i18n"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
	"github.com/scpnet/scp-backend/internal/utils"
)

type ComplaintService struct {
	store    *repository.Store
	events   EventPublisher
	notifier Notifier
}

type CreateComplaintRequest struct {
	LinkID      *uuid.UUID `json:"link_id,omitempty"`
	OrderID     *uuid.UUID `json:"order_id,omitempty"`
	Description string     `json:"description" validate:"required,min=3,max=2000"`
}

type UpdateComplaintStatusRequest struct {
	Status models.ComplaintStatus `json:"status" validate:"required"`
}

type ComplaintListParams struct {
	Status models.ComplaintStatus
	Mine   bool
	utils.PaginationParams
}

func NewComplaintService(store *repository.Store, events EventPublisher, notifier Notifier) *ComplaintService {
	return &ComplaintService{
		store:    store,
		events:   events,
		notifier: notifier,
	}
}

// Create files an OPEN complaint. A complaint naming only an order is
// attached to the link between the caller and the order's supplier.
func (s *ComplaintService) Create(ctx context.Context, p access.Principal, req *CreateComplaintRequest) (*models.Complaint, error) {
	if !access.IsConsumer(p) {
		return nil, roleForbidden(p)
	}
	req.Description = strings.TrimSpace(req.Description)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	if req.LinkID == nil && req.OrderID == nil {
		return nil, ErrBadRequest(i18n.KeyComplaintTargetRequired)
	}

	var link *models.Link
	if req.LinkID != nil {
		l, err := loadLink(ctx, s.store, *req.LinkID)
		if err != nil {
			return nil, err
		}
		if err := EnsureParticipant(ctx, s.store, p, l); err != nil {
			return nil, err
		}
		if err := EnsureAccepted(l); err != nil {
			return nil, err
		}
		link = l
	}

	if req.OrderID != nil {
		order, err := loadOrder(ctx, s.store, *req.OrderID)
		if err != nil {
			return nil, err
		}
		if order.ConsumerID != p.UserID() {
			return nil, ErrForbidden(i18n.KeyOrderNotFound)
		}
		if link != nil && order.SupplierID != link.SupplierID {
			return nil, ErrBadRequest(i18n.KeyComplaintOrderMismatch)
		}
		if link == nil {
			l, err := s.store.Links.GetByPair(ctx, p.UserID(), order.SupplierID)
			if err != nil {
				return nil, fmt.Errorf("failed to load link: %w", err)
			}
			if l == nil {
				return nil, ErrForbidden(i18n.KeyOrderNoLink)
			}
			link = l
		}
	}

	complaint := &models.Complaint{
		LinkID:      &link.ID,
		OrderID:     req.OrderID,
		CreatedByID: p.UserID(),
		Description: req.Description,
		Status:      models.ComplaintStatusOpen,
	}
	if err := s.store.Complaints.Create(ctx, complaint); err != nil {
		return nil, fmt.Errorf("failed to create complaint: %w", err)
	}

	publish(ctx, s.events, Event{
		Type:       EventComplaintCreated,
		ActorID:    p.UserID(),
		SupplierID: link.SupplierID,
		EntityID:   complaint.ID,
	})
	return complaint, nil
}

// UpdateStatus is the owner's move along the complaint table. RESOLVED
// stamps resolved_at.
func (s *ComplaintService) UpdateStatus(ctx context.Context, p access.Principal, complaintID uuid.UUID, req *UpdateComplaintStatusRequest) (*models.Complaint, error) {
	if !access.CanUpdateComplaintStatus(p) {
		return nil, roleForbidden(p)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	if !req.Status.Valid() {
		return nil, ErrBadRequest(i18n.KeyValidationInvalid, "status").with("status", req.Status)
	}
	supplierID, err := supplierOf(ctx, s.store, p)
	if err != nil {
		return nil, err
	}

	var (
		complaint *models.Complaint
		link      *models.Link
	)
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, l, err := complaintWithLink(ctx, tx, complaintID)
		if err != nil {
			return err
		}
		if l.SupplierID != supplierID {
			return ErrForbidden(i18n.KeyLinkNotParticipant)
		}
		if !current.Status.CanTransitionTo(req.Status) {
			return ErrInvalidTransition(string(current.Status), string(req.Status))
		}

		change := repository.ComplaintChange{Status: req.Status}
		if req.Status == models.ComplaintStatusResolved {
			now := time.Now().UTC()
			change.ResolvedAt = &now
			current.ResolvedAt = &now
		}
		moved, err := tx.Complaints.Transition(ctx, current.ID, current.Status, change)
		if err != nil {
			return fmt.Errorf("failed to update complaint: %w", err)
		}
		if !moved {
			return s.staleComplaint(ctx, tx, complaintID, req.Status)
		}

		current.Status = req.Status
		complaint, link = current, l
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, Event{
		Type:       EventComplaintStatusChanged,
		ActorID:    p.UserID(),
		SupplierID: link.SupplierID,
		EntityID:   complaint.ID,
		Data:       map[string]interface{}{"status": complaint.Status},
	})
	return complaint, nil
}

// Escalate hands an OPEN or IN_PROGRESS complaint to the supplier's owner.
func (s *ComplaintService) Escalate(ctx context.Context, p access.Principal, complaintID uuid.UUID) (*models.Complaint, error) {
	if !access.CanEscalateComplaint(p) {
		return nil, roleForbidden(p)
	}
	supplierID, err := supplierOf(ctx, s.store, p)
	if err != nil {
		return nil, err
	}

	var complaint *models.Complaint
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, link, err := complaintWithLink(ctx, tx, complaintID)
		if err != nil {
			return err
		}
		if link.SupplierID != supplierID {
			return ErrForbidden(i18n.KeyLinkNotParticipant)
		}
		if !current.Status.CanEscalate() {
			return ErrBadRequest(i18n.KeyComplaintCannotEscalate, current.Status).with("status", current.Status)
		}

		supplier, err := tx.Suppliers.GetByID(ctx, link.SupplierID)
		if err != nil {
			return fmt.Errorf("failed to load supplier: %w", err)
		}
		if supplier == nil {
			return ErrNotFound(i18n.KeySupplierNotFound)
		}

		now := time.Now().UTC()
		ownerID := supplier.OwnerID
		moved, err := tx.Complaints.Transition(ctx, current.ID, current.Status, repository.ComplaintChange{
			Status:       models.ComplaintStatusEscalated,
			AssignedToID: &ownerID,
			EscalatedAt:  &now,
		})
		if err != nil {
			return fmt.Errorf("failed to escalate complaint: %w", err)
		}
		if !moved {
			latest, err := tx.Complaints.GetByID(ctx, complaintID)
			if err != nil {
				return fmt.Errorf("failed to load complaint: %w", err)
			}
			if latest == nil {
				return ErrNotFound(i18n.KeyComplaintNotFound)
			}
			return ErrBadRequest(i18n.KeyComplaintCannotEscalate, latest.Status).with("status", latest.Status)
		}

		current.Status = models.ComplaintStatusEscalated
		current.AssignedToID = &ownerID
		current.EscalatedAt = &now
		complaint = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"complaint_id": complaint.ID,
		"assigned_to":  complaint.AssignedToID,
		"escalated_by": p.UserID(),
	}).Info("Complaint escalated")
	publish(ctx, s.events, Event{
		Type:       EventComplaintEscalated,
		ActorID:    p.UserID(),
		SupplierID: supplierID,
		EntityID:   complaint.ID,
	})
	if s.notifier != nil {
		s.notifier.ComplaintEscalated(complaint)
	}
	return complaint, nil
}

// List scopes complaints to the caller: a consumer sees the ones it filed,
// a supplier role those on its supplier's links. With mine set a supplier
// role sees only complaints assigned to it.
func (s *ComplaintService) List(ctx context.Context, p access.Principal, params ComplaintListParams) ([]models.Complaint, int64, error) {
	if params.Status != "" && !params.Status.Valid() {
		return nil, 0, ErrBadRequest(i18n.KeyValidationInvalid, "status")
	}

	filter := repository.ComplaintFilter{
		Status: params.Status,
		Page:   pageOf(params.Limit, params.Offset),
	}
	switch {
	case access.IsConsumer(p):
		id := p.UserID()
		filter.CreatedByID = &id
	case access.IsSupplierSide(p):
		supplierID, err := supplierOf(ctx, s.store, p)
		if err != nil {
			return nil, 0, err
		}
		filter.SupplierID = &supplierID
		if params.Mine {
			id := p.UserID()
			filter.AssignedToID = &id
		}
	default:
		return nil, 0, roleForbidden(p)
	}

	complaints, total, err := s.store.Complaints.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list complaints: %w", err)
	}
	return complaints, total, nil
}

func complaintWithLink(ctx context.Context, store *repository.Store, id uuid.UUID) (*models.Complaint, *models.Link, error) {
	complaint, err := store.Complaints.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load complaint: %w", err)
	}
	if complaint == nil {
		return nil, nil, ErrNotFound(i18n.KeyComplaintNotFound)
	}
	if complaint.LinkID == nil {
		return nil, nil, ErrBadRequest(i18n.KeyComplaintUnlinked)
	}
	link, err := loadLink(ctx, store, *complaint.LinkID)
	if err != nil {
		return nil, nil, err
	}
	return complaint, link, nil
}

func (s *ComplaintService) staleComplaint(ctx context.Context, tx *repository.Store, id uuid.UUID, to models.ComplaintStatus) error {
	latest, err := tx.Complaints.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load complaint: %w", err)
	}
	if latest == nil {
		return ErrNotFound(i18n.KeyComplaintNotFound)
	}
	return ErrInvalidTransition(string(latest.Status), string(to))
}
