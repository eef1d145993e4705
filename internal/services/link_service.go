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

type LinkService struct {
	store    *repository.Store
	events   EventPublisher
	notifier Notifier
}

type LinkListParams struct {
	Status models.LinkStatus
	utils.PaginationParams
}

func NewLinkService(store *repository.Store, events EventPublisher, notifier Notifier) *LinkService {
	return &LinkService{
		store:    store,
		events:   events,
		notifier: notifier,
	}
}

// Request opens a PENDING link from the calling consumer to a supplier.
func (s *LinkService) Request(ctx context.Context, p access.Principal, supplierID uuid.UUID) (*models.Link, error) {
	if !access.IsConsumer(p) {
		return nil, roleForbidden(p)
	}

	supplier, err := s.store.Suppliers.GetByID(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to load supplier: %w", err)
	}
	if supplier == nil {
		return nil, ErrNotFound(i18n.KeySupplierNotFound)
	}

	link := &models.Link{
		ConsumerID: p.UserID(),
		SupplierID: supplier.ID,
		Status:     models.LinkStatusPending,
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		existing, err := tx.Links.GetByPair(ctx, link.ConsumerID, link.SupplierID)
		if err != nil {
			return fmt.Errorf("failed to load link: %w", err)
		}
		if existing != nil {
			return linkExists(existing.Status)
		}
		if err := tx.Links.Create(ctx, link); err != nil {
			if isDuplicate(err) {
				return s.conflictFor(ctx, link)
			}
			return fmt.Errorf("failed to create link: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, Event{
		Type:       EventLinkRequested,
		ActorID:    p.UserID(),
		SupplierID: link.SupplierID,
		EntityID:   link.ID,
	})
	if s.notifier != nil {
		s.notifier.LinkRequested(link)
	}
	return link, nil
}

// conflictFor reports the status of the link that won a concurrent request.
func (s *LinkService) conflictFor(ctx context.Context, link *models.Link) error {
	winner, err := s.store.Links.GetByPair(ctx, link.ConsumerID, link.SupplierID)
	if err != nil || winner == nil {
		return linkExists(models.LinkStatusPending)
	}
	return linkExists(winner.Status)
}

func linkExists(status models.LinkStatus) *Error {
	return ErrConflict(i18n.KeyLinkExists, status).with("status", status)
}

// Accept moves a PENDING link to ACCEPTED.
func (s *LinkService) Accept(ctx context.Context, p access.Principal, linkID uuid.UUID) (*models.Link, error) {
	return s.transition(ctx, p, linkID, models.LinkStatusAccepted, func(from models.LinkStatus) bool {
		return from.CanAccept()
	})
}

// Block is allowed from every state except REMOVED.
func (s *LinkService) Block(ctx context.Context, p access.Principal, linkID uuid.UUID) (*models.Link, error) {
	return s.transition(ctx, p, linkID, models.LinkStatusBlocked, func(from models.LinkStatus) bool {
		return from.CanBlock()
	})
}

// Remove always lands in REMOVED, including when the link already is.
func (s *LinkService) Remove(ctx context.Context, p access.Principal, linkID uuid.UUID) (*models.Link, error) {
	return s.transition(ctx, p, linkID, models.LinkStatusRemoved, nil)
}

func (s *LinkService) transition(ctx context.Context, p access.Principal, linkID uuid.UUID, to models.LinkStatus, allowed func(models.LinkStatus) bool) (*models.Link, error) {
	if !access.CanDecideLinks(p) {
		return nil, roleForbidden(p)
	}
	supplierID, err := supplierOf(ctx, s.store, p)
	if err != nil {
		return nil, err
	}

	var link *models.Link
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := loadLink(ctx, tx, linkID)
		if err != nil {
			return err
		}
		if current.SupplierID != supplierID {
			return ErrForbidden(i18n.KeyLinkNotParticipant)
		}

		var from []models.LinkStatus
		if allowed != nil {
			if !allowed(current.Status) {
				return ErrInvalidTransition(string(current.Status), string(to))
			}
			from = []models.LinkStatus{current.Status}
		}

		moved, err := tx.Links.TransitionStatus(ctx, current.ID, from, to)
		if err != nil {
			return fmt.Errorf("failed to update link: %w", err)
		}
		if !moved {
			// another writer changed the status first
			latest, err := loadLink(ctx, tx, linkID)
			if err != nil {
				return err
			}
			return ErrInvalidTransition(string(latest.Status), string(to))
		}

		current.Status = to
		link = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"link_id": link.ID,
		"status":  link.Status,
		"actor":   p.UserID(),
	}).Info("Link status changed")
	publish(ctx, s.events, Event{
		Type:       EventLinkStatusChanged,
		ActorID:    p.UserID(),
		SupplierID: link.SupplierID,
		EntityID:   link.ID,
		Data:       map[string]interface{}{"status": link.Status},
	})
	return link, nil
}

// List returns the caller's links: a consumer sees its own, any supplier
// role sees the links of its resolved supplier.
func (s *LinkService) List(ctx context.Context, p access.Principal, params LinkListParams) ([]models.Link, int64, error) {
	if params.Status != "" && !params.Status.Valid() {
		return nil, 0, ErrBadRequest(i18n.KeyValidationInvalid, "status")
	}

	filter := repository.LinkFilter{
		Status: params.Status,
		Page:   pageOf(params.Limit, params.Offset),
	}
	if access.IsConsumer(p) {
		id := p.UserID()
		filter.ConsumerID = &id
	} else {
		supplierID, err := supplierOf(ctx, s.store, p)
		if err != nil {
			return nil, 0, err
		}
		filter.SupplierID = &supplierID
	}

	links, total, err := s.store.Links.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list links: %w", err)
	}
	return links, total, nil
}
