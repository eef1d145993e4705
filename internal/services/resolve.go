package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/scpnet/scp-backend/internal/access"
	"github.com/scpnet/scp-backend/internal/i18n"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
	"github.com/scpnet/scp-backend/internal/utils"
)

// ResolveSupplierFor answers which supplier a user acts for: the supplier
// they own, else the supplier holding their staff seat, else none. Every
// supplier-scoped check goes through this function.
func ResolveSupplierFor(ctx context.Context, store *repository.Store, userID uuid.UUID) (*uuid.UUID, error) {
	owned, err := store.Suppliers.GetByOwnerID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up owned supplier: %w", err)
	}
	if owned != nil {
		return &owned.ID, nil
	}

	seat, err := store.Staff.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up staff seat: %w", err)
	}
	if seat != nil {
		return &seat.SupplierID, nil
	}
	return nil, nil
}

// supplierOf resolves the caller's supplier and fails with Forbidden when
// the caller is not affiliated with one.
func supplierOf(ctx context.Context, store *repository.Store, p access.Principal) (uuid.UUID, error) {
	if !access.IsSupplierSide(p) {
		return uuid.Nil, roleForbidden(p)
	}
	supplierID, err := ResolveSupplierFor(ctx, store, p.UserID())
	if err != nil {
		return uuid.Nil, err
	}
	if supplierID == nil {
		return uuid.Nil, ErrForbidden(i18n.KeySupplierNotAffiliated)
	}
	return *supplierID, nil
}

func loadLink(ctx context.Context, store *repository.Store, id uuid.UUID) (*models.Link, error) {
	link, err := store.Links.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load link: %w", err)
	}
	if link == nil {
		return nil, ErrNotFound(i18n.KeyLinkNotFound)
	}
	return link, nil
}

// EnsureParticipant checks that the caller is one side of the link: the
// consumer itself, or any supplier role resolving to the link's supplier.
func EnsureParticipant(ctx context.Context, store *repository.Store, p access.Principal, link *models.Link) error {
	if access.IsConsumer(p) {
		if link.ConsumerID != p.UserID() {
			return ErrForbidden(i18n.KeyLinkNotParticipant)
		}
		return nil
	}

	supplierID, err := ResolveSupplierFor(ctx, store, p.UserID())
	if err != nil {
		return err
	}
	if supplierID == nil || *supplierID != link.SupplierID {
		return ErrForbidden(i18n.KeyLinkNotParticipant)
	}
	return nil
}

// EnsureAccepted gates orders, catalog visibility and chat.
func EnsureAccepted(link *models.Link) error {
	if link.Status != models.LinkStatusAccepted {
		return ErrForbidden(i18n.KeyLinkNotAccepted, link.Status).with("status", link.Status)
	}
	return nil
}

// acceptedLinkBetween loads the pair's link for a consumer-initiated action.
func acceptedLinkBetween(ctx context.Context, store *repository.Store, consumerID, supplierID uuid.UUID) (*models.Link, error) {
	link, err := store.Links.GetByPair(ctx, consumerID, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to load link: %w", err)
	}
	if link == nil {
		return nil, ErrForbidden(i18n.KeyOrderNoLink)
	}
	if err := EnsureAccepted(link); err != nil {
		return nil, err
	}
	return link, nil
}

func validationError(err error) *Error {
	e := ErrBadRequest(i18n.KeyValidationInvalid, "input")
	e.Details = map[string]interface{}{"fields": utils.GetValidationErrors(err)}
	return e
}

func pageOf(limit, offset int) repository.Page {
	return repository.Page{Limit: utils.ClampLimit(limit), Offset: utils.ClampOffset(offset)}
}

func isDuplicate(err error) bool {
	return errors.Is(err, repository.ErrDuplicate)
}
