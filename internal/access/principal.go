// Package access models the caller as a closed set of role variants and
// holds the per-variant authorization rules.
package access

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/scpnet/scp-backend/internal/models"
)

// Principal is the authenticated caller. The set of implementations is
// closed: Consumer, SupplierOwner, SupplierManager, SupplierSales.
type Principal interface {
	UserID() uuid.UUID
	Role() models.Role
	sealed()
}

type Consumer struct{ ID uuid.UUID }

type SupplierOwner struct{ ID uuid.UUID }

type SupplierManager struct{ ID uuid.UUID }

type SupplierSales struct{ ID uuid.UUID }

func (p Consumer) UserID() uuid.UUID        { return p.ID }
func (p SupplierOwner) UserID() uuid.UUID   { return p.ID }
func (p SupplierManager) UserID() uuid.UUID { return p.ID }
func (p SupplierSales) UserID() uuid.UUID   { return p.ID }

func (Consumer) Role() models.Role        { return models.RoleConsumer }
func (SupplierOwner) Role() models.Role   { return models.RoleSupplierOwner }
func (SupplierManager) Role() models.Role { return models.RoleSupplierManager }
func (SupplierSales) Role() models.Role   { return models.RoleSupplierSales }

func (Consumer) sealed()        {}
func (SupplierOwner) sealed()   {}
func (SupplierManager) sealed() {}
func (SupplierSales) sealed()   {}

// FromUser builds the principal for a stored account.
func FromUser(u *models.User) (Principal, error) {
	switch u.Role {
	case models.RoleConsumer:
		return Consumer{ID: u.ID}, nil
	case models.RoleSupplierOwner:
		return SupplierOwner{ID: u.ID}, nil
	case models.RoleSupplierManager:
		return SupplierManager{ID: u.ID}, nil
	case models.RoleSupplierSales:
		return SupplierSales{ID: u.ID}, nil
	}
	return nil, fmt.Errorf("access: unknown role %q", u.Role)
}
