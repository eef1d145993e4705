// Package repository declares the persistence contracts the services run
// against. Getters return (nil, nil) when the row does not exist.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/scpnet/scp-backend/internal/models"
)

var (
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("repository: duplicate key")
)

type Page struct {
	Limit  int
	Offset int
}

type SupplierFilter struct {
	Search string
	Page
}

type LinkFilter struct {
	ConsumerID *uuid.UUID
	SupplierID *uuid.UUID
	Status     models.LinkStatus
	Page
}

type ProductFilter struct {
	SupplierID uuid.UUID
	OnlyActive bool
	Page
}

type OrderFilter struct {
	ConsumerID *uuid.UUID
	SupplierID *uuid.UUID
	Status     models.OrderStatus
	Page
}

type ComplaintFilter struct {
	CreatedByID  *uuid.UUID
	SupplierID   *uuid.UUID
	AssignedToID *uuid.UUID
	Status       models.ComplaintStatus
	Page
}

// ComplaintChange is applied together with the status move.
type ComplaintChange struct {
	Status       models.ComplaintStatus
	AssignedToID *uuid.UUID
	EscalatedAt  *time.Time
	ResolvedAt   *time.Time
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type SupplierRepository interface {
	Create(ctx context.Context, supplier *models.Supplier) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.Supplier, error)
	GetByName(ctx context.Context, name string) (*models.Supplier, error)
	List(ctx context.Context, filter SupplierFilter) ([]models.Supplier, int64, error)
}

type StaffRepository interface {
	Create(ctx context.Context, staff *models.SupplierStaff) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SupplierStaff, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.SupplierStaff, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierStaff, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role models.StaffRole) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Link, error)
	GetByPair(ctx context.Context, consumerID, supplierID uuid.UUID) (*models.Link, error)
	// TransitionStatus moves the link to `to` when its current status is in
	// `from` (any status when from is empty) and reports whether it did.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []models.LinkStatus, to models.LinkStatus) (bool, error)
	List(ctx context.Context, filter LinkFilter) ([]models.Link, int64, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	// GetByIDsWithDeleted also returns soft-deleted rows, for order history.
	GetByIDsWithDeleted(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
}

type OrderRepository interface {
	// Create persists the order with its items.
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error)
	SetPaymentIntent(ctx context.Context, id uuid.UUID, paymentIntentID string) error
	List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
}

type ComplaintRepository interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	Transition(ctx context.Context, id uuid.UUID, from models.ComplaintStatus, change ComplaintChange) (bool, error)
	List(ctx context.Context, filter ComplaintFilter) ([]models.Complaint, int64, error)
}

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	ListByLink(ctx context.Context, linkID uuid.UUID, page Page) ([]models.Message, int64, error)
}

type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// Backend is the engine behind a Store.
type Backend interface {
	Transaction(ctx context.Context, fn func(tx *Store) error) error
	Ping(ctx context.Context) error
}

// Store groups the repositories of one backend. Repositories handed to a
// Transaction callback operate inside that transaction.
type Store struct {
	Users      UserRepository
	Suppliers  SupplierRepository
	Staff      StaffRepository
	Links      LinkRepository
	Products   ProductRepository
	Orders     OrderRepository
	Complaints ComplaintRepository
	Messages   MessageRepository
	AuditLogs  AuditLogRepository

	backend Backend
}

func NewStore(repos Store, backend Backend) *Store {
	repos.backend = backend
	return &repos
}

// Transaction runs fn atomically: every write made through tx commits or
// none does.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	if s.backend == nil {
		return fn(s)
	}
	return s.backend.Transaction(ctx, fn)
}

func (s *Store) Ping(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Ping(ctx)
}
