// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type Role string

const (
	RoleConsumer        Role = "CONSUMER"
	RoleSupplierOwner   Role = "SUPPLIER_OWNER"
	RoleSupplierManager Role = "SUPPLIER_MANAGER"
	RoleSupplierSales   Role = "SUPPLIER_SALES"
)

func (r Role) Valid() bool {
	switch r {
	case RoleConsumer, RoleSupplierOwner, RoleSupplierManager, RoleSupplierSales:
		return true
	}
	return false
}

func (r Role) IsSupplierSide() bool {
	return r == RoleSupplierOwner || r == RoleSupplierManager || r == RoleSupplierSales
}

// StaffRole is the sub-role a staff seat holds inside a supplier.
type StaffRole string

const (
	StaffRoleManager StaffRole = "MANAGER"
	StaffRoleSales   StaffRole = "SALES"
)

func (r StaffRole) Valid() bool {
	return r == StaffRoleManager || r == StaffRoleSales
}

// UserRole is the account role a staff member logs in with.
func (r StaffRole) UserRole() Role {
	if r == StaffRoleManager {
		return RoleSupplierManager
	}
	return RoleSupplierSales
}

type LinkStatus string

const (
	LinkStatusPending  LinkStatus = "PENDING"
	LinkStatusAccepted LinkStatus = "ACCEPTED"
	LinkStatusBlocked  LinkStatus = "BLOCKED"
	LinkStatusRemoved  LinkStatus = "REMOVED"
)

func (s LinkStatus) Valid() bool {
	switch s {
	case LinkStatusPending, LinkStatusAccepted, LinkStatusBlocked, LinkStatusRemoved:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderStatusCreated  OrderStatus = "CREATED"
	OrderStatusAccepted OrderStatus = "ACCEPTED"
	OrderStatusRejected OrderStatus = "REJECTED"
)

func (s OrderStatus) Valid() bool {
	return s == OrderStatusCreated || s == OrderStatusAccepted || s == OrderStatusRejected
}

type ComplaintStatus string

const (
	ComplaintStatusOpen       ComplaintStatus = "OPEN"
	ComplaintStatusInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintStatusEscalated  ComplaintStatus = "ESCALATED"
	ComplaintStatusResolved   ComplaintStatus = "RESOLVED"
)

func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusOpen, ComplaintStatusInProgress, ComplaintStatusEscalated, ComplaintStatusResolved:
		return true
	}
	return false
}

type AttachmentKind string

const (
	AttachmentKindFile  AttachmentKind = "file"
	AttachmentKindAudio AttachmentKind = "audio"
)
