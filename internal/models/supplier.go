package models

import (
	"github.com/google/uuid"
)

type Supplier struct {
	BaseModel
	Name        string    `json:"name" gorm:"uniqueIndex;size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`
	OwnerID     uuid.UUID `json:"owner_id" gorm:"type:uuid;uniqueIndex;not null"`

	Owner *User `json:"-" gorm:"foreignKey:OwnerID"`
}

// SupplierStaff is a non-owner seat at a supplier. The referenced user
// exists only to hold the seat's credentials.
type SupplierStaff struct {
	BaseModel
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	SupplierID  uuid.UUID `json:"supplier_id" gorm:"type:uuid;not null;index"`
	Role        StaffRole `json:"role" gorm:"type:varchar(16);not null"`
	InvitedByID uuid.UUID `json:"invited_by_id" gorm:"type:uuid;not null"`

	User     *User     `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Supplier *Supplier `json:"-" gorm:"foreignKey:SupplierID"`
}

func (SupplierStaff) TableName() string {
	return "supplier_staff"
}
