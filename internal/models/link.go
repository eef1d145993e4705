package models

import (
	"github.com/google/uuid"
)

// Link gates every consumer/supplier interaction. One row per pair.
type Link struct {
	BaseModel
	ConsumerID uuid.UUID  `json:"consumer_id" gorm:"type:uuid;not null;uniqueIndex:idx_links_pair"`
	SupplierID uuid.UUID  `json:"supplier_id" gorm:"type:uuid;not null;uniqueIndex:idx_links_pair;index"`
	Status     LinkStatus `json:"status" gorm:"type:varchar(16);not null;index"`

	Consumer *User     `json:"-" gorm:"foreignKey:ConsumerID"`
	Supplier *Supplier `json:"-" gorm:"foreignKey:SupplierID"`
}
