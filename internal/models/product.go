// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	BaseModel
	SupplierID  uuid.UUID       `json:"supplier_id" gorm:"type:uuid;not null;index"`
	Name        string          `json:"name" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Unit        string          `json:"unit" gorm:"size:32;not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Stock       int             `json:"stock" gorm:"not null"`
	MOQ         int             `json:"moq" gorm:"column:moq;not null"`
	IsActive    bool            `json:"is_active" gorm:"not null;index"`
	Tags        pq.StringArray  `json:"tags" gorm:"type:text[]"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`
}
