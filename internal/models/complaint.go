package models

import (
	"time"

	"github.com/google/uuid"
)

type Complaint struct {
	BaseModel
	LinkID       *uuid.UUID      `json:"link_id" gorm:"type:uuid;index"`
	OrderID      *uuid.UUID      `json:"order_id" gorm:"type:uuid;index"`
	CreatedByID  uuid.UUID       `json:"created_by_id" gorm:"type:uuid;not null;index"`
	AssignedToID *uuid.UUID      `json:"assigned_to_id" gorm:"type:uuid;index"`
	Description  string          `json:"description" gorm:"type:text;not null"`
	Status       ComplaintStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	EscalatedAt  *time.Time      `json:"escalated_at"`
	ResolvedAt   *time.Time      `json:"resolved_at"`
}
