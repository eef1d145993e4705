package models

import (
	"github.com/google/uuid"
)

// Message is an append-only chat line on a link.
type Message struct {
	BaseModel
	LinkID   uuid.UUID `json:"link_id" gorm:"type:uuid;not null;index"`
	SenderID uuid.UUID `json:"sender_id" gorm:"type:uuid;not null"`
	Text     string    `json:"text,omitempty" gorm:"type:text"`
	FileURL  string    `json:"file_url,omitempty" gorm:"size:1024"`
	AudioURL string    `json:"audio_url,omitempty" gorm:"size:1024"`
}

func (m Message) IsEmpty() bool {
	return m.Text == "" && m.FileURL == "" && m.AudioURL == ""
}
