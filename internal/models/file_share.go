package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FileShare records a file being shared to an email address.
type FileShare struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FileID         uuid.UUID `gorm:"type:uuid;index;not null" json:"fileId"`
	SharedBy       uuid.UUID `gorm:"type:uuid;not null" json:"-"`
	RecipientEmail string    `gorm:"index;not null" json:"recipientEmail"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"createdAt"`

	File File `gorm:"foreignKey:FileID" json:"-"`
}

func (s *FileShare) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
