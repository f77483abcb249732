package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File is the canonical record of an uploaded object. Rows are soft-deleted
// only: IsDeleted flips and the physical object may go away, but the row stays
// as the authoritative index entry.
type File struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	OriginalName  string    `gorm:"not null" json:"filename"`
	Description   string    `json:"description"`
	// Structured marks a description that carries a serialized form
	// submission. The server never parses it either way.
	Structured    bool      `gorm:"default:false" json:"structured"`
	StorageKey    string    `gorm:"not null" json:"-"`
	FileSize      int64     `gorm:"not null" json:"fileSize"`
	ContentType   string    `json:"mimeType"`
	FileHash      string    `gorm:"size:64;index" json:"-"`
	DownloadCount int64     `gorm:"default:0" json:"downloadCount"`
	IsDeleted     bool      `gorm:"default:false;index" json:"-"`
	IsPublic      bool      `gorm:"default:false;index" json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
