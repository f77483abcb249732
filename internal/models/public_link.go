package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PublicLink is a time/usage-bounded public download grant for one file. Rows
// are never deleted: an expired, exhausted or deactivated link stays in the
// table as an audit record.
type PublicLink struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FileID        uuid.UUID  `gorm:"type:uuid;index;not null" json:"fileId"`
	LinkCode      string     `gorm:"uniqueIndex;size:32;not null" json:"linkCode"`
	Password      string     `gorm:"size:8;not null" json:"-"`
	CreatedBy     uuid.UUID  `gorm:"type:uuid;not null" json:"-"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	MaxDownloads  *int64     `json:"maxDownloads"`
	DownloadCount int64      `gorm:"default:0" json:"downloadCount"`
	IsActive      bool       `gorm:"default:true" json:"-"`
	CreatedAt     time.Time  `json:"createdAt"`

	File File `gorm:"foreignKey:FileID" json:"-"`
}

func (l *PublicLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the absolute expiry has passed.
func (l *PublicLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// Exhausted reports whether the download cap has been reached.
func (l *PublicLink) Exhausted() bool {
	return l.MaxDownloads != nil && l.DownloadCount >= *l.MaxDownloads
}
