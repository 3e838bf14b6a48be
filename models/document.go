package models

import "time"

// Document records a copy of an uploaded source file. The bytes live on
// local storage under StoragePath; the row only carries metadata.
type Document struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PublicID    string    `gorm:"size:100;uniqueIndex" json:"public_id"`
	Username    string    `gorm:"not null;size:100;index" json:"username"`
	Filename    string    `gorm:"not null;size:255" json:"filename"`
	ContentType string    `gorm:"size:100" json:"content_type"`
	Size        int64     `json:"size"`
	StoragePath string    `gorm:"not null" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
