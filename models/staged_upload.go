package models

import "time"

// StagedUpload records an object written to storage whose application row is not committed yet.
// The row is removed once the application is created; leftovers are swept by the upload cleaner.
type StagedUpload struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ObjectKey     string    `gorm:"size:512;not null;uniqueIndex" json:"objectKey"`
	Field         string    `gorm:"size:32;not null" json:"field"`
	ApplicationID string    `gorm:"size:32;index" json:"applicationId"`
	ExpireAt      time.Time `gorm:"index" json:"expireAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
