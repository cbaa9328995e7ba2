package models

import "time"

// StoredCredential is one named slot of the durable token store
// (access token, refresh token or the serialized identity snapshot).
type StoredCredential struct {
	Slot      string    `gorm:"primaryKey;size:191"`
	Value     string    `gorm:"type:text;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time
}

// TableName overrides the table name used by StoredCredential to `stored_credentials`
func (StoredCredential) TableName() string {
	return "stored_credentials"
}

// IsExpired reports whether the slot's TTL has elapsed at the given instant.
func (c *StoredCredential) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
