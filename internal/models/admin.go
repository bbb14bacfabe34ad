package models

import "time"

// Admin is the sole console administrator. Singleton carries a unique index
// so a second row cannot be inserted even when two first logins race.
type Admin struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	PinHash string `gorm:"type:text;not null"` // bcrypt hash of the 4-digit PIN.

	Singleton bool `gorm:"not null;default:true;uniqueIndex"` // Always true.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
