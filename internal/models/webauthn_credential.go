package models

import (
	"time"

	"gorm.io/datatypes"
)

// WebAuthnCredential is a platform authenticator registered by an admin.
type WebAuthnCredential struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Surrogate key.

	CredentialID []byte `gorm:"type:bytea;not null;uniqueIndex"` // Authenticator supplied credential ID.
	AdminID      uint64 `gorm:"not null;index"`                  // Owning admin.

	PublicKey       []byte         `gorm:"type:bytea;not null"`            // COSE encoded public key.
	AttestationType string         `gorm:"type:text"`                      // Attestation format reported at registration.
	AAGUID          []byte         `gorm:"type:bytea"`                     // Authenticator model identifier.
	SignCount       uint32         `gorm:"type:bigint;not null;default:0"` // Last accepted signature counter.
	Transports      datatypes.JSON `gorm:"type:jsonb"`                     // Transport hints in JSON.
	BackupEligible  bool           `gorm:"not null;default:false"`
	BackupState     bool           `gorm:"not null;default:false"`

	DeviceName string     `gorm:"type:text;not null"` // Operator supplied label.
	LastUsedAt *time.Time // Last successful authentication.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName pins the table name.
func (WebAuthnCredential) TableName() string { return "webauthn_credentials" }
