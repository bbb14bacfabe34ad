// Package store persists administrators and their WebAuthn credentials.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linkcapture/console/internal/db"
	"github.com/linkcapture/console/internal/models"
	"gorm.io/gorm"
)

// Store errors.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrAdminExists indicates an administrator row is already present.
	ErrAdminExists = errors.New("store: admin already exists")
	// ErrCredentialExists indicates the credential ID is already registered.
	ErrCredentialExists = errors.New("store: credential already exists")
)

// GormStore implements credential storage on top of GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a GormStore.
func NewGormStore(conn *gorm.DB) *GormStore {
	return &GormStore{db: conn}
}

// FirstAdmin returns the administrator, or ErrNotFound before bootstrap.
func (s *GormStore) FirstAdmin(ctx context.Context) (*models.Admin, error) {
	var admin models.Admin
	if errFind := s.db.WithContext(ctx).Order("id ASC").First(&admin).Error; errFind != nil {
		return nil, translate("first admin", errFind)
	}
	return &admin, nil
}

// GetAdmin loads an administrator by ID.
func (s *GormStore) GetAdmin(ctx context.Context, id uint64) (*models.Admin, error) {
	var admin models.Admin
	if errFind := s.db.WithContext(ctx).First(&admin, id).Error; errFind != nil {
		return nil, translate("get admin", errFind)
	}
	return &admin, nil
}

// CreateAdmin inserts the administrator. A concurrent bootstrap that lost
// the race on the singleton index gets ErrAdminExists.
func (s *GormStore) CreateAdmin(ctx context.Context, pinHash string) (*models.Admin, error) {
	admin := models.Admin{PinHash: pinHash, Singleton: true}
	if errCreate := s.db.WithContext(ctx).Create(&admin).Error; errCreate != nil {
		if db.IsUniqueViolation(errCreate) {
			return nil, ErrAdminExists
		}
		if _, errFirst := s.FirstAdmin(ctx); errFirst == nil {
			return nil, ErrAdminExists
		}
		return nil, fmt.Errorf("store: create admin: %w", errCreate)
	}
	return &admin, nil
}

// ListCredentials returns the admin's credentials, oldest first.
func (s *GormStore) ListCredentials(ctx context.Context, adminID uint64) ([]models.WebAuthnCredential, error) {
	var rows []models.WebAuthnCredential
	if errFind := s.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("store: list credentials: %w", errFind)
	}
	return rows, nil
}

// GetCredential loads a credential by its authenticator credential ID.
func (s *GormStore) GetCredential(ctx context.Context, credentialID []byte) (*models.WebAuthnCredential, error) {
	var row models.WebAuthnCredential
	if errFind := s.db.WithContext(ctx).Where("credential_id = ?", credentialID).First(&row).Error; errFind != nil {
		return nil, translate("get credential", errFind)
	}
	return &row, nil
}

// CreateCredential inserts a new credential row.
func (s *GormStore) CreateCredential(ctx context.Context, credential *models.WebAuthnCredential) error {
	if credential == nil {
		return fmt.Errorf("store: nil credential")
	}
	if errCreate := s.db.WithContext(ctx).Create(credential).Error; errCreate != nil {
		if db.IsUniqueViolation(errCreate) {
			return ErrCredentialExists
		}
		return fmt.Errorf("store: create credential: %w", errCreate)
	}
	return nil
}

// UpdateSignCount moves the counter from expected to next. It reports false
// when another writer changed the counter first.
func (s *GormStore) UpdateSignCount(ctx context.Context, id uint64, expected, next uint32, usedAt time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.WebAuthnCredential{}).
		Where("id = ? AND sign_count = ?", id, expected).
		Updates(map[string]any{
			"sign_count":   next,
			"last_used_at": usedAt,
			"updated_at":   usedAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("store: update sign count: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// DeleteCredential removes the credential only if adminID owns it.
func (s *GormStore) DeleteCredential(ctx context.Context, adminID uint64, credentialID []byte) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("credential_id = ? AND admin_id = ?", credentialID, adminID).
		Delete(&models.WebAuthnCredential{})
	if res.Error != nil {
		return false, fmt.Errorf("store: delete credential: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Ping checks database connectivity.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func translate(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("store: %s: %w", op, err)
}
