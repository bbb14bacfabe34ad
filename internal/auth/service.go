// Package auth implements PIN login, WebAuthn ceremonies and credential
// management for the single console administrator.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/linkcapture/console/internal/challenge"
	"github.com/linkcapture/console/internal/metrics"
	"github.com/linkcapture/console/internal/models"
	"github.com/linkcapture/console/internal/security"
	log "github.com/sirupsen/logrus"
)

// Store is the persistence the service needs.
type Store interface {
	FirstAdmin(ctx context.Context) (*models.Admin, error)
	GetAdmin(ctx context.Context, id uint64) (*models.Admin, error)
	CreateAdmin(ctx context.Context, pinHash string) (*models.Admin, error)
	ListCredentials(ctx context.Context, adminID uint64) ([]models.WebAuthnCredential, error)
	GetCredential(ctx context.Context, credentialID []byte) (*models.WebAuthnCredential, error)
	CreateCredential(ctx context.Context, credential *models.WebAuthnCredential) error
	UpdateSignCount(ctx context.Context, id uint64, expected, next uint32, usedAt time.Time) (bool, error)
	DeleteCredential(ctx context.Context, adminID uint64, credentialID []byte) (bool, error)
}

// ServiceParams holds the dependencies of a Service.
type ServiceParams struct {
	Store    Store
	Ledger   challenge.Ledger
	WebAuthn *webauthn.WebAuthn
	Sessions *security.SessionIssuer
	// Now overrides the clock used for last-used timestamps.
	Now func() time.Time
}

// Validate checks that all required dependencies are set.
func (p ServiceParams) Validate() error {
	switch {
	case p.Store == nil:
		return errors.New("auth: store is required")
	case p.Ledger == nil:
		return errors.New("auth: challenge ledger is required")
	case p.WebAuthn == nil:
		return errors.New("auth: webauthn relying party is required")
	case p.Sessions == nil:
		return errors.New("auth: session issuer is required")
	}
	return nil
}

// Service is the authentication core.
type Service struct {
	store    Store
	ledger   challenge.Ledger
	webAuthn *webauthn.WebAuthn
	sessions *security.SessionIssuer
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(params ServiceParams) (*Service, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:    params.Store,
		ledger:   params.Ledger,
		webAuthn: params.WebAuthn,
		sessions: params.Sessions,
		now:      now,
	}, nil
}

// LoginResult is returned by successful PIN and passkey logins.
type LoginResult struct {
	AdminID      uint64
	IsFirstLogin bool
	Token        string
	ExpiresAt    time.Time
}

// VerifySession returns the admin a session token belongs to.
func (s *Service) VerifySession(token string) (uint64, bool) {
	return s.sessions.Verify(token)
}

// SessionTTL returns the lifetime of issued session tokens.
func (s *Service) SessionTTL() time.Duration {
	return s.sessions.Expiry()
}

func (s *Service) issueSession(op string, adminID uint64, firstLogin bool) (LoginResult, error) {
	token, expiresAt, err := s.sessions.Issue(adminID)
	if err != nil {
		return LoginResult{}, wrap(op, err)
	}
	return LoginResult{
		AdminID:      adminID,
		IsFirstLogin: firstLogin,
		Token:        token,
		ExpiresAt:    expiresAt,
	}, nil
}

// observe records the outcome of op. Rejections log at warn, internal
// failures at error.
func (s *Service) observe(ctx context.Context, op string, adminID uint64, err error) {
	entry := log.WithContext(ctx).WithField("op", op)
	if adminID != 0 {
		entry = entry.WithField("admin_id", adminID)
	}
	if err == nil {
		metrics.RecordSuccess(op)
		entry.Debug("auth operation succeeded")
		return
	}
	reason := Reason(err)
	metrics.RecordFailure(op, reason)
	entry = entry.WithField("reason", reason).WithError(err)
	if reason == "internal" {
		entry.Error("auth operation failed")
		return
	}
	entry.Warn("auth operation rejected")
}
