package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/linkcapture/console/internal/metrics"
	"github.com/linkcapture/console/internal/models"
	"github.com/linkcapture/console/internal/security"
	"github.com/linkcapture/console/internal/store"
)

// pinLength is the exact number of ASCII digits in a PIN.
const pinLength = 4

// ValidPIN reports whether pin is exactly four ASCII digits.
func ValidPIN(pin string) bool {
	if len(pin) != pinLength {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

// LoginWithPIN verifies pin against the administrator and issues a session.
// On an empty store the first PIN becomes the administrator's PIN and
// IsFirstLogin is set. A 4-digit PIN is weak against offline guessing of a
// leaked hash; the login rate limit only slows online attempts.
func (s *Service) LoginWithPIN(ctx context.Context, pin string) (result LoginResult, err error) {
	const op = metrics.OpPINLogin
	defer func() { s.observe(ctx, op, result.AdminID, err) }()

	if !ValidPIN(pin) {
		return LoginResult{}, wrap(op, ErrInvalidInputFormat)
	}

	admin, created, err := s.bootstrapOrLoad(ctx, pin)
	if err != nil {
		return LoginResult{}, wrap(op, err)
	}
	if !created && !security.CheckPIN(admin.PinHash, pin) {
		return LoginResult{}, wrap(op, ErrInvalidCredential)
	}
	return s.issueSession(op, admin.ID, created)
}

// bootstrapOrLoad returns the administrator, creating it from pin when the
// store is empty. created is true only for the call whose insert won.
func (s *Service) bootstrapOrLoad(ctx context.Context, pin string) (*models.Admin, bool, error) {
	admin, err := s.store.FirstAdmin(ctx)
	if err == nil {
		return admin, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	hash, err := security.HashPIN(pin)
	if err != nil {
		return nil, false, fmt.Errorf("hash pin: %w", err)
	}
	admin, err = s.store.CreateAdmin(ctx, hash)
	switch {
	case err == nil:
		metrics.RecordSuccess(metrics.OpBootstrap)
		return admin, true, nil
	case errors.Is(err, store.ErrAdminExists):
		admin, err = s.store.FirstAdmin(ctx)
		if err != nil {
			return nil, false, err
		}
		return admin, false, nil
	default:
		return nil, false, err
	}
}
