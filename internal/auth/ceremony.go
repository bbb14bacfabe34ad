package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/linkcapture/console/internal/challenge"
	"github.com/linkcapture/console/internal/metrics"
	"github.com/linkcapture/console/internal/models"
	"github.com/linkcapture/console/internal/store"
)

// Device name limits.
const (
	DefaultDeviceName = "Fingerprint Device"
	maxDeviceNameLen  = 64
)

// BeginRegistration issues a registration challenge for adminID and returns
// the creation options for the browser.
func (s *Service) BeginRegistration(ctx context.Context, adminID uint64) (creation *protocol.CredentialCreation, err error) {
	const op = metrics.OpBeginRegistration
	defer func() { s.observe(ctx, op, adminID, err) }()

	user, err := s.loadUser(ctx, adminID)
	if err != nil {
		return nil, wrap(op, err)
	}

	creation, session, err := s.webAuthn.BeginRegistration(user,
		webauthn.WithAuthenticatorSelection(protocol.AuthenticatorSelection{
			AuthenticatorAttachment: protocol.Platform,
			ResidentKey:             protocol.ResidentKeyRequirementPreferred,
			UserVerification:        protocol.VerificationRequired,
		}),
		webauthn.WithConveyancePreference(protocol.PreferNoAttestation),
		webauthn.WithExclusions(user.descriptors()),
	)
	if err != nil {
		return nil, wrap(op, fmt.Errorf("begin registration: %w", err))
	}

	entry := challenge.Entry{Purpose: challenge.PurposeRegistration, Session: *session, IssuedAt: s.now()}
	if errIssue := s.ledger.Issue(ctx, adminID, entry); errIssue != nil {
		return nil, wrap(op, errIssue)
	}
	return creation, nil
}

// FinishRegistration verifies an attestation response against the
// outstanding registration challenge and stores the new credential.
func (s *Service) FinishRegistration(ctx context.Context, adminID uint64, response []byte, deviceName string) (summary CredentialSummary, err error) {
	const op = metrics.OpFinishRegistration
	defer func() { s.observe(ctx, op, adminID, err) }()

	parsed, err := ParseRegistrationResponse(response)
	if err != nil {
		return CredentialSummary{}, wrap(op, err)
	}

	entry, err := s.consume(ctx, adminID, challenge.PurposeRegistration)
	if err != nil {
		return CredentialSummary{}, wrap(op, err)
	}

	user, err := s.loadUser(ctx, adminID)
	if err != nil {
		return CredentialSummary{}, wrap(op, err)
	}

	credential, err := s.webAuthn.CreateCredential(user, entry.Session, parsed)
	if err != nil {
		return CredentialSummary{}, wrap(op, fmt.Errorf("%w: %v", ErrVerificationFailed, err))
	}

	row := &models.WebAuthnCredential{
		CredentialID:    credential.ID,
		AdminID:         adminID,
		PublicKey:       credential.PublicKey,
		AttestationType: credential.AttestationType,
		AAGUID:          credential.Authenticator.AAGUID,
		SignCount:       credential.Authenticator.SignCount,
		Transports:      encodeTransports(credential.Transport),
		BackupEligible:  credential.Flags.BackupEligible,
		BackupState:     credential.Flags.BackupState,
		DeviceName:      normalizeDeviceName(deviceName),
	}
	if errCreate := s.store.CreateCredential(ctx, row); errCreate != nil {
		if errors.Is(errCreate, store.ErrCredentialExists) {
			return CredentialSummary{}, wrap(op, fmt.Errorf("%w: credential already registered", ErrVerificationFailed))
		}
		return CredentialSummary{}, wrap(op, errCreate)
	}
	return summarize(*row), nil
}

// BeginAuthentication issues an authentication challenge for the
// administrator and returns the request options with the admin ID the
// client must echo back.
func (s *Service) BeginAuthentication(ctx context.Context) (assertion *protocol.CredentialAssertion, adminID uint64, err error) {
	const op = metrics.OpBeginAuthentication
	defer func() { s.observe(ctx, op, adminID, err) }()

	admin, err := s.store.FirstAdmin(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, 0, wrap(op, ErrNoCredentialsRegistered)
	}
	if err != nil {
		return nil, 0, wrap(op, err)
	}
	adminID = admin.ID

	user, err := s.loadUser(ctx, adminID)
	if err != nil {
		return nil, adminID, wrap(op, err)
	}
	if len(user.credentials) == 0 {
		return nil, adminID, wrap(op, ErrNoCredentialsRegistered)
	}

	assertion, session, err := s.webAuthn.BeginLogin(user,
		webauthn.WithUserVerification(protocol.VerificationRequired),
		webauthn.WithAllowedCredentials(user.descriptors()),
	)
	if err != nil {
		return nil, adminID, wrap(op, fmt.Errorf("begin login: %w", err))
	}

	entry := challenge.Entry{Purpose: challenge.PurposeAuthentication, Session: *session, IssuedAt: s.now()}
	if errIssue := s.ledger.Issue(ctx, adminID, entry); errIssue != nil {
		return nil, adminID, wrap(op, errIssue)
	}
	return assertion, adminID, nil
}

// FinishAuthentication verifies an assertion against the outstanding
// authentication challenge of adminID and issues a session on success.
// The challenge is consumed before verification, so a failed attempt
// requires a new BeginAuthentication.
func (s *Service) FinishAuthentication(ctx context.Context, adminID uint64, response []byte) (result LoginResult, err error) {
	const op = metrics.OpFinishAuthentication
	defer func() { s.observe(ctx, op, adminID, err) }()

	parsed, err := ParseAuthenticationResponse(response)
	if err != nil {
		return LoginResult{}, wrap(op, err)
	}

	entry, err := s.consume(ctx, adminID, challenge.PurposeAuthentication)
	if err != nil {
		return LoginResult{}, wrap(op, err)
	}

	row, err := s.store.GetCredential(ctx, parsed.RawID)
	if errors.Is(err, store.ErrNotFound) {
		return LoginResult{}, wrap(op, ErrCredentialNotFound)
	}
	if err != nil {
		return LoginResult{}, wrap(op, err)
	}
	if row.AdminID != adminID {
		return LoginResult{}, wrap(op, ErrOwnershipMismatch)
	}

	user, err := s.loadUser(ctx, adminID)
	if err != nil {
		return LoginResult{}, wrap(op, err)
	}
	if _, errValidate := s.webAuthn.ValidateLogin(user, entry.Session, parsed); errValidate != nil {
		return LoginResult{}, wrap(op, fmt.Errorf("%w: %v", ErrVerificationFailed, errValidate))
	}

	presented := parsed.Response.AuthenticatorData.Counter
	if !counterAdvanced(row.SignCount, presented) {
		return LoginResult{}, wrap(op, fmt.Errorf("%w: stored %d, presented %d", ErrCounterRegressed, row.SignCount, presented))
	}
	updated, err := s.store.UpdateSignCount(ctx, row.ID, row.SignCount, presented, s.now().UTC())
	if err != nil {
		return LoginResult{}, wrap(op, err)
	}
	if !updated {
		return LoginResult{}, wrap(op, fmt.Errorf("%w: concurrent counter update", ErrCounterRegressed))
	}

	return s.issueSession(op, adminID, false)
}

// counterAdvanced applies the clone check: the presented counter must be
// strictly greater than the stored one. Authenticators that never count
// (both zero) are accepted, which weakens clone detection for them.
func counterAdvanced(stored, presented uint32) bool {
	if stored == 0 && presented == 0 {
		return true
	}
	return presented > stored
}

// consume removes the outstanding challenge and checks its purpose.
func (s *Service) consume(ctx context.Context, adminID uint64, purpose challenge.Purpose) (challenge.Entry, error) {
	entry, ok, err := s.ledger.Consume(ctx, adminID)
	if err != nil {
		return challenge.Entry{}, err
	}
	if !ok || entry.Purpose != purpose {
		return challenge.Entry{}, ErrChallengeExpired
	}
	return entry, nil
}

// loadUser loads the administrator with its credentials.
func (s *Service) loadUser(ctx context.Context, adminID uint64) (adminUser, error) {
	if adminID == 0 {
		return adminUser{}, ErrUnauthenticated
	}
	if _, err := s.store.GetAdmin(ctx, adminID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return adminUser{}, ErrUnauthenticated
		}
		return adminUser{}, err
	}
	rows, err := s.store.ListCredentials(ctx, adminID)
	if err != nil {
		return adminUser{}, err
	}
	return newAdminUser(adminID, rows), nil
}

func normalizeDeviceName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultDeviceName
	}
	if utf8.RuneCountInString(name) > maxDeviceNameLen {
		name = string([]rune(name)[:maxDeviceNameLen])
	}
	return name
}
