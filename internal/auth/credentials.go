package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/linkcapture/console/internal/metrics"
	"github.com/linkcapture/console/internal/models"
	"github.com/linkcapture/console/internal/store"
)

// CredentialSummary is the public view of a credential. It never carries
// key material.
type CredentialSummary struct {
	ID         string     `json:"id"`
	DeviceName string     `json:"deviceName"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

// SessionStatus describes the caller's session.
type SessionStatus struct {
	Authenticated  bool                `json:"authenticated"`
	HasFingerprint bool                `json:"hasFingerprint"`
	Credentials    []CredentialSummary `json:"credentials"`
}

func summarize(row models.WebAuthnCredential) CredentialSummary {
	return CredentialSummary{
		ID:         base64.RawURLEncoding.EncodeToString(row.CredentialID),
		DeviceName: row.DeviceName,
		CreatedAt:  row.CreatedAt,
		LastUsedAt: row.LastUsedAt,
	}
}

// ListCredentials returns the admin's credentials in creation order.
func (s *Service) ListCredentials(ctx context.Context, adminID uint64) (summaries []CredentialSummary, err error) {
	const op = metrics.OpListCredentials
	defer func() { s.observe(ctx, op, adminID, err) }()

	rows, err := s.store.ListCredentials(ctx, adminID)
	if err != nil {
		return nil, wrap(op, err)
	}
	summaries = make([]CredentialSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, summarize(row))
	}
	return summaries, nil
}

// DeleteCredential removes a credential owned by adminID. Unknown IDs,
// undecodable IDs and foreign credentials are indistinguishable.
func (s *Service) DeleteCredential(ctx context.Context, adminID uint64, id string) (err error) {
	const op = metrics.OpDeleteCredential
	defer func() { s.observe(ctx, op, adminID, err) }()

	credentialID, errDecode := base64.RawURLEncoding.DecodeString(id)
	if errDecode != nil || len(credentialID) == 0 {
		return wrap(op, ErrNotFoundOrUnauthorized)
	}
	deleted, err := s.store.DeleteCredential(ctx, adminID, credentialID)
	if err != nil {
		return wrap(op, err)
	}
	if !deleted {
		return wrap(op, ErrNotFoundOrUnauthorized)
	}
	return nil
}

// SessionStatus reports whether adminID still exists and which
// credentials it has registered.
func (s *Service) SessionStatus(ctx context.Context, adminID uint64) (status SessionStatus, err error) {
	const op = metrics.OpSessionStatus
	defer func() { s.observe(ctx, op, adminID, err) }()

	if _, errAdmin := s.store.GetAdmin(ctx, adminID); errAdmin != nil {
		if errors.Is(errAdmin, store.ErrNotFound) {
			return SessionStatus{}, wrap(op, ErrUnauthenticated)
		}
		return SessionStatus{}, wrap(op, errAdmin)
	}
	rows, err := s.store.ListCredentials(ctx, adminID)
	if err != nil {
		return SessionStatus{}, wrap(op, err)
	}
	status = SessionStatus{Authenticated: true, HasFingerprint: len(rows) > 0, Credentials: make([]CredentialSummary, 0, len(rows))}
	for _, row := range rows {
		status.Credentials = append(status.Credentials, summarize(row))
	}
	return status, nil
}
