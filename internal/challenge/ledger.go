// Package challenge tracks the single outstanding WebAuthn challenge of each
// administrator. Issuing overwrites, consuming removes, and entries older
// than the configured TTL read as absent.
package challenge

import (
	"context"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
)

// Purpose names the ceremony a challenge was issued for.
type Purpose string

// Ceremony purposes.
const (
	PurposeRegistration   Purpose = "registration"
	PurposeAuthentication Purpose = "authentication"
)

// Entry is an issued challenge together with the ceremony state needed to
// verify the response.
type Entry struct {
	Purpose  Purpose              `json:"purpose"`
	Session  webauthn.SessionData `json:"session"`
	IssuedAt time.Time            `json:"issued_at"`
}

// Challenge returns the base64url challenge string.
func (e Entry) Challenge() string {
	return e.Session.Challenge
}

// Ledger maps an administrator to at most one outstanding challenge.
type Ledger interface {
	// Issue stores entry for adminID, replacing any previous one.
	Issue(ctx context.Context, adminID uint64, entry Entry) error
	// Peek returns the live entry without removing it.
	Peek(ctx context.Context, adminID uint64) (Entry, bool, error)
	// Consume returns the live entry and removes it atomically.
	Consume(ctx context.Context, adminID uint64) (Entry, bool, error)
}
