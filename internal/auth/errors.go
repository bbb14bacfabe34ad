package auth

import (
	"errors"
)

// Authentication errors. Callers match them with errors.Is; the HTTP layer
// maps them to status codes and generic messages.
var (
	// ErrInvalidInputFormat indicates a malformed PIN or credential response.
	ErrInvalidInputFormat = errors.New("invalid input format")
	// ErrInvalidCredential indicates a wrong PIN.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrUnauthenticated indicates a missing or invalid session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrChallengeExpired indicates no live challenge matched the ceremony.
	ErrChallengeExpired = errors.New("challenge expired")
	// ErrVerificationFailed indicates the authenticator response did not verify.
	ErrVerificationFailed = errors.New("verification failed")
	// ErrCredentialNotFound indicates the presented credential is unknown.
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrOwnershipMismatch indicates the credential belongs to another admin.
	ErrOwnershipMismatch = errors.New("credential ownership mismatch")
	// ErrCounterRegressed indicates a signature counter that did not advance.
	ErrCounterRegressed = errors.New("signature counter regressed")
	// ErrNoCredentialsRegistered indicates there is nothing to authenticate with.
	ErrNoCredentialsRegistered = errors.New("no credentials registered")
	// ErrNotFoundOrUnauthorized indicates a delete target that is absent or foreign.
	ErrNotFoundOrUnauthorized = errors.New("credential not found or not owned")
)

// Error wraps an authentication failure with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op == "" {
		return "auth: " + e.Err.Error()
	}
	return "auth: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// reasons gives each sentinel a stable label for metrics and logs.
var reasons = []struct {
	err    error
	reason string
}{
	{ErrInvalidInputFormat, "invalid_input"},
	{ErrInvalidCredential, "invalid_credential"},
	{ErrUnauthenticated, "unauthenticated"},
	{ErrChallengeExpired, "challenge_expired"},
	{ErrVerificationFailed, "verification_failed"},
	{ErrCredentialNotFound, "credential_not_found"},
	{ErrOwnershipMismatch, "ownership_mismatch"},
	{ErrCounterRegressed, "counter_regressed"},
	{ErrNoCredentialsRegistered, "no_credentials"},
	{ErrNotFoundOrUnauthorized, "not_found_or_unauthorized"},
}

// Reason returns the label for err, or "internal" for anything that is not
// an authentication outcome.
func Reason(err error) string {
	for _, candidate := range reasons {
		if errors.Is(err, candidate.err) {
			return candidate.reason
		}
	}
	return "internal"
}
