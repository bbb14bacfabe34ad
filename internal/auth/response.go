package auth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-webauthn/webauthn/protocol"
)

// publicKeyType is the only credential type accepted.
const publicKeyType = "public-key"

// credentialEnvelope is the JSON shape both ceremony responses share.
type credentialEnvelope struct {
	ID       string `json:"id"`
	RawID    string `json:"rawId"`
	Type     string `json:"type"`
	Response struct {
		ClientDataJSON    string `json:"clientDataJSON"`
		AttestationObject string `json:"attestationObject"`
		AuthenticatorData string `json:"authenticatorData"`
		Signature         string `json:"signature"`
	} `json:"response"`
}

func decodeEnvelope(raw []byte) (credentialEnvelope, error) {
	var env credentialEnvelope
	if len(raw) == 0 {
		return env, fmt.Errorf("%w: empty credential", ErrInvalidInputFormat)
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrInvalidInputFormat, err)
	}
	switch {
	case strings.TrimSpace(env.ID) == "":
		return env, fmt.Errorf("%w: missing id", ErrInvalidInputFormat)
	case strings.TrimSpace(env.RawID) == "":
		return env, fmt.Errorf("%w: missing rawId", ErrInvalidInputFormat)
	case env.Type != publicKeyType:
		return env, fmt.Errorf("%w: unsupported type %q", ErrInvalidInputFormat, env.Type)
	case env.Response.ClientDataJSON == "":
		return env, fmt.Errorf("%w: missing clientDataJSON", ErrInvalidInputFormat)
	}
	return env, nil
}

// ParseRegistrationResponse validates and parses an attestation response.
func ParseRegistrationResponse(raw []byte) (*protocol.ParsedCredentialCreationData, error) {
	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if env.Response.AttestationObject == "" {
		return nil, fmt.Errorf("%w: missing attestationObject", ErrInvalidInputFormat)
	}
	parsed, err := protocol.ParseCredentialCreationResponseBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInputFormat, err)
	}
	return parsed, nil
}

// ParseAuthenticationResponse validates and parses an assertion response.
func ParseAuthenticationResponse(raw []byte) (*protocol.ParsedCredentialAssertionData, error) {
	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if env.Response.AuthenticatorData == "" || env.Response.Signature == "" {
		return nil, fmt.Errorf("%w: missing authenticatorData or signature", ErrInvalidInputFormat)
	}
	parsed, err := protocol.ParseCredentialRequestResponseBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInputFormat, err)
	}
	return parsed, nil
}
