package security

import (
	"fmt"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/linkcapture/console/internal/config"
)

// NewWebAuthn builds the relying party from configuration. Registration asks
// for a platform authenticator with user verification and no attestation.
func NewWebAuthn(cfg config.WebAuthnConfig) (*webauthn.WebAuthn, error) {
	if len(cfg.Origins) == 0 {
		return nil, fmt.Errorf("webauthn: at least one origin is required")
	}
	ttl := cfg.ChallengeTTL
	if ttl <= 0 {
		ttl = config.DefaultChallengeTTL
	}
	wa, err := webauthn.New(&webauthn.Config{
		RPID:                  cfg.RPID,
		RPDisplayName:         cfg.RPName,
		RPOrigins:             cfg.Origins,
		AttestationPreference: protocol.PreferNoAttestation,
		AuthenticatorSelection: protocol.AuthenticatorSelection{
			AuthenticatorAttachment: protocol.Platform,
			ResidentKey:             protocol.ResidentKeyRequirementPreferred,
			UserVerification:        protocol.VerificationRequired,
		},
		Timeouts: webauthn.TimeoutsConfig{
			Login: webauthn.TimeoutConfig{
				Enforce:    true,
				Timeout:    ttl,
				TimeoutUVD: ttl,
			},
			Registration: webauthn.TimeoutConfig{
				Enforce:    true,
				Timeout:    ttl,
				TimeoutUVD: ttl,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("webauthn: %w", err)
	}
	return wa, nil
}
