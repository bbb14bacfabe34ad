package security

import (
	"testing"

	"github.com/linkcapture/console/internal/config"
)

func TestNewWebAuthnUsesConfiguredRelyingParty(t *testing.T) {
	wa, err := NewWebAuthn(config.WebAuthnConfig{
		RPID:    "example.com",
		RPName:  "Example",
		Origins: []string{"https://example.com"},
	})
	if err != nil {
		t.Fatalf("new webauthn: %v", err)
	}
	if wa.Config.RPID != "example.com" || wa.Config.RPDisplayName != "Example" {
		t.Fatalf("unexpected relying party %+v", wa.Config)
	}
}

func TestNewWebAuthnRequiresOrigin(t *testing.T) {
	if _, err := NewWebAuthn(config.WebAuthnConfig{RPID: "example.com", RPName: "Example"}); err == nil {
		t.Fatalf("expected error without origins")
	}
}
