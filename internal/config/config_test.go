package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"APP_ENV", "LISTEN_ADDR", "DATABASE_URL", "JWT_SECRET", "WEBAUTHN_RP_ID", "WEBAUTHN_ORIGIN", "REDIS_ADDR", "LOG_LEVEL", "METRICS_ENABLED", "CONFIG_PATH"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if errWrite := os.WriteFile(path, []byte(body), 0o600); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	return path
}

func TestLoadMissingFileAppliesDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != DefaultListenAddr {
		t.Fatalf("expected addr %q, got %q", DefaultListenAddr, cfg.Server.Addr)
	}
	if cfg.JWT.Secret != DevJWTSecret {
		t.Fatalf("expected development secret outside production")
	}
	if cfg.JWT.Expiry != 7*24*time.Hour {
		t.Fatalf("expected 7 day expiry, got %s", cfg.JWT.Expiry)
	}
	if cfg.WebAuthn.RPID != "localhost" {
		t.Fatalf("expected rp id localhost, got %q", cfg.WebAuthn.RPID)
	}
	if len(cfg.WebAuthn.Origins) != 1 || cfg.WebAuthn.Origins[0] != DefaultOrigin {
		t.Fatalf("unexpected origins %v", cfg.WebAuthn.Origins)
	}
	if cfg.WebAuthn.ChallengeTTL != DefaultChallengeTTL {
		t.Fatalf("expected challenge ttl %s, got %s", DefaultChallengeTTL, cfg.WebAuthn.ChallengeTTL)
	}
}

func TestLoadParsesYAMLAndDerivesRPID(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfig(t, `
environment: staging
server:
  addr: ":9090"
jwt:
  secret: from-file
  expiry: 48h
webauthn:
  origins:
    - https://console.example.com
  challenge_ttl: 2m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("expected addr :9090, got %q", cfg.Server.Addr)
	}
	if cfg.JWT.Secret != "from-file" || cfg.JWT.Expiry != 48*time.Hour {
		t.Fatalf("unexpected jwt config %+v", cfg.JWT)
	}
	if cfg.WebAuthn.RPID != "console.example.com" {
		t.Fatalf("expected derived rp id, got %q", cfg.WebAuthn.RPID)
	}
	if cfg.WebAuthn.ChallengeTTL != 2*time.Minute {
		t.Fatalf("expected 2m ttl, got %s", cfg.WebAuthn.ChallengeTTL)
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfig(t, "jwt:\n  secret: from-file\n")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("WEBAUTHN_ORIGIN", "https://a.example.com, https://b.example.com")
	t.Setenv("WEBAUTHN_RP_ID", "example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Fatalf("expected env secret, got %q", cfg.JWT.Secret)
	}
	if len(cfg.WebAuthn.Origins) != 2 {
		t.Fatalf("expected two origins, got %v", cfg.WebAuthn.Origins)
	}
	if cfg.WebAuthn.RPID != "example.com" {
		t.Fatalf("expected explicit rp id, got %q", cfg.WebAuthn.RPID)
	}
}

func TestLoadRejectsDevelopmentSecretInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrInsecureSecret) {
		t.Fatalf("expected ErrInsecureSecret, got %v", err)
	}

	t.Setenv("JWT_SECRET", DevJWTSecret)
	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrInsecureSecret) {
		t.Fatalf("expected ErrInsecureSecret for fallback secret, got %v", err)
	}

	t.Setenv("JWT_SECRET", "a-real-secret")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load with real secret: %v", err)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production mode")
	}
}

func TestResolveConfigPath(t *testing.T) {
	clearConfigEnv(t)
	if got := ResolveConfigPath("  custom.yaml "); got != "custom.yaml" {
		t.Fatalf("expected flag path, got %q", got)
	}
	t.Setenv("CONFIG_PATH", "/etc/console.yaml")
	if got := ResolveConfigPath(""); got != "/etc/console.yaml" {
		t.Fatalf("expected env path, got %q", got)
	}
}
