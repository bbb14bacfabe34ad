package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/linkcapture/console/internal/auth"
	"github.com/linkcapture/console/internal/challenge"
	"github.com/linkcapture/console/internal/config"
	"github.com/linkcapture/console/internal/db"
	consolehttp "github.com/linkcapture/console/internal/http"
	"github.com/linkcapture/console/internal/security"
	"github.com/linkcapture/console/internal/store"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Database: config.DatabaseConfig{DSN: filepath.Join(t.TempDir(), "console.db")},
		Metrics:  config.MetricsConfig{Enabled: true},
	}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestBuildLedgerDefaultsToMemory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ledger, closeLedger, err := buildLedger(ctx, testConfig(t))
	require.NoError(t, err)
	defer closeLedger()
	require.IsType(t, &challenge.MemoryLedger{}, ledger)
}

func TestNewEngineServesHealthAndMetrics(t *testing.T) {
	cfg := testConfig(t)
	conn, err := db.Open(cfg.Database.DSN)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	gormStore := store.NewGormStore(conn)

	wa, err := security.NewWebAuthn(cfg.WebAuthn)
	require.NoError(t, err)
	svc, err := auth.NewService(auth.ServiceParams{
		Store:    gormStore,
		Ledger:   challenge.NewMemoryLedger(time.Minute),
		WebAuthn: wa,
		Sessions: security.NewSessionIssuer(cfg.JWT.Secret, cfg.JWT.Expiry),
	})
	require.NoError(t, err)

	engine, err := newEngine(cfg, svc, gormStore, consolehttp.NewLoginLimiter(10, 5))
	require.NoError(t, err)

	for _, path := range []string{"/healthz", "/metrics"} {
		recorder := httptest.NewRecorder()
		engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, recorder.Code, path)
		require.NotEmpty(t, recorder.Header().Get(consolehttp.RequestIDHeader), path)
	}
}
