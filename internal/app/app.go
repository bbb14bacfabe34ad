package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linkcapture/console/internal/auth"
	"github.com/linkcapture/console/internal/challenge"
	"github.com/linkcapture/console/internal/config"
	"github.com/linkcapture/console/internal/db"
	consolehttp "github.com/linkcapture/console/internal/http"
	"github.com/linkcapture/console/internal/http/api/admin"
	"github.com/linkcapture/console/internal/http/api/admin/handlers"
	"github.com/linkcapture/console/internal/logging"
	"github.com/linkcapture/console/internal/security"
	"github.com/linkcapture/console/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	janitorInterval = time.Minute
	shutdownTimeout = 10 * time.Second
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn.WithContext(ctx)); errMigrate != nil {
		return errMigrate
	}
	log.WithField("dialect", db.DialectName(conn)).Info("database migrated")
	return nil
}

// RunServer boots the admin console API and blocks until ctx is done.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	appCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logCloser, err := logging.Setup(appCfg.Logging, appCfg.IsProduction())
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	conn, err := db.Open(appCfg.Database.DSN)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	gormStore := store.NewGormStore(conn)

	ledger, closeLedger, err := buildLedger(ctx, appCfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	webAuthn, err := security.NewWebAuthn(appCfg.WebAuthn)
	if err != nil {
		return err
	}
	svc, err := auth.NewService(auth.ServiceParams{
		Store:    gormStore,
		Ledger:   ledger,
		WebAuthn: webAuthn,
		Sessions: security.NewSessionIssuer(appCfg.JWT.Secret, appCfg.JWT.Expiry),
	})
	if err != nil {
		return err
	}

	limiter := consolehttp.NewLoginLimiter(appCfg.RateLimit.LoginPerMinute, appCfg.RateLimit.Burst)
	go limiter.Run(ctx, janitorInterval)

	engine, err := newEngine(appCfg, svc, gormStore, limiter)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              appCfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"addr":   appCfg.Server.Addr,
			"rp_id":  appCfg.WebAuthn.RPID,
			"config": configPath,
		}).Info("starting admin console")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case errServe := <-serveErr:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info("shutting down admin console")
	return server.Shutdown(shutdownCtx)
}

// newEngine builds the gin engine with middleware and routes.
func newEngine(cfg *config.Config, svc *auth.Service, health handlers.Pinger, limiter *consolehttp.LoginLimiter) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if errProxies := engine.SetTrustedProxies(cfg.Server.TrustedProxies); errProxies != nil {
		return nil, fmt.Errorf("app: trusted proxies: %w", errProxies)
	}
	engine.Use(
		gin.Recovery(),
		consolehttp.RequestIDMiddleware(),
		consolehttp.RequestLoggerMiddleware(),
	)

	admin.RegisterAdminRoutes(engine, admin.RouteParams{
		Service: svc,
		Health:  health,
		Cookie: handlers.CookieConfig{
			Secure: cfg.IsProduction(),
			MaxAge: svc.SessionTTL(),
		},
		LoginLimiter: limiter.Middleware(),
	})
	if cfg.Metrics.Enabled {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	return engine, nil
}

// buildLedger selects the Redis ledger when an address is configured and
// the in-memory ledger otherwise.
func buildLedger(ctx context.Context, cfg *config.Config) (challenge.Ledger, func(), error) {
	if cfg.Redis.Addr == "" {
		ledger := challenge.NewMemoryLedger(cfg.WebAuthn.ChallengeTTL)
		go ledger.Run(ctx, janitorInterval)
		log.Info("using in-memory challenge ledger")
		return ledger, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if errPing := client.Ping(pingCtx).Err(); errPing != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("app: redis ping %s: %w", cfg.Redis.Addr, errPing)
	}
	log.WithField("addr", cfg.Redis.Addr).Info("using redis challenge ledger")
	return challenge.NewRedisLedger(client, cfg.Redis.KeyPrefix, cfg.WebAuthn.ChallengeTTL), func() { _ = client.Close() }, nil
}
