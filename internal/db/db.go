package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// pingTimeout bounds the connectivity check performed by Open.
const pingTimeout = 5 * time.Second

// poolLimits describes connection pool sizing per dialect.
type poolLimits struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
}

var (
	postgresPool = poolLimits{maxOpen: 25, maxIdle: 25, maxLifetime: 30 * time.Minute}
	sqlitePool   = poolLimits{maxOpen: 10, maxIdle: 10, maxLifetime: 30 * time.Minute}
)

// newGormLogger routes GORM warnings through logrus.
func newGormLogger() logger.Interface {
	return logger.New(log.StandardLogger(), logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         newGormLogger(),
		TranslateError: true,
	}
}

// Open opens a GORM connection, choosing the driver from the DSN shape.
func Open(dsn string) (*gorm.DB, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, fmt.Errorf("db: empty dsn")
	}

	dialect, err := detectDialectFromDSN(trimmed)
	if err != nil {
		return nil, err
	}
	switch dialect {
	case DialectPostgres:
		return openPostgres(trimmed)
	case DialectSQLite:
		return openSQLite(trimmed)
	default:
		return nil, fmt.Errorf("db: unsupported dialect: %s", dialect)
	}
}

// detectDialectFromDSN infers the dialect from a DSN string.
func detectDialectFromDSN(dsn string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DialectPostgres, nil
	}
	for _, keyword := range []string{"host=", "user=", "dbname=", "sslmode="} {
		if strings.Contains(lower, keyword) {
			return DialectPostgres, nil
		}
	}
	for _, prefix := range []string{"file:", "sqlite://", "sqlite3://"} {
		if strings.HasPrefix(lower, prefix) {
			return DialectSQLite, nil
		}
	}
	if !strings.Contains(lower, "://") {
		return DialectSQLite, nil
	}
	return "", fmt.Errorf("db: unsupported dsn scheme")
}

// openPostgres opens PostgreSQL through the pgx stdlib adapter.
func openPostgres(dsn string) (*gorm.DB, error) {
	cfg, errParse := pgx.ParseConfig(dsn)
	if errParse != nil {
		return nil, fmt.Errorf("db: parse dsn: %w", errParse)
	}
	if _, ok := cfg.RuntimeParams["timezone"]; !ok {
		cfg.RuntimeParams["timezone"] = "UTC"
	}
	sqlDB := stdlib.OpenDB(*cfg)

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig())
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db: open: %w", err)
	}
	if errReady := prepare(sqlDB, postgresPool, nil); errReady != nil {
		return nil, errReady
	}
	return conn, nil
}

// openSQLite opens a SQLite file with WAL, foreign keys and a busy timeout.
func openSQLite(dsn string) (*gorm.DB, error) {
	normalized := ensureSQLiteParams(normalizeSQLiteDSN(dsn))
	if errEnsure := ensureSQLiteDir(normalized); errEnsure != nil {
		return nil, errEnsure
	}

	conn, err := gorm.Open(sqlite.Open(normalized), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite sql: %w", err)
	}
	if errReady := prepare(sqlDB, sqlitePool, sqlitePragmas); errReady != nil {
		return nil, errReady
	}
	return conn, nil
}

// prepare sizes the pool, runs any session statements and pings. The
// connection is closed on failure.
func prepare(sqlDB *sql.DB, limits poolLimits, statements []string) error {
	sqlDB.SetMaxOpenConns(limits.maxOpen)
	sqlDB.SetMaxIdleConns(limits.maxIdle)
	sqlDB.SetConnMaxLifetime(limits.maxLifetime)

	for _, statement := range statements {
		if _, errExec := sqlDB.Exec(statement); errExec != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("db: %s: %w", statement, errExec)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if errPing := sqlDB.PingContext(ctx); errPing != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("db: ping: %w", errPing)
	}
	return nil
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// sqliteDefaultParams are appended to the DSN unless already present.
var sqliteDefaultParams = [][2]string{
	{"_busy_timeout", "5000"},
	{"_journal_mode", "WAL"},
	{"_foreign_keys", "on"},
	{"_synchronous", "NORMAL"},
}

// normalizeSQLiteDSN rewrites sqlite:// and sqlite3:// URLs as file: DSNs.
func normalizeSQLiteDSN(dsn string) string {
	trimmed := strings.TrimSpace(dsn)
	lower := strings.ToLower(trimmed)
	for _, scheme := range []string{"sqlite3://", "sqlite://"} {
		if strings.HasPrefix(lower, scheme) {
			return "file:" + trimmed[len(scheme):]
		}
	}
	return trimmed
}

// ensureSQLiteParams adds the default query parameters the DSN lacks.
func ensureSQLiteParams(dsn string) string {
	if dsn == "" {
		return dsn
	}
	present := map[string]bool{}
	if idx := strings.IndexByte(dsn, '?'); idx >= 0 {
		for _, part := range strings.Split(strings.ToLower(dsn[idx+1:]), "&") {
			if key, _, _ := strings.Cut(part, "="); key != "" {
				present[key] = true
			}
		}
	}

	var missing []string
	for _, param := range sqliteDefaultParams {
		if !present[param[0]] {
			missing = append(missing, param[0]+"="+param[1])
		}
	}
	if len(missing) == 0 {
		return dsn
	}
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + strings.Join(missing, "&")
}

// sqlitePathFromDSN returns the on-disk path of a SQLite DSN, or "" for
// in-memory databases.
func sqlitePathFromDSN(dsn string) string {
	trimmed := strings.TrimSpace(dsn)
	if strings.HasPrefix(strings.ToLower(trimmed), "file:") {
		trimmed = trimmed[len("file:"):]
		trimmed = strings.TrimPrefix(trimmed, "//")
	} else if strings.Contains(trimmed, "://") {
		return ""
	}
	if path, _, _ := strings.Cut(trimmed, "?"); path != ":memory:" {
		return path
	}
	return ""
}

// ensureSQLiteDir creates the parent directory of the database file.
func ensureSQLiteDir(dsn string) error {
	path := sqlitePathFromDSN(dsn)
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if errMkdir := os.MkdirAll(dir, 0o755); errMkdir != nil {
		return fmt.Errorf("db: create sqlite dir: %w", errMkdir)
	}
	return nil
}
