package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/linkcapture/console/internal/config"
	log "github.com/sirupsen/logrus"
)

func TestSetupWritesToRotatingFile(t *testing.T) {
	defer log.SetOutput(os.Stdout)

	file := filepath.Join(t.TempDir(), "logs", "console.log")
	closer, err := Setup(config.LoggingConfig{Level: "debug", File: file}, false)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	log.WithField("admin_id", 1).Info("hello")
	if errClose := closer.Close(); errClose != nil {
		t.Fatalf("close: %v", errClose)
	}

	data, errRead := os.ReadFile(file)
	if errRead != nil {
		t.Fatalf("read log file: %v", errRead)
	}
	if len(data) == 0 {
		t.Fatalf("expected log output in %s", file)
	}
	if log.GetLevel() != log.DebugLevel {
		t.Fatalf("expected debug level, got %s", log.GetLevel())
	}
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	if _, err := Setup(config.LoggingConfig{Level: "chatty"}, false); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewRotatingWriterRequiresPath(t *testing.T) {
	if _, err := NewRotatingWriter("", 0, 0); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
