package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/linkcapture/console/internal/db"
	"github.com/linkcapture/console/internal/models"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) (*GormStore, *gorm.DB) {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		t.Fatalf("sql db: %v", errDB)
	}
	sqlDB.SetMaxOpenConns(1)
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return NewGormStore(conn), conn
}

func TestFirstAdminEmptyStore(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.FirstAdmin(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateAdminOnlyOnce(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	admin, err := s.CreateAdmin(ctx, "hash-1")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if admin.ID == 0 {
		t.Fatalf("expected generated id")
	}
	if _, err = s.CreateAdmin(ctx, "hash-2"); !errors.Is(err, ErrAdminExists) {
		t.Fatalf("expected ErrAdminExists, got %v", err)
	}

	first, err := s.FirstAdmin(ctx)
	if err != nil {
		t.Fatalf("first admin: %v", err)
	}
	if first.ID != admin.ID || first.PinHash != "hash-1" {
		t.Fatalf("unexpected admin %+v", first)
	}
}

func TestCredentialLifecycle(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	cred := &models.WebAuthnCredential{CredentialID: []byte{1, 2, 3}, AdminID: 7, PublicKey: []byte{9}, DeviceName: "Phone", SignCount: 5}
	if err := s.CreateCredential(ctx, cred); err != nil {
		t.Fatalf("create credential: %v", err)
	}
	dup := &models.WebAuthnCredential{CredentialID: []byte{1, 2, 3}, AdminID: 7, PublicKey: []byte{9}, DeviceName: "Dup"}
	if err := s.CreateCredential(ctx, dup); !errors.Is(err, ErrCredentialExists) {
		t.Fatalf("expected ErrCredentialExists, got %v", err)
	}

	got, err := s.GetCredential(ctx, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("get credential: %v", err)
	}
	if got.AdminID != 7 || got.SignCount != 5 {
		t.Fatalf("unexpected credential %+v", got)
	}

	now := time.Now().UTC()
	ok, err := s.UpdateSignCount(ctx, got.ID, 4, 6, now)
	if err != nil {
		t.Fatalf("update sign count: %v", err)
	}
	if ok {
		t.Fatalf("expected stale expected value to lose")
	}
	ok, err = s.UpdateSignCount(ctx, got.ID, 5, 6, now)
	if err != nil || !ok {
		t.Fatalf("expected update to apply, ok=%v err=%v", ok, err)
	}
	got, _ = s.GetCredential(ctx, []byte{1, 2, 3})
	if got.SignCount != 6 || got.LastUsedAt == nil {
		t.Fatalf("expected counter 6 with last used, got %+v", got)
	}

	deleted, err := s.DeleteCredential(ctx, 8, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("delete foreign: %v", err)
	}
	if deleted {
		t.Fatalf("foreign admin must not delete credential")
	}
	deleted, err = s.DeleteCredential(ctx, 7, []byte{1, 2, 3})
	if err != nil || !deleted {
		t.Fatalf("expected owner delete, deleted=%v err=%v", deleted, err)
	}
	if _, err = s.GetCredential(ctx, []byte{1, 2, 3}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListCredentialsScopedAndOrdered(t *testing.T) {
	s, conn := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.WebAuthnCredential{
		{CredentialID: []byte("b"), AdminID: 1, PublicKey: []byte{1}, DeviceName: "second", CreatedAt: base.Add(time.Hour)},
		{CredentialID: []byte("a"), AdminID: 1, PublicKey: []byte{1}, DeviceName: "first", CreatedAt: base},
		{CredentialID: []byte("c"), AdminID: 2, PublicKey: []byte{1}, DeviceName: "other", CreatedAt: base},
	}
	if errCreate := conn.Create(&rows).Error; errCreate != nil {
		t.Fatalf("seed: %v", errCreate)
	}

	list, err := s.ListCredentials(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].DeviceName != "first" || list[1].DeviceName != "second" {
		t.Fatalf("unexpected list %+v", list)
	}
}
