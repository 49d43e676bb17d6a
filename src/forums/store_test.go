package forums

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/veilspire/realmgov/src/data"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := data.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestRegisterAndLookup(t *testing.T) {
	s := NewStore(newTestDB(t))
	ctx := context.Background()

	if err := s.Register(ctx, "g1", "c1", "Testland"); err != nil {
		t.Fatalf("register: %v", err)
	}

	f, err := s.Lookup(ctx, "g1", "c1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if f == nil || !f.Enabled || f.GuildName != "Testland" {
		t.Fatalf("unexpected registration: %+v", f)
	}

	if f, err := s.Lookup(ctx, "g1", "other"); err != nil || f != nil {
		t.Fatalf("lookup of unknown pair must be nil, nil; got %+v, %v", f, err)
	}
}

func TestRegisterTwiceKeepsOneRow(t *testing.T) {
	db := newTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	if err := s.Register(ctx, "g1", "c1", "Old"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.Register(ctx, "g1", "c1", "New"); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	var count int64
	db.Table("source_forums").Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
	f, _ := s.Lookup(ctx, "g1", "c1")
	if f == nil || f.GuildName != "New" {
		t.Fatalf("re-register must refresh guild name: %+v", f)
	}
}

func TestUnregisterDisables(t *testing.T) {
	s := NewStore(newTestDB(t))
	ctx := context.Background()

	if err := s.Register(ctx, "g1", "c1", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.Unregister(ctx, "g1", "c1"); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if f, _ := s.Lookup(ctx, "g1", "c1"); f != nil {
		t.Fatalf("disabled forum must not resolve, got %+v", f)
	}

	// Re-registering re-enables the same row.
	if err := s.Register(ctx, "g1", "c1", ""); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if f, _ := s.Lookup(ctx, "g1", "c1"); f == nil {
		t.Fatalf("re-registered forum must resolve again")
	}
}

func TestUnregisterUnknownPair(t *testing.T) {
	s := NewStore(newTestDB(t))
	if err := s.Unregister(context.Background(), "g1", "never"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}
