package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:processed_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.ProcessedRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestMarkProcessed_ThenWasProcessed(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seen, err := WasProcessed(ctx, db, "m-1")
	if err != nil {
		t.Fatalf("WasProcessed: %v", err)
	}
	if seen {
		t.Fatal("fresh record reported as processed")
	}

	if err := MarkProcessed(ctx, db, "m-1", 555); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	seen, err = WasProcessed(ctx, db, "m-1")
	if err != nil {
		t.Fatalf("WasProcessed: %v", err)
	}
	if !seen {
		t.Fatal("marked record not reported as processed")
	}
}

func TestMarkProcessed_DuplicateIsDetected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := MarkProcessed(ctx, db, "m-1", 555); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if err := MarkProcessed(ctx, db, "m-1", 555); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second mark err = %v; want ErrDuplicate", err)
	}
}

func TestWasProcessed_EmptyIDIsNever(t *testing.T) {
	db := newTestDB(t)

	seen, err := WasProcessed(context.Background(), db, "  ")
	if err != nil {
		t.Fatalf("WasProcessed: %v", err)
	}
	if seen {
		t.Fatal("blank record id must not match anything")
	}
}

func TestPruneProcessed(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	old := &domain.ProcessedRecord{RecordID: "m-old", ChatID: 1, CreatedAt: time.Now().UTC().Add(-48 * time.Hour)}
	if err := db.Create(old).Error; err != nil {
		t.Fatalf("seed old: %v", err)
	}
	if err := MarkProcessed(ctx, db, "m-new", 2); err != nil {
		t.Fatalf("mark new: %v", err)
	}

	n, err := PruneProcessed(ctx, db, 24*time.Hour)
	if err != nil {
		t.Fatalf("PruneProcessed: %v", err)
	}
	if n != 1 {
		t.Fatalf("pruned = %d; want 1", n)
	}

	if seen, _ := WasProcessed(ctx, db, "m-old"); seen {
		t.Fatal("old marker survived prune")
	}
	if seen, _ := WasProcessed(ctx, db, "m-new"); !seen {
		t.Fatal("new marker pruned")
	}
}
