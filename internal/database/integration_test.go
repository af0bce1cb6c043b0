package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()

	tables := []string{
		"parents", "children", "reward_events", "reward_profiles", "reward_catalog", "redemptions",
		"medication_reminders", "medication_dose_logs", "medication_settings", "notifications",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Running again must be a no-op
	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
}

func TestWithTx(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO parents (id, name, email, created_at) VALUES (?, ?, ?, ?)", "p1", "Lan", "", now)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx() commit path failed: %v", err)
	}

	rollback := errors.New("rollback")
	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO parents (id, name, email, created_at) VALUES (?, ?, ?, ?)", "p2", "Minh", "", now); err != nil {
			return err
		}
		return rollback
	})
	if !errors.Is(err, rollback) {
		t.Fatalf("WithTx() error = %v, want %v", err, rollback)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM parents").Scan(&count); err != nil {
		t.Fatalf("count parents: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 parent after rollback, got %d", count)
	}
}

func TestUniqueViolationFromDriver(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insert := "INSERT INTO parents (id, name, email, created_at) VALUES (?, ?, ?, ?)"
	if _, err := db.ExecContext(ctx, insert, "p1", "Lan", "", now); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := db.ExecContext(ctx, insert, "p1", "Lan", "", now)
	if err == nil {
		t.Fatal("expected duplicate primary key error")
	}
	if !db.Dialect.IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}
}

func TestExecReturningID(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := db.ExecContext(ctx, "INSERT INTO parents (id, name, email, created_at) VALUES (?, ?, ?, ?)", "p1", "Lan", "", now); err != nil {
		t.Fatalf("insert parent: %v", err)
	}

	insert := `INSERT INTO notifications (user_id, type, title, message, is_read, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	first, err := db.ExecReturningID(ctx, insert, "p1", "child_login", "Login", "hi", false, now)
	if err != nil {
		t.Fatalf("ExecReturningID() error = %v", err)
	}
	second, err := db.ExecReturningID(ctx, insert, "p1", "child_logout", "Logout", "bye", false, now)
	if err != nil {
		t.Fatalf("ExecReturningID() error = %v", err)
	}
	if second <= first {
		t.Errorf("ExecReturningID() ids not increasing: %d then %d", first, second)
	}
}
