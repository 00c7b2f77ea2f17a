package contacts_test

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	migrations "github.com/threadlinehq/threadline/db"
	"github.com/threadlinehq/threadline/internal/contacts"
	"github.com/threadlinehq/threadline/internal/db"
)

func setupContactsIntegrationTest(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("skip integration test: TEST_POSTGRES_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("skip integration test: cannot connect to database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("skip integration test: database ping failed: %v", err)
	}

	source, err := fs.Sub(migrations.MigrationsFS, "migrations")
	if err != nil {
		pool.Close()
		t.Fatalf("migration source: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if err := db.RunMigrate(logger, dsn, source, "up", nil); err != nil {
		pool.Close()
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, "TRUNCATE messages, threads, contacts RESTART IDENTITY CASCADE"); err != nil {
		pool.Close()
		t.Fatalf("truncate: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestBulkLoadIsIdempotent(t *testing.T) {
	pool := setupContactsIntegrationTest(t)
	ctx := context.Background()

	csvPath := writeCSV(t, "first_name,last_name,phone\n"+
		"Mary,Adams,+15551234\n"+
		"John,Doe,+15550001\n"+
		"Ethan,Kim,+15550003\n"+
		"Mary,Duplicate,+15551234\n")
	svc := contacts.NewService(nil, pool, csvPath)

	result, err := svc.BulkLoad(ctx)
	if err != nil {
		t.Fatalf("first bulk load: %v", err)
	}
	if result.Loaded != 3 || result.Skipped != 1 {
		t.Fatalf("first load = %+v, want 3 loaded 1 skipped", result)
	}

	again, err := svc.BulkLoad(ctx)
	if err != nil {
		t.Fatalf("second bulk load: %v", err)
	}
	if !again.AlreadyPopulated {
		t.Fatalf("second load = %+v, want already populated", again)
	}

	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("contact count = %d, want 3", len(all))
	}
	// Insertion order is preserved.
	if all[0].Phone != "+15551234" || all[2].Phone != "+15550003" {
		t.Fatalf("unexpected order: %+v", all)
	}
}

func TestBulkLoadMissingSourceIsSoftFailure(t *testing.T) {
	pool := setupContactsIntegrationTest(t)
	ctx := context.Background()

	svc := contacts.NewService(nil, pool, filepath.Join(t.TempDir(), "nope.csv"))

	result, err := svc.BulkLoad(ctx)
	if err != nil {
		t.Fatalf("bulk load: %v", err)
	}
	if !result.SourceMissing {
		t.Fatalf("result = %+v, want source missing", result)
	}

	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("contact count = %d, want 0", len(all))
	}
}

func TestLookups(t *testing.T) {
	pool := setupContactsIntegrationTest(t)
	ctx := context.Background()

	csvPath := writeCSV(t, "Mary,Adams,+15551234\nJohn,Doe,+15550001\n")
	svc := contacts.NewService(nil, pool, csvPath)
	if _, err := svc.BulkLoad(ctx); err != nil {
		t.Fatalf("bulk load: %v", err)
	}

	byPhone, err := svc.GetByPhone(ctx, "+15551234")
	if err != nil {
		t.Fatalf("get by phone: %v", err)
	}
	if byPhone.DisplayName() != "Mary Adams" {
		t.Fatalf("display name = %q", byPhone.DisplayName())
	}

	byName, err := svc.GetByFullName(ctx, "mary ADAMS")
	if err != nil {
		t.Fatalf("get by full name: %v", err)
	}
	if byName.Phone != "+15551234" {
		t.Fatalf("phone = %q", byName.Phone)
	}

	if _, err := svc.GetByPhone(ctx, "+10000000"); !errors.Is(err, contacts.ErrContactNotFound) {
		t.Fatalf("unknown phone error = %v, want ErrContactNotFound", err)
	}
	if _, err := svc.GetByFullName(ctx, "Nobody Here"); !errors.Is(err, contacts.ErrContactNotFound) {
		t.Fatalf("unknown name error = %v, want ErrContactNotFound", err)
	}
}
