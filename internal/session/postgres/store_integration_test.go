package postgres

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"tesig/console/internal/session"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	id := uuid.NewString()
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond)
	if err := st.Save(ctx, id, session.Record{Token: "tok-1", User: []byte(`{"id":4,"rol":"ADMINISTRADOR"}`), ExpiresAt: expires}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.Save(ctx, id, session.Record{Token: "tok-2", User: []byte(`{"id":4,"rol":"ADMINISTRADOR"}`), ExpiresAt: expires}); err != nil {
		t.Fatalf("resave: %v", err)
	}

	record, err := st.Load(ctx, id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if record.Token != "tok-2" {
		t.Fatalf("token=%q, want tok-2", record.Token)
	}
	if !record.ExpiresAt.Equal(expires) {
		t.Fatalf("expires_at=%v, want %v", record.ExpiresAt, expires)
	}

	if err := st.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := st.Load(ctx, id); err != session.ErrNotFound {
		t.Fatalf("load after delete err=%v, want ErrNotFound", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	now := time.Now().UTC()
	for _, offset := range []time.Duration{-2 * time.Hour, -time.Minute, time.Hour} {
		if err := st.Save(ctx, uuid.NewString(), session.Record{Token: "t", User: []byte(`{}`), ExpiresAt: now.Add(offset)}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	removed, err := st.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed=%d, want 2", removed)
	}
}

func setupTestStore(t *testing.T, ctx context.Context) (*Store, func()) {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = os.Getenv("DB_DSN")
	}
	if dsn == "" {
		t.Skip("TEST_DB_DSN or DB_DSN is required for integration tests")
	}

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := execOnce(ctx, dsn, "CREATE SCHEMA "+schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("apply migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		_ = execOnce(context.Background(), dsn, "DROP SCHEMA "+schema+" CASCADE")
	}
	return NewStore(pool), cleanup
}

func execOnce(ctx context.Context, dsn, statement string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	_, err = conn.Exec(ctx, statement)
	return err
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	dir := filepath.Join("..", "..", "..", "migrations")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	for _, name := range files {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(content)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(content)); err != nil {
			return err
		}
	}
	return nil
}
