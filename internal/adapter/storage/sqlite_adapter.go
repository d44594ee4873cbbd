package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/rl1809/pack-n-strap/internal/adapter/storage/migrations"
)

const sqliteUpsertTemplate = `
		INSERT INTO item_templates (id, name, parent_id, slots, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			parent_id = excluded.parent_id,
			slots = excluded.slots,
			updated_at = excluded.updated_at`

// OpenSQLiteTemplateStore opens the SQLite database at path and applies the
// embedded migrations.
func OpenSQLiteTemplateStore(ctx context.Context, path string) (*TemplateStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS, "sqlite"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &TemplateStore{db: db, upsertSQL: sqliteUpsertTemplate}, nil
}
