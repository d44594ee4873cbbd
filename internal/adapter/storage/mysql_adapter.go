package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/rl1809/pack-n-strap/internal/adapter/storage/migrations"
)

const mysqlUpsertTemplate = `
		INSERT INTO item_templates (id, name, parent_id, slots, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			parent_id = VALUES(parent_id),
			slots = VALUES(slots),
			updated_at = VALUES(updated_at)`

// OpenMySQLTemplateStore connects to dsn and returns a store that owns the
// connection pool.
func OpenMySQLTemplateStore(ctx context.Context, dsn string) (*TemplateStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	store, err := NewMySQLTemplateStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewMySQLTemplateStore applies the MySQL schema and returns a store on db.
// Closing the store closes db.
func NewMySQLTemplateStore(ctx context.Context, db *sql.DB) (*TemplateStore, error) {
	if err := applyMigrations(ctx, db, migrations.FS, "mysql"); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &TemplateStore{db: db, upsertSQL: mysqlUpsertTemplate}, nil
}
