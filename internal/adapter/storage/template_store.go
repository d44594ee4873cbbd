package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rl1809/pack-n-strap/internal/core/domain"
)

// TemplateStore keeps item templates in a SQL database. The MySQL and SQLite
// constructors differ only in their upsert statement and schema.
type TemplateStore struct {
	db        *sql.DB
	upsertSQL string
}

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// OpenTemplateStore opens the backend named by driver. source is the SQLite
// file path or the MySQL DSN.
func OpenTemplateStore(ctx context.Context, driver, source string) (*TemplateStore, error) {
	switch strings.ToLower(driver) {
	case DriverSQLite:
		return OpenSQLiteTemplateStore(ctx, source)
	case DriverMySQL:
		return OpenMySQLTemplateStore(ctx, source)
	default:
		return nil, fmt.Errorf("unknown template store %q", driver)
	}
}

func (s *TemplateStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *TemplateStore) GetTemplate(ctx context.Context, id string) (*domain.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, parent_id, slots
		FROM item_templates WHERE id = ?`, id,
	)
	tpl, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query template: %w", err)
	}
	return &tpl, nil
}

func (s *TemplateStore) ListByParent(ctx context.Context, parentID string) ([]domain.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, parent_id, slots
		FROM item_templates WHERE parent_id = ?
		ORDER BY id`, parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var templates []domain.Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return templates, nil
}

func (s *TemplateStore) SaveTemplate(ctx context.Context, tpl domain.Template) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	tpl.ID = strings.TrimSpace(tpl.ID)
	if err := tpl.Validate(); err != nil {
		return err
	}

	slots := tpl.Slots
	if slots == nil {
		slots = []domain.Slot{}
	}
	payload, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("encode slots: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.upsertSQL,
		tpl.ID, tpl.Name, tpl.ParentID, string(payload), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert template: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (domain.Template, error) {
	var tpl domain.Template
	var slots string
	if err := row.Scan(&tpl.ID, &tpl.Name, &tpl.ParentID, &slots); err != nil {
		return domain.Template{}, err
	}
	if err := json.Unmarshal([]byte(slots), &tpl.Slots); err != nil {
		return domain.Template{}, fmt.Errorf("decode slots of %s: %w", tpl.ID, err)
	}
	return tpl, nil
}
