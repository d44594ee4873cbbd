package port

import (
	"context"

	"github.com/rl1809/pack-n-strap/internal/core/domain"
)

type TemplateRepository interface {
	// GetTemplate retrieves an item template by id, nil if unknown
	GetTemplate(ctx context.Context, id string) (*domain.Template, error)

	// ListByParent returns every template whose parent type is parentID
	ListByParent(ctx context.Context, parentID string) ([]domain.Template, error)

	// SaveTemplate inserts or replaces a template
	SaveTemplate(ctx context.Context, template domain.Template) error
}
