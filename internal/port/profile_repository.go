package port

import (
	"context"
	"time"

	"github.com/rl1809/pack-n-strap/internal/core/domain"
)

type ProfileRepository interface {
	// GetInventory returns the PMC inventory of a session, nil if the profile
	// has not been initialized
	GetInventory(ctx context.Context, sessionID string) (*domain.Inventory, error)

	// SaveInventory persists the inventory if its revision still matches the stored one
	SaveInventory(ctx context.Context, sessionID string, inventory domain.Inventory) error

	// MarkSessionStarted records the last game start for the session
	MarkSessionStarted(ctx context.Context, sessionID string, at time.Time) error
}
