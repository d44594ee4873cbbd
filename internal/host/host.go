// Package host declares the host operations the mod intercepts and the
// host's built-in implementations of them.
package host

import (
	"context"
	"fmt"
	"time"

	"github.com/rl1809/pack-n-strap/internal/core/domain"
	"github.com/rl1809/pack-n-strap/internal/logger"
	"github.com/rl1809/pack-n-strap/internal/port"
)

const (
	OpGameStart          = "GameController.gameStart"
	OpItemKeptAfterDeath = "InRaidHelper.isItemKeptAfterDeath"
)

type GameStartRequest struct {
	URL       string
	SessionID string
	StartedAt time.Time
}

type GameStartFunc func(ctx context.Context, req GameStartRequest) error

type RetentionQuery struct {
	Inventory *domain.Inventory
	Item      domain.Item
}

type RetentionFunc func(ctx context.Context, q RetentionQuery) bool

// GameStart is the built-in game start: it stamps the session start time.
func GameStart(profiles port.ProfileRepository, log *logger.Logger) GameStartFunc {
	return func(ctx context.Context, req GameStartRequest) error {
		if req.SessionID == "" {
			return nil
		}
		at := req.StartedAt
		if at.IsZero() {
			at = time.Now()
		}
		if err := profiles.MarkSessionStarted(ctx, req.SessionID, at); err != nil {
			return fmt.Errorf("mark session started: %w", err)
		}
		log.Debugf("session %s started", req.SessionID)
		return nil
	}
}

// ItemKeptAfterDeath is the built-in retention decision driven by lostOnDeath.
func ItemKeptAfterDeath(lostOnDeath *LostOnDeath) RetentionFunc {
	return func(_ context.Context, q RetentionQuery) bool {
		inv := q.Inventory
		if inv == nil {
			return false
		}
		if q.Item.ID == inv.Equipment {
			return true
		}
		if q.Item.ParentID == inv.Equipment {
			return !lostOnDeath.EquipmentLost(q.Item.SlotID)
		}
		if secured, ok := inv.EquippedIn(domain.SlotSecuredContainer); ok {
			return inv.IsDescendantOf(q.Item.ID, secured.ID)
		}
		return false
	}
}
