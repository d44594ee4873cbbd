package service

import (
	"context"

	"github.com/rl1809/pack-n-strap/internal/core/domain"
	"github.com/rl1809/pack-n-strap/internal/host"
	"github.com/rl1809/pack-n-strap/internal/logger"
)

// StartWithMigration migrates the session's profile, then calls through to
// original with the unchanged request. Migration failures never reach the
// caller; MigrateProfile has already logged them.
func (s *MigrationService) StartWithMigration(ctx context.Context, original host.GameStartFunc, req host.GameStartRequest) error {
	if req.SessionID != "" {
		_, _ = s.MigrateProfile(ctx, req.SessionID)
	}
	return original(ctx, req)
}

// GameStartHook wraps the host game start with StartWithMigration.
func GameStartHook(s *MigrationService) func(host.GameStartFunc) host.GameStartFunc {
	return func(original host.GameStartFunc) host.GameStartFunc {
		return func(ctx context.Context, req host.GameStartRequest) error {
			return s.StartWithMigration(ctx, original, req)
		}
	}
}

// KeepArmbandChildren forces retention of anything attached directly to the
// item in the armband slot and defers to original otherwise.
func KeepArmbandChildren(ctx context.Context, original host.RetentionFunc, q host.RetentionQuery) bool {
	if armband, ok := q.Inventory.EquippedIn(domain.SlotArmBand); ok && q.Item.ParentID == armband.ID {
		return true
	}
	return original(ctx, q)
}

func ArmbandRetentionHook(log *logger.Logger) func(host.RetentionFunc) host.RetentionFunc {
	if log == nil {
		log = logger.Nop()
	}
	return func(original host.RetentionFunc) host.RetentionFunc {
		return func(ctx context.Context, q host.RetentionQuery) bool {
			kept := KeepArmbandChildren(ctx, original, q)
			log.Debugf("item %s (%s) kept after death: %t", q.Item.ID, q.Item.TemplateID, kept)
			return kept
		}
	}
}
