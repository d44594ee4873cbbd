// Package mod holds the Pack 'n' Strap context object: it installs the
// interceptors on the host registry and runs the post-database-load patches.
package mod

import (
	"context"
	"fmt"

	"github.com/rl1809/pack-n-strap/internal/config"
	"github.com/rl1809/pack-n-strap/internal/core/domain"
	"github.com/rl1809/pack-n-strap/internal/core/service"
	"github.com/rl1809/pack-n-strap/internal/host"
	"github.com/rl1809/pack-n-strap/internal/intercept"
	"github.com/rl1809/pack-n-strap/internal/logger"
	"github.com/rl1809/pack-n-strap/internal/port"
)

const Name = "WTT-Pack 'n' Strap"

type Mod struct {
	cfg         config.Mod
	log         *logger.Logger
	templates   port.TemplateRepository
	migrator    *service.MigrationService
	lostOnDeath *host.LostOnDeath
}

func New(cfg config.Mod, profiles port.ProfileRepository, templates port.TemplateRepository, lostOnDeath *host.LostOnDeath, log *logger.Logger) *Mod {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("mod", Name)
	return &Mod{
		cfg:         cfg,
		log:         log,
		templates:   templates,
		migrator:    service.NewMigrationService(profiles, templates, log),
		lostOnDeath: lostOnDeath,
	}
}

func (m *Mod) Migrator() *service.MigrationService {
	return m.migrator
}

// Install registers the mod's wrappers. It may run before the host provides
// its built-ins.
func (m *Mod) Install(reg *intercept.Registry) error {
	if err := intercept.Intercept(reg, host.OpGameStart, service.GameStartHook(m.migrator)); err != nil {
		return fmt.Errorf("intercept %s: %w", host.OpGameStart, err)
	}
	if m.cfg.LoseArmbandOnDeath {
		return nil
	}
	if err := intercept.Intercept(reg, host.OpItemKeptAfterDeath, service.ArmbandRetentionHook(m.log)); err != nil {
		return fmt.Errorf("intercept %s: %w", host.OpItemKeptAfterDeath, err)
	}
	return nil
}

// PostDBLoad runs once the template database is available.
func (m *Mod) PostDBLoad(ctx context.Context) error {
	if m.cfg.AddCasesToSecureContainer {
		updated, err := service.AddCasesToSecureContainers(ctx, m.templates, m.log)
		if err != nil {
			return fmt.Errorf("add cases to secure containers: %w", err)
		}
		m.log.Debugf("Updated %d secure containers", updated)
	}

	m.log.Infof("[%s] Database: Loading complete.", Name)

	if m.cfg.LoseArmbandOnDeath {
		m.lostOnDeath.SetEquipmentLost(domain.SlotArmBand, true)
	}
	return nil
}
