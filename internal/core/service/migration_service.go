package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rl1809/pack-n-strap/internal/core/domain"
	"github.com/rl1809/pack-n-strap/internal/logger"
	"github.com/rl1809/pack-n-strap/internal/port"
)

type MigrationReport struct {
	PassID     string
	SessionID  string
	Rewritten  int
	Containers int
	Relocated  int
	Skipped    bool
	RolledBack bool
}

func (r MigrationReport) Changed() bool {
	return !r.RolledBack && (r.Rewritten > 0 || r.Relocated > 0)
}

type MigrationService struct {
	profiles  port.ProfileRepository
	templates port.TemplateRepository
	log       *logger.Logger
	newPassID func() string
}

func NewMigrationService(profiles port.ProfileRepository, templates port.TemplateRepository, log *logger.Logger) *MigrationService {
	if log == nil {
		log = logger.Nop()
	}
	return &MigrationService{
		profiles:  profiles,
		templates: templates,
		log:       log,
		newPassID: uuid.NewString,
	}
}

// MigrateProfile loads the session's inventory, migrates it and persists the
// result. A missing or empty inventory is skipped. Every outcome is logged
// here so callers may ignore the error.
func (s *MigrationService) MigrateProfile(ctx context.Context, sessionID string) (MigrationReport, error) {
	inv, err := s.profiles.GetInventory(ctx, sessionID)
	if err != nil {
		s.log.Errorf(err, "Unable to load profile %s", sessionID)
		return MigrationReport{SessionID: sessionID}, fmt.Errorf("load inventory: %w", err)
	}

	report, err := s.Migrate(ctx, inv)
	report.SessionID = sessionID
	if err != nil {
		var slotErr *domain.UnresolvableSlotError
		if errors.As(err, &slotErr) {
			s.log.Errorf(err, "ERROR: Unable to find new slot for %s. Restoring inventory and exiting", slotErr.TemplateID)
		} else {
			s.log.Errorf(err, "Profile %s migration failed. Restoring inventory and exiting", sessionID)
		}
		return report, err
	}

	switch {
	case report.Skipped:
		s.log.Infof("Profile %s not initialized, nothing to migrate", sessionID)
		return report, nil
	case !report.Changed():
		s.log.Infof("Profile %s is up to date", sessionID)
		return report, nil
	}

	if err := s.profiles.SaveInventory(ctx, sessionID, *inv); err != nil {
		s.log.Errorf(err, "Unable to save migrated profile %s", sessionID)
		return report, fmt.Errorf("save inventory: %w", err)
	}

	s.log.Infof("Profile %s migrated: %d containers updated, %d items moved", sessionID, report.Rewritten, report.Relocated)
	return report, nil
}

// Migrate rewrites legacy container ids in inv and moves the children of the
// rewritten containers into the slot their template now expects. If any child
// cannot be placed the whole collection is restored and an
// *domain.UnresolvableSlotError is returned.
func (s *MigrationService) Migrate(ctx context.Context, inv *domain.Inventory) (MigrationReport, error) {
	report := MigrationReport{PassID: s.newPassID()}
	if inv.IsEmpty() {
		report.Skipped = true
		return report, nil
	}

	snapshot := TakeSnapshot(inv.Items)
	defer snapshot.Drop()

	containers := rewriteLegacyIDs(inv)
	report.Rewritten = len(containers)

	processed, relocated, err := s.relocateChildren(ctx, inv, containers, report.PassID)
	if err != nil {
		snapshot.Restore(inv)
		report.RolledBack = true
		return report, err
	}

	report.Containers = processed
	report.Relocated = relocated
	return report, nil
}

// rewriteLegacyIDs returns the indexes of the rewritten items.
func rewriteLegacyIDs(inv *domain.Inventory) []int {
	var rewritten []int
	for i := range inv.Items {
		if current, ok := domain.LegacyContainerID(inv.Items[i].TemplateID); ok {
			inv.Items[i].TemplateID = current
			rewritten = append(rewritten, i)
		}
	}
	return rewritten
}

// relocateChildren returns how many containers had children and how many
// children changed slot.
func (s *MigrationService) relocateChildren(ctx context.Context, inv *domain.Inventory, containers []int, passID string) (int, int, error) {
	log := s.log.With("pass", passID)
	templates := make(map[string]*domain.Template)
	processed, relocated := 0, 0

	for _, ci := range containers {
		container := inv.Items[ci]
		children := inv.Children(container.ID)
		if len(children) == 0 {
			continue
		}
		processed++

		tpl, cached := templates[container.TemplateID]
		if !cached {
			var err error
			tpl, err = s.templates.GetTemplate(ctx, container.TemplateID)
			if err != nil {
				return 0, 0, fmt.Errorf("get template %s: %w", container.TemplateID, err)
			}
			templates[container.TemplateID] = tpl
		}

		for _, idx := range children {
			child := &inv.Items[idx]
			if tpl == nil {
				return 0, 0, unresolvable(container, *child, domain.ErrMissingTemplate)
			}

			slot, ok := tpl.SlotForChild(child.TemplateID)
			if !ok {
				return 0, 0, unresolvable(container, *child, nil)
			}

			if slot.Name != child.SlotID {
				log.Debugf("Need to move %s to %s", child.SlotID, slot.Name)
				child.SlotID = slot.Name
				relocated++
			}
		}
	}
	return processed, relocated, nil
}

func unresolvable(container, child domain.Item, cause error) error {
	return &domain.UnresolvableSlotError{
		ContainerID:         container.ID,
		ContainerTemplateID: container.TemplateID,
		ItemID:              child.ID,
		TemplateID:          child.TemplateID,
		Cause:               cause,
	}
}
