package service

import (
	"context"
	"fmt"

	"github.com/rl1809/pack-n-strap/internal/core/domain"
	"github.com/rl1809/pack-n-strap/internal/logger"
	"github.com/rl1809/pack-n-strap/internal/port"
)

// AppendToFirstSlot adds every id missing from the template's first slot
// filter, keeping order. It reports whether the template changed.
func AppendToFirstSlot(tpl *domain.Template, ids []string) bool {
	if tpl == nil || len(tpl.Slots) == 0 {
		return false
	}
	slot := &tpl.Slots[0]
	changed := false
	for _, id := range ids {
		if slot.Accepts(id) {
			continue
		}
		slot.Filter = append(slot.Filter, id)
		changed = true
	}
	return changed
}

// AddCasesToSecureContainers lets every secure container accept the current
// container templates. It returns how many templates were updated.
func AddCasesToSecureContainers(ctx context.Context, templates port.TemplateRepository, log *logger.Logger) (int, error) {
	if log == nil {
		log = logger.Nop()
	}

	secure, err := templates.ListByParent(ctx, domain.SecureContainerParentID)
	if err != nil {
		return 0, fmt.Errorf("list secure containers: %w", err)
	}

	ids := domain.CurrentContainerIDs()
	updated := 0
	for i := range secure {
		tpl := secure[i]
		if !AppendToFirstSlot(&tpl, ids) {
			continue
		}
		if err := templates.SaveTemplate(ctx, tpl); err != nil {
			return updated, fmt.Errorf("save template %s: %w", tpl.ID, err)
		}
		log.Debugf("Added cases to secure container %s (%s)", tpl.ID, tpl.Name)
		updated++
	}
	return updated, nil
}
