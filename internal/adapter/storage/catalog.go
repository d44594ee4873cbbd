package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/rl1809/pack-n-strap/internal/core/domain"
	"github.com/rl1809/pack-n-strap/internal/port"
)

// catalogItem is the host's item template record. Only the fields the mod
// needs are decoded.
type catalogItem struct {
	ID     string `json:"_id"`
	Name   string `json:"_name"`
	Parent string `json:"_parent"`
	Props  struct {
		Slots []struct {
			Name  string `json:"_name"`
			Props struct {
				Filters []struct {
					Filter []string `json:"Filter"`
				} `json:"filters"`
			} `json:"_props"`
		} `json:"Slots"`
	} `json:"_props"`
}

// LoadCatalog decodes an items database keyed by template id. A slot's
// filter is taken from its first filter group.
func LoadCatalog(r io.Reader) ([]domain.Template, error) {
	var raw map[string]catalogItem
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	templates := make([]domain.Template, 0, len(raw))
	for key, item := range raw {
		tpl := domain.Template{ID: item.ID, Name: item.Name, ParentID: item.Parent}
		if tpl.ID == "" {
			tpl.ID = key
		}
		for _, slot := range item.Props.Slots {
			s := domain.Slot{Name: slot.Name}
			if len(slot.Props.Filters) > 0 {
				s.Filter = append([]string(nil), slot.Props.Filters[0].Filter...)
			}
			tpl.Slots = append(tpl.Slots, s)
		}
		if err := tpl.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %s: %w", key, err)
		}
		templates = append(templates, tpl)
	}

	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })
	return templates, nil
}

// ImportCatalog saves every template into repo.
func ImportCatalog(ctx context.Context, repo port.TemplateRepository, templates []domain.Template) (int, error) {
	for i, tpl := range templates {
		if err := repo.SaveTemplate(ctx, tpl); err != nil {
			return i, fmt.Errorf("import %s: %w", tpl.ID, err)
		}
	}
	return len(templates), nil
}
