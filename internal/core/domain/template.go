package domain

import (
	"errors"
	"fmt"
)

// SecureContainerParentID is the template parent type shared by every secure
// container template.
const SecureContainerParentID = "5448bf274bdc2dfc2f8b456a"

var ErrDuplicateSlot = errors.New("duplicate slot name")

type Slot struct {
	Name   string   `json:"name"`
	Filter []string `json:"filter"`
}

// FirstFilter returns the first accepted template id of the slot.
func (s Slot) FirstFilter() (string, bool) {
	if len(s.Filter) == 0 {
		return "", false
	}
	return s.Filter[0], true
}

func (s Slot) Accepts(templateID string) bool {
	for _, id := range s.Filter {
		if id == templateID {
			return true
		}
	}
	return false
}

type Template struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
	Slots    []Slot `json:"slots"`
}

// SlotForChild returns the first slot whose first filter entry equals
// templateID. Later filter entries are not consulted.
func (t *Template) SlotForChild(templateID string) (Slot, bool) {
	if t == nil {
		return Slot{}, false
	}
	for _, slot := range t.Slots {
		if first, ok := slot.FirstFilter(); ok && first == templateID {
			return slot, true
		}
	}
	return Slot{}, false
}

func (t Template) Validate() error {
	if t.ID == "" {
		return errors.New("template id is required")
	}
	seen := make(map[string]struct{}, len(t.Slots))
	for _, slot := range t.Slots {
		if _, ok := seen[slot.Name]; ok {
			return fmt.Errorf("template %s: %w: %q", t.ID, ErrDuplicateSlot, slot.Name)
		}
		seen[slot.Name] = struct{}{}
	}
	return nil
}

func (t Template) Clone() Template {
	cloned := t
	if t.Slots != nil {
		cloned.Slots = make([]Slot, len(t.Slots))
		for i, slot := range t.Slots {
			cloned.Slots[i] = Slot{Name: slot.Name, Filter: append([]string(nil), slot.Filter...)}
		}
	}
	return cloned
}
