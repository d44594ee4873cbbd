package domain

import (
	"encoding/json"
	"time"
)

const (
	SlotArmBand          = "ArmBand"
	SlotSecuredContainer = "SecuredContainer"
	SlotScabbard         = "Scabbard"
)

type ItemLocation struct {
	X          int  `json:"x"`
	Y          int  `json:"y"`
	R          int  `json:"r"`
	IsSearched bool `json:"isSearched,omitempty"`
}

type Item struct {
	ID         string          `json:"_id"`
	TemplateID string          `json:"_tpl"`
	ParentID   string          `json:"parentId,omitempty"`
	SlotID     string          `json:"slotId,omitempty"`
	Location   *ItemLocation   `json:"location,omitempty"`
	Upd        json.RawMessage `json:"upd,omitempty"` // host-owned, never interpreted
}

type Inventory struct {
	Items     []Item    `json:"items"`
	Equipment string    `json:"equipment"`
	Revision  int64     `json:"revision"` // optimistic locking
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the item.
func (i Item) Clone() Item {
	cloned := i
	if i.Location != nil {
		loc := *i.Location
		cloned.Location = &loc
	}
	if i.Upd != nil {
		cloned.Upd = append(json.RawMessage(nil), i.Upd...)
	}
	return cloned
}

// CloneItems returns a deep copy of the provided item slice.
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	cloned := make([]Item, len(items))
	for i := range items {
		cloned[i] = items[i].Clone()
	}
	return cloned
}

func (inv *Inventory) IsEmpty() bool {
	return inv == nil || len(inv.Items) == 0
}

func (inv *Inventory) Find(id string) (*Item, bool) {
	if inv == nil || id == "" {
		return nil, false
	}
	for i := range inv.Items {
		if inv.Items[i].ID == id {
			return &inv.Items[i], true
		}
	}
	return nil, false
}

// Children returns the indexes of the direct children of parentID, in
// collection order.
func (inv *Inventory) Children(parentID string) []int {
	if inv == nil || parentID == "" {
		return nil
	}
	var idx []int
	for i := range inv.Items {
		if inv.Items[i].ParentID == parentID {
			idx = append(idx, i)
		}
	}
	return idx
}

// EquippedIn returns the item attached to the equipment root in slot.
func (inv *Inventory) EquippedIn(slot string) (*Item, bool) {
	if inv == nil || inv.Equipment == "" {
		return nil, false
	}
	for i := range inv.Items {
		if inv.Items[i].ParentID == inv.Equipment && inv.Items[i].SlotID == slot {
			return &inv.Items[i], true
		}
	}
	return nil, false
}

// IsDescendantOf reports whether the item with id sits somewhere below
// ancestorID. Cycles in corrupt data terminate the walk.
func (inv *Inventory) IsDescendantOf(id, ancestorID string) bool {
	if inv == nil || ancestorID == "" {
		return false
	}
	seen := make(map[string]struct{})
	current, ok := inv.Find(id)
	for ok && current.ParentID != "" {
		if current.ParentID == ancestorID {
			return true
		}
		if _, loop := seen[current.ParentID]; loop {
			return false
		}
		seen[current.ParentID] = struct{}{}
		current, ok = inv.Find(current.ParentID)
	}
	return false
}
