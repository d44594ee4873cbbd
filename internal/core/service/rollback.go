package service

import "github.com/rl1809/pack-n-strap/internal/core/domain"

// Snapshot is an independent copy of an item collection taken before a
// migration pass mutates it. It is single-use: Restore or Drop releases it.
type Snapshot struct {
	items []domain.Item
	live  bool
}

func TakeSnapshot(items []domain.Item) *Snapshot {
	return &Snapshot{items: domain.CloneItems(items), live: true}
}

// Restore replaces inv.Items wholesale with the snapshot contents and drops
// the snapshot. It reports false if the snapshot was already released.
func (s *Snapshot) Restore(inv *domain.Inventory) bool {
	if s == nil || !s.live || inv == nil {
		return false
	}
	inv.Items = s.items
	s.Drop()
	return true
}

func (s *Snapshot) Drop() {
	if s == nil {
		return
	}
	s.items = nil
	s.live = false
}

func (s *Snapshot) Live() bool {
	return s != nil && s.live
}
