package host

import "sync"

// LostOnDeath mirrors the host's lost-on-death equipment config: a slot set
// to true loses its item when the character dies.
type LostOnDeath struct {
	mu        sync.RWMutex
	equipment map[string]bool
}

func DefaultLostOnDeath() *LostOnDeath {
	return &LostOnDeath{equipment: map[string]bool{
		"ArmBand":             false,
		"Headwear":            true,
		"Earpiece":            true,
		"FaceCover":           true,
		"ArmorVest":           true,
		"Eyewear":             true,
		"TacticalVest":        true,
		"PocketItems":         true,
		"Backpack":            true,
		"Holster":             true,
		"FirstPrimaryWeapon":  true,
		"SecondPrimaryWeapon": true,
		"Scabbard":            false,
		"SecuredContainer":    false,
	}}
}

func (l *LostOnDeath) EquipmentLost(slot string) bool {
	if l == nil {
		return true
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	lost, ok := l.equipment[slot]
	if !ok {
		return true
	}
	return lost
}

func (l *LostOnDeath) SetEquipmentLost(slot string, lost bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.equipment == nil {
		l.equipment = make(map[string]bool)
	}
	l.equipment[slot] = lost
}
