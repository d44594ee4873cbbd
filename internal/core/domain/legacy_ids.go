package domain

type legacyMapping struct {
	legacy  string
	current string
}

// Fixed for the lifetime of the process.
var legacyContainers = [...]legacyMapping{
	{"container_smallscavcase", "0c22fc270f59b28c064e1232"},
	{"container_toolpouch", "9543bbe8083934dc3b1b1330"},
	{"container_smalldocscase", "c29f11b2e63a089916739c96"},
	{"container_medpouch", "12403f74773f49be6a2d84b7"},
	{"container_ammopouch", "ae9e418fd5d4c4eec4a0e6ea"},
	{"container_magpouch", "440de5d056825485a0cf3a19"},
	{"container_lunchbox", "6925918065a41e6b1e02a7d7"},
	{"container_keyring", "2eabd4da4ab194eb168e72d3"},
}

// LegacyContainerID maps a legacy symbolic container id to its current id.
func LegacyContainerID(templateID string) (string, bool) {
	for _, m := range legacyContainers {
		if m.legacy == templateID {
			return m.current, true
		}
	}
	return "", false
}

func IsCurrentContainerID(templateID string) bool {
	for _, m := range legacyContainers {
		if m.current == templateID {
			return true
		}
	}
	return false
}

// CurrentContainerIDs returns the current container ids in table order.
func CurrentContainerIDs() []string {
	ids := make([]string, len(legacyContainers))
	for i, m := range legacyContainers {
		ids[i] = m.current
	}
	return ids
}

func LegacyContainerKeys() []string {
	keys := make([]string, len(legacyContainers))
	for i, m := range legacyContainers {
		keys[i] = m.legacy
	}
	return keys
}
