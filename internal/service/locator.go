package service

import "strings"

// Sentinel buckets for entities without a block/area value. Locations with
// no block land in UNASSIGNED and are served by the global fallback pool;
// workers with no area land in GENERAL.
const (
	BlockUnassigned = "UNASSIGNED"
	AreaGeneral     = "GENERAL"
)

// NormalizeLocator canonicalizes a block/area identifier for matching:
// trimmed, uppercased, fallback when empty. The same function is applied on
// the location side and the worker side so the two groupings line up.
func NormalizeLocator(s, fallback string) string {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" {
		return fallback
	}
	return v
}
