package battlecontroller

import "github.com/icza/wowsreplay/schema"

// tableRibbonNames is the constant table name the controller looks up
// ribbon ids in. spec.md §4.6 references "ribbon_names[ribbonId]" but
// §4.3's required-table list omits it; this name is this module's
// resolution of that gap (documented in DESIGN.md).
const tableRibbonNames = "RIBBON_NAMES"

// tableDamageStatsTypes resolves receiveDamageStat's numeric stat slot
// to its name; also absent from §4.3's required-table list.
const tableDamageStatsTypes = "DAMAGE_STATS_TYPES"

// lookupByIndex resolves idx against a constants table that may be
// shaped as an ordered []string (index = position) or a map[string]any
// keyed by the stringified index (both are plausible SchemaProvider
// encodings; the interface doesn't mandate one). Falls back to the
// stringified index itself if the table is absent or doesn't cover idx.
func (c *Controller) lookupByIndex(table string, idx int) string {
	if c.schema == nil || c.schema.Constants == nil {
		return itoaFast(idx)
	}
	v, ok := c.schema.Constants.Table(table)
	if !ok {
		return itoaFast(idx)
	}
	switch t := v.(type) {
	case []string:
		if idx >= 0 && idx < len(t) {
			return t[idx]
		}
	case map[string]any:
		if s, ok := asString(t[itoaFast(idx)]); ok {
			return s
		}
	case map[string]string:
		if s, ok := t[itoaFast(idx)]; ok {
			return s
		}
	}
	return itoaFast(idx)
}

func (c *Controller) ribbonName(ribbonID int) string {
	return c.lookupByIndex(tableRibbonNames, ribbonID)
}

// deathReasonIconAndName resolves typeDeath against DEATH_REASONS, which is
// shaped as index -> {"icon": ..., "name": ...} rather than index -> string.
func (c *Controller) deathReasonIconAndName(typeDeath int) (icon, name string) {
	if c.schema == nil || c.schema.Constants == nil {
		return "", ""
	}
	v, ok := c.schema.Constants.Table(schema.TableDeathReasons)
	if !ok {
		return "", ""
	}
	var entry any
	switch t := v.(type) {
	case []any:
		if typeDeath >= 0 && typeDeath < len(t) {
			entry = t[typeDeath]
		}
	case map[string]any:
		entry = t[itoaFast(typeDeath)]
	}
	m, ok := asMap(entry)
	if !ok {
		return "", ""
	}
	icon, _ = asString(m["icon"])
	name, _ = asString(m["name"])
	return icon, name
}
