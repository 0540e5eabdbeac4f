package resolve

import (
	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/matrix"
)

// Reconcile merges heuristic and enriched candidates keyed by canonical code.
//
// When both sides propose the same code, every non-empty enriched field wins
// and the heuristic fills the remaining gaps. A smoke detector kind or an
// "other" equipment type counts as empty, since both are fallbacks. Codes seen
// on one side only are kept as-is. Links are unioned and deduplicated by
// (zone, equipment, level); endpoint resolution happens on persist.
func Reconcile(heuristic, enriched matrix.Candidates) matrix.Candidates {
	var out matrix.Candidates

	zones := make(map[string]int)
	for _, z := range heuristic.Zones {
		key := matrix.CanonicalCode(z.Code)
		if _, dup := zones[key]; dup || key == "" {
			continue
		}
		zones[key] = len(out.Zones)
		out.Zones = append(out.Zones, z)
	}
	for _, z := range enriched.Zones {
		key := matrix.CanonicalCode(z.Code)
		if key == "" {
			continue
		}
		i, ok := zones[key]
		if !ok {
			zones[key] = len(out.Zones)
			out.Zones = append(out.Zones, z)
			continue
		}
		cur := &out.Zones[i]
		prefer(&cur.Name, z.Name)
		prefer(&cur.Building, z.Building)
		prefer(&cur.Floor, z.Floor)
		prefer(&cur.AccessPoint, z.AccessPoint)
		prefer(&cur.DetectorRange, z.DetectorRange)
		if z.Kind != "" && z.Kind != constants.DetectorSmoke {
			cur.Kind = z.Kind
		}
	}

	equipment := make(map[string]int)
	for _, e := range heuristic.Equipment {
		key := matrix.CanonicalCode(e.Code)
		if _, dup := equipment[key]; dup || key == "" {
			continue
		}
		equipment[key] = len(out.Equipment)
		out.Equipment = append(out.Equipment, e)
	}
	for _, e := range enriched.Equipment {
		key := matrix.CanonicalCode(e.Code)
		if key == "" {
			continue
		}
		i, ok := equipment[key]
		if !ok {
			equipment[key] = len(out.Equipment)
			out.Equipment = append(out.Equipment, e)
			continue
		}
		cur := &out.Equipment[i]
		prefer(&cur.Name, e.Name)
		prefer(&cur.Location, e.Location)
		if e.Type != "" && e.Type != constants.EquipmentOther {
			cur.Type = e.Type
		}
	}

	seen := make(map[matrix.LinkKey]struct{})
	for _, src := range [][]matrix.LinkCandidate{heuristic.Links, enriched.Links} {
		for _, l := range src {
			k := l.Key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out.Links = append(out.Links, l)
		}
	}
	return out
}

func prefer(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
