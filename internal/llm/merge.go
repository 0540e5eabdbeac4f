package llm

import (
	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/matrix"
)

// MergeProposals combines two chunk proposals. Items are keyed by canonical
// code; a field already set is kept and empty fields are filled from b.
// The result does not depend on which chunk finished first, except for
// conflicting non-empty fields where a wins.
func MergeProposals(a, b MatrixProposal) MatrixProposal {
	out := MatrixProposal{
		Zones:     append([]ProposedZone(nil), a.Zones...),
		Equipment: append([]ProposedEquipment(nil), a.Equipment...),
		Links:     append([]ProposedLink(nil), a.Links...),
	}

	zones := make(map[string]int, len(out.Zones))
	for i, z := range out.Zones {
		zones[matrix.CanonicalCode(z.Code)] = i
	}
	for _, z := range b.Zones {
		key := matrix.CanonicalCode(z.Code)
		i, ok := zones[key]
		if !ok {
			zones[key] = len(out.Zones)
			out.Zones = append(out.Zones, z)
			continue
		}
		cur := &out.Zones[i]
		fill(&cur.Name, z.Name)
		fill(&cur.DetectorRange, z.DetectorRange)
		fill(&cur.Building, z.Building)
		fill(&cur.Floor, z.Floor)
		fill(&cur.AccessPoint, z.AccessPoint)
		cur.IsManual = cur.IsManual || z.IsManual
	}

	equipment := make(map[string]int, len(out.Equipment))
	for i, e := range out.Equipment {
		equipment[matrix.CanonicalCode(e.Code)] = i
	}
	for _, e := range b.Equipment {
		key := matrix.CanonicalCode(e.Code)
		i, ok := equipment[key]
		if !ok {
			equipment[key] = len(out.Equipment)
			out.Equipment = append(out.Equipment, e)
			continue
		}
		cur := &out.Equipment[i]
		fill(&cur.Name, e.Name)
		fill(&cur.Type, e.Type)
		fill(&cur.Location, e.Location)
	}

	links := make(map[matrix.LinkKey]struct{}, len(out.Links))
	for _, l := range out.Links {
		links[linkKey(l)] = struct{}{}
	}
	for _, l := range b.Links {
		k := linkKey(l)
		if _, dup := links[k]; dup {
			continue
		}
		links[k] = struct{}{}
		out.Links = append(out.Links, l)
	}
	return out
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func linkLevel(l ProposedLink) constants.AlarmLevel {
	lvl := constants.AlarmLevel(l.AlarmLevel)
	if !lvl.Valid() {
		return constants.AlarmLevel1
	}
	return lvl
}

func linkKey(l ProposedLink) matrix.LinkKey {
	return matrix.LinkKey{
		Zone:      matrix.CanonicalCode(l.ZoneCode),
		Equipment: matrix.CanonicalCode(l.EquipmentCode),
		Level:     linkLevel(l),
	}
}

// ToCandidates converts a model proposal into parser candidates.
func ToCandidates(p MatrixProposal) matrix.Candidates {
	var c matrix.Candidates
	for _, z := range p.Zones {
		kind := matrix.DetectorKindOf(z.Name)
		if z.IsManual {
			kind = constants.DetectorManual
		}
		c.Zones = append(c.Zones, matrix.ZoneCandidate{
			Code:          z.Code,
			Name:          z.Name,
			Building:      z.Building,
			Floor:         z.Floor,
			AccessPoint:   z.AccessPoint,
			DetectorRange: matrix.CanonicalRange(z.DetectorRange),
			Kind:          kind,
		})
	}
	for _, e := range p.Equipment {
		t, ok := constants.CanonicalizeEquipmentType(e.Type)
		if !ok {
			if m, matched := matrix.MatchEquipment(e.Name); matched {
				t = m.Type
			}
		}
		c.Equipment = append(c.Equipment, matrix.EquipmentCandidate{
			Code:     e.Code,
			Name:     e.Name,
			Type:     t,
			Location: e.Location,
			Matcher:  "enrichment",
		})
	}
	for _, l := range p.Links {
		c.Links = append(c.Links, matrix.LinkCandidate{
			ZoneCode:      l.ZoneCode,
			EquipmentCode: l.EquipmentCode,
			AlarmLevel:    linkLevel(l),
			Action:        constants.ActionActivate,
		})
	}
	return c
}
