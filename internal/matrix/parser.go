package matrix

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/textextract"
)

type zoneKey struct {
	label  string
	ranges string
}

type equipmentKey struct {
	typ  constants.EquipmentType
	name string
}

// parseState walks lines in document order. Equipment seen after a zone and
// before the next one is linked to it at the current alarm level.
type parseState struct {
	out Candidates

	zonesByKey     map[zoneKey]int
	zoneCodes      map[string]int
	equipmentByKey map[equipmentKey]int
	equipmentCodes map[string]int // every code handed out, canonical
	embedded       map[string]int // codes read from the document -> equipment index
	synthesized    map[string]int // PREFIX-NNN codes made up by the parser -> equipment index
	perType        map[constants.EquipmentType]int
	links          map[LinkKey]struct{}

	current int // index into out.Zones, -1 before the first zone
	level   constants.AlarmLevel
}

func newParseState() *parseState {
	return &parseState{
		zonesByKey:     make(map[zoneKey]int),
		zoneCodes:      make(map[string]int),
		equipmentByKey: make(map[equipmentKey]int),
		equipmentCodes: make(map[string]int),
		embedded:       make(map[string]int),
		synthesized:    make(map[string]int),
		perType:        make(map[constants.EquipmentType]int),
		links:          make(map[LinkKey]struct{}),
		current:        -1,
		level:          constants.AlarmLevel1,
	}
}

// Parse proposes zones, equipment and adjacency links from extracted pages.
// It never fails: unrecognized lines are ignored.
func Parse(pages []textextract.Page) Candidates {
	st := newParseState()
	for _, p := range pages {
		for _, line := range strings.Split(p.Text, "\n") {
			st.line(p.Number, line)
		}
	}
	return st.out
}

// ParseWithLogger is Parse plus a summary log line.
func ParseWithLogger(logger *slog.Logger, pages []textextract.Page) Candidates {
	if logger == nil {
		logger = slog.Default()
	}
	c := Parse(pages)
	logger.Info("matrix.parse.ok",
		"pages", len(pages),
		"zones", len(c.Zones),
		"equipment", len(c.Equipment),
		"links", len(c.Links),
	)
	return c
}

func (st *parseState) line(page int, raw string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}
	if strings.Contains(line, "|") {
		st.row(page, splitCells(line))
		return
	}
	if zl, ok := matchZone(line); ok {
		st.zone(page, zl)
		return
	}
	st.effects(page, line)
}

// maxLabelCells bounds how many leading cells of a row may form a zone label.
const maxLabelCells = 2

// row handles a table row: a zone in the leading cells, effects in the rest.
func (st *parseState) row(page int, cells []string) {
	rest := cells
	if zl, n, ok := matchZoneCells(cells); ok {
		st.zone(page, zl)
		rest = cells[n:]
	}
	for _, c := range rest {
		st.effects(page, c)
	}
}

// matchZoneCells looks for "<label cells> | <ranges>" or a numbered zone in
// the first cell. n is the number of cells consumed.
func matchZoneCells(cells []string) (zl zoneLine, n int, ok bool) {
	for i := 1; i < len(cells) && i <= maxLabelCells; i++ {
		if zl, ok := matchZoneLine(strings.Join(cells[:i], " ") + ": " + cells[i]); ok {
			return zl, i + 1, true
		}
	}
	if len(cells) > 0 {
		if zl, ok := matchZone(cells[0]); ok {
			return zl, 1, true
		}
	}
	return zoneLine{}, 0, false
}

func splitCells(line string) []string {
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		if c := strings.TrimSpace(p); c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

// effects applies an alarm level marker and links any equipment named in text.
func (st *parseState) effects(page int, text string) {
	if lvl, ok := AlarmLevelOf(text); ok {
		st.level = lvl
	}
	m, ok := MatchEquipment(text)
	if !ok {
		return
	}
	idx := st.equipment(page, m, text)
	if st.current >= 0 {
		st.link(st.out.Zones[st.current].Code, st.out.Equipment[idx].Code)
	}
}

func (st *parseState) zone(page int, zl zoneLine) {
	st.level = constants.AlarmLevel1
	key := zoneKey{label: Fold(zl.Label), ranges: zl.Ranges}
	if zl.Ranges == "" {
		key = zoneKey{label: zl.Matcher, ranges: CanonicalCode(zl.Code)}
	}
	if idx, ok := st.zonesByKey[key]; ok {
		st.current = idx
		return
	}

	access := AccessPoint(zl.Label)
	var code string
	switch {
	case access != "":
		code = zoneCode(atoiOrZero(access))
	case zl.Code != "":
		code = zl.Code
	default:
		code = zoneCode(len(st.out.Zones) + 1)
	}
	code = uniqueCode(st.zoneCodes, code)

	st.out.Zones = append(st.out.Zones, ZoneCandidate{
		Code:          code,
		Name:          zl.Label,
		Building:      BuildingHint(zl.Label),
		Floor:         FloorHint(zl.Label),
		AccessPoint:   access,
		DetectorRange: zl.Ranges,
		Kind:          DetectorKindOf(zl.Label),
		Matcher:       zl.Matcher,
		Page:          page,
	})
	st.current = len(st.out.Zones) - 1
	st.zonesByKey[key] = st.current
}

// equipment returns the index of the device named by line, adding it when new.
// Codes read from the document always win: a made-up code that happens to
// equal a real one is renumbered.
func (st *parseState) equipment(page int, m Matcher, line string) int {
	name := CleanEquipmentName(line)
	key := equipmentKey{typ: m.Type, name: nameKey(name)}
	if idx, ok := st.equipmentByKey[key]; ok {
		return idx
	}

	code := EmbeddedCode(name)
	fromDocument := code != ""
	if fromDocument {
		ck := CanonicalCode(code)
		// Same embedded code on another line is the same device.
		if idx, ok := st.embedded[ck]; ok {
			st.equipmentByKey[key] = idx
			return idx
		}
		if idx, ok := st.synthesized[ck]; ok {
			st.renumber(idx)
		}
		st.equipmentCodes[ck] = len(st.equipmentCodes)
	} else {
		st.perType[m.Type]++
		code = uniqueCode(st.equipmentCodes, fallbackEquipmentCode(m.Type, st.perType[m.Type]))
	}

	st.out.Equipment = append(st.out.Equipment, EquipmentCandidate{
		Code:     code,
		Name:     name,
		Type:     m.Type,
		Location: locationHint(name),
		Matcher:  m.Name,
		Page:     page,
	})
	idx := len(st.out.Equipment) - 1
	st.equipmentByKey[key] = idx
	if fromDocument {
		st.embedded[CanonicalCode(code)] = idx
	} else {
		st.synthesized[CanonicalCode(code)] = idx
	}
	return idx
}

// renumber moves a made-up equipment code out of the way and rewrites the
// links that already point at it.
func (st *parseState) renumber(idx int) {
	old := st.out.Equipment[idx].Code
	next := uniqueCode(st.equipmentCodes, old)
	delete(st.synthesized, CanonicalCode(old))
	st.synthesized[CanonicalCode(next)] = idx
	st.out.Equipment[idx].Code = next

	oldKey := CanonicalCode(old)
	st.links = make(map[LinkKey]struct{}, len(st.out.Links))
	for i, l := range st.out.Links {
		if CanonicalCode(l.EquipmentCode) == oldKey {
			st.out.Links[i].EquipmentCode = next
		}
		st.links[st.out.Links[i].Key()] = struct{}{}
	}
}

func (st *parseState) link(zone, equipment string) {
	l := LinkCandidate{
		ZoneCode:      zone,
		EquipmentCode: equipment,
		AlarmLevel:    st.level,
		Action:        constants.ActionActivate,
	}
	if _, dup := st.links[l.Key()]; dup {
		return
	}
	st.links[l.Key()] = struct{}{}
	st.out.Links = append(st.out.Links, l)
}

// uniqueCode suffixes -2, -3... when code is already taken and reserves the result.
// used maps canonical codes to any value; only presence matters.
func uniqueCode(used map[string]int, code string) string {
	candidate := code
	for n := 2; ; n++ {
		if _, taken := used[CanonicalCode(candidate)]; !taken {
			used[CanonicalCode(candidate)] = len(used)
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", code, n)
	}
}

func locationHint(name string) string {
	parts := make([]string, 0, 2)
	if b := BuildingHint(name); b != "" {
		parts = append(parts, b)
	}
	if f := FloorHint(name); f != "" {
		parts = append(parts, f)
	}
	return strings.Join(parts, " ")
}

func atoiOrZero(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
