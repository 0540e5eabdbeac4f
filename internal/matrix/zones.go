package matrix

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/interlock-tracker/constants"
)

// Zone matcher names, in the order they are tried.
const (
	ZoneMatcherName       = "location-ranges"
	ZoneNumberMatcherName = "zone-number"
	LoopNumberMatcherName = "loop-number"
)

const maxZoneLabel = 120

// A zone line is a label, a ':' or '|' separator, then only digits and range
// separators up to the end of the line.
var reZoneLine = regexp.MustCompile(`^\s*([^:|]+?)\s*[:|]\s*(\d[\d\s,;/\-–—]*)$`)

var (
	// Title block and footer labels that are followed by numbers but are never zones.
	reZoneStopLabel = regexp.MustCompile(`^(?:pages?|date|rev|revision|indice|ind|folio|echelle|tel|telephone|fax|version|affaire)(?:[\s.]|$)`)
	reDateShape     = regexp.MustCompile(`\b\d{1,2}\s*/\s*\d{1,2}\s*/\s*\d{2,4}\b`)

	reZoneNumber = regexp.MustCompile(`^(?:zone|z\.?)\s*(?:n[o°]\.?\s*)?[:\-]?\s*(\d{1,4}(?:[.\-]\d{1,3}){0,2})\b`)
	reLoopNumber = regexp.MustCompile(`^(?:boucle|loop)\s*(?:n[o°]\.?\s*)?[:\-]?\s*(\d{1,3})\b`)
)

// ZoneMatcher recognizes one way a matrix announces a zone.
type ZoneMatcher struct {
	Name  string
	match func(text string) (zoneLine, bool)
}

// Match reports whether text announces a zone of this kind.
func (m ZoneMatcher) Match(text string) bool {
	_, ok := m.match(text)
	return ok
}

var zoneMatchers = []ZoneMatcher{
	{Name: ZoneMatcherName, match: matchZoneLine},
	{Name: ZoneNumberMatcherName, match: matchZoneNumber},
	{Name: LoopNumberMatcherName, match: matchLoopNumber},
}

// ZoneMatchers returns the ordered zone matchers.
func ZoneMatchers() []ZoneMatcher {
	out := make([]ZoneMatcher, len(zoneMatchers))
	copy(out, zoneMatchers)
	return out
}

// matchZone tries every zone matcher in order.
func matchZone(text string) (zoneLine, bool) {
	for _, m := range zoneMatchers {
		if zl, ok := m.match(text); ok {
			return zl, true
		}
	}
	return zoneLine{}, false
}

var (
	reManual       = regexp.MustCompile(`\bdm\b|declencheurs? manuels?|\bmanuels?\b|bris de glace|\bbbg\b`)
	reFalseCeiling = regexp.MustCompile(`faux[- ]plafond|\bfp\b|plenum`)

	reAccess = regexp.MustCompile(`\bacces\s*(?:n[o°]\s*)?(\d{1,3})\b`)

	reRDC      = regexp.MustCompile(`rez[- ]de[- ]chaussee|\brdc\b`)
	reBasement = regexp.MustCompile(`sous[- ]sol|\bss\b`)
	reStorey   = regexp.MustCompile(`\b(\d{1,2})\s*(?:er|ere|e|eme)\s+etage\b`)
	reRPlus    = regexp.MustCompile(`\br\s*\+\s*(\d{1,2})\b`)
	reRoof     = regexp.MustCompile(`toiture|terrasse`)

	reBuildingWord = regexp.MustCompile(`\bbat(?:iment)?\.?\s*([a-z0-9]{1,4})\b`)
	reBuildingCode = regexp.MustCompile(`\bb(\d{1,3})\b`)
)

// zoneLine is a recognized zone announcement. Code is set when the text
// numbers the zone itself ("Zone 12", "Boucle 3").
type zoneLine struct {
	Label   string
	Ranges  string
	Code    string
	Matcher string
}

func matchZoneLine(line string) (zoneLine, bool) {
	m := reZoneLine.FindStringSubmatch(line)
	if m == nil {
		return zoneLine{}, false
	}
	label := strings.TrimSpace(m[1])
	if utf8.RuneCountInString(label) > maxZoneLabel || !strings.ContainsFunc(label, unicode.IsLetter) {
		return zoneLine{}, false
	}
	if reZoneStopLabel.MatchString(Fold(label)) || reDateShape.MatchString(m[2]) {
		return zoneLine{}, false
	}
	ranges := CanonicalRange(m[2])
	if ranges == "" {
		return zoneLine{}, false
	}
	zl := zoneLine{Label: label, Ranges: ranges, Matcher: ZoneMatcherName}
	if numbered, ok := matchZoneNumber(label); ok {
		zl.Code = numbered.Code
	}
	return zl, true
}

func matchZoneNumber(text string) (zoneLine, bool) {
	label := strings.Join(strings.Fields(text), " ")
	m := reZoneNumber.FindStringSubmatch(Fold(label))
	if m == nil || utf8.RuneCountInString(label) > maxZoneLabel {
		return zoneLine{}, false
	}
	code := "Z" + m[1]
	if isDigits(m[1]) {
		code = zoneCode(atoiOrZero(m[1]))
	}
	return zoneLine{Label: label, Code: code, Matcher: ZoneNumberMatcherName}, true
}

func matchLoopNumber(text string) (zoneLine, bool) {
	label := strings.Join(strings.Fields(text), " ")
	m := reLoopNumber.FindStringSubmatch(Fold(label))
	if m == nil || utf8.RuneCountInString(label) > maxZoneLabel {
		return zoneLine{}, false
	}
	return zoneLine{Label: label, Code: fmt.Sprintf("L%02d", atoiOrZero(m[1])), Matcher: LoopNumberMatcherName}, true
}

// DetectorKindOf classifies a zone label by its keywords.
func DetectorKindOf(label string) constants.DetectorKind {
	f := Fold(label)
	switch {
	case reManual.MatchString(f):
		return constants.DetectorManual
	case reFalseCeiling.MatchString(f):
		return constants.DetectorFalseCeiling
	default:
		return constants.DetectorSmoke
	}
}

// FloorHint returns RDC, SS, R+N or TOITURE when the text names a floor.
func FloorHint(text string) string {
	f := Fold(text)
	switch {
	case reRDC.MatchString(f):
		return "RDC"
	case reBasement.MatchString(f):
		return "SS"
	}
	if m := reStorey.FindStringSubmatch(f); m != nil {
		return "R+" + trimZeros(m[1])
	}
	if m := reRPlus.FindStringSubmatch(f); m != nil {
		return "R+" + trimZeros(m[1])
	}
	if reRoof.MatchString(f) {
		return "TOITURE"
	}
	return ""
}

// BuildingHint returns "B<id>" for "bâtiment X", "bât. X" or "BNN".
func BuildingHint(text string) string {
	f := Fold(text)
	if m := reBuildingWord.FindStringSubmatch(f); m != nil {
		id := strings.ToUpper(m[1])
		if strings.HasPrefix(id, "B") && isDigits(id[1:]) {
			return id
		}
		return "B" + id
	}
	if m := reBuildingCode.FindStringSubmatch(f); m != nil {
		return "B" + m[1]
	}
	return ""
}

// AccessPoint returns the access number from "accès N", or "".
func AccessPoint(label string) string {
	if m := reAccess.FindStringSubmatch(Fold(label)); m != nil {
		return trimZeros(m[1])
	}
	return ""
}

func trimZeros(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return strconv.Itoa(n)
}

func zoneCode(n int) string {
	return fmt.Sprintf("Z%02d", n)
}
