package matrix

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/interlock-tracker/constants"
)

// Matcher recognizes one equipment family on a folded line.
type Matcher struct {
	Name string
	Type constants.EquipmentType
	re   *regexp.Regexp
}

// Match reports whether the line names equipment of this family.
func (m Matcher) Match(line string) bool {
	return m.re.MatchString(Fold(line))
}

// Order matters: the first matching family wins.
var matchers = []Matcher{
	{Name: "fire-door", Type: constants.EquipmentFireDoor,
		re: regexp.MustCompile(`\bpcf\b|portes? coupe[- ]feu|fire doors?`)},
	{Name: "interlocked-door", Type: constants.EquipmentInterlockedDoor,
		re: regexp.MustCompile(`portes? (?:asservies?|automatiques?|a fermeture)|ventouses?|electro[- ]?aimants?|interlocked doors?`)},
	{Name: "rollup-curtain", Type: constants.EquipmentRollupCurtain,
		re: regexp.MustCompile(`rideaux?|roll[- ]?up|volets? coupe[- ]feu`)},
	{Name: "damper", Type: constants.EquipmentDamper,
		re: regexp.MustCompile(`clapets?|dampers?`)},
	{Name: "smoke-extraction", Type: constants.EquipmentSmokeExtraction,
		re: regexp.MustCompile(`desenfumage|extraction (?:de )?fumees?|smoke extract|\bdsf\b`)},
	{Name: "hvac", Type: constants.EquipmentHVAC,
		re: regexp.MustCompile(`\bcta\b|\bcvc\b|\bvmc\b|ventilation|climatisation|extracteurs?|\bhvac\b|air handling|\bahu\b`)},
	{Name: "elevator", Type: constants.EquipmentElevator,
		re: regexp.MustCompile(`ascenseurs?|monte[- ]charges?|elevators?|\blifts?\b`)},
	{Name: "evacuation", Type: constants.EquipmentEvacuation,
		re: regexp.MustCompile(`evacuation|diffuseurs? sonores?|\bue\b`)},
	{Name: "alarm", Type: constants.EquipmentAlarm,
		re: regexp.MustCompile(`sirenes?|\bsir\b|avertisseurs?|flash(?:es)? lumineux|klaxons?|\bhorns?\b`)},
	{Name: "access-control", Type: constants.EquipmentAccessControl,
		re: regexp.MustCompile(`controle d'?acces|access control|lecteurs? de badges?|badgeuses?`)},
}

// Matchers returns the ordered equipment matchers.
func Matchers() []Matcher {
	out := make([]Matcher, len(matchers))
	copy(out, matchers)
	return out
}

// MatchEquipment returns the first matcher accepting line.
func MatchEquipment(line string) (Matcher, bool) {
	f := Fold(line)
	for _, m := range matchers {
		if m.re.MatchString(f) {
			return m, true
		}
	}
	return Matcher{}, false
}

var (
	reBracketSuffix = regexp.MustCompile(`\s*[\(\[]\s*\d+\s*[\)\]]\s*$`)

	// Code-like tokens, most specific first: B24.006, 20.9.09, CTA-03.
	reCodeTokens = []*regexp.Regexp{
		regexp.MustCompile(`\b[A-Z]{1,5}\d{1,4}(?:[./-]\d{1,4})+\b`),
		regexp.MustCompile(`\b\d{1,3}(?:\.\d{1,3}){2,}\b`),
		regexp.MustCompile(`\b[A-Z]{2,5}-\d{1,4}[A-Z]?\b`),
	}
)

// CleanEquipmentName trims a line and strips a bracketed numeric suffix
// such as "(12)" or "[3]".
func CleanEquipmentName(line string) string {
	s := strings.Join(strings.Fields(line), " ")
	return strings.TrimSpace(reBracketSuffix.ReplaceAllString(s, ""))
}

// EmbeddedCode returns the first code-like token of name, or "".
func EmbeddedCode(name string) string {
	upper := strings.ToUpper(stripAccents(name))
	for _, re := range reCodeTokens {
		if tok := re.FindString(upper); tok != "" {
			return tok
		}
	}
	return ""
}

func fallbackEquipmentCode(t constants.EquipmentType, index int) string {
	return fmt.Sprintf("%s-%03d", t.Prefix(), index)
}
