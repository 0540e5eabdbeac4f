package matrix

import (
	"regexp"

	"github.com/joseph-ayodele/interlock-tracker/constants"
)

var (
	reAlarm1 = regexp.MustCompile(`\bal\s*1\b|\balarme?\s*1\b|\blocale\b`)
	reAlarm2 = regexp.MustCompile(`\bal\s*2\b|\balarme?\s*2\b|\bgenerale\b`)
)

// AlarmLevelOf returns the alarm level announced by a line, if any.
func AlarmLevelOf(line string) (constants.AlarmLevel, bool) {
	f := Fold(line)
	switch {
	case reAlarm1.MatchString(f):
		return constants.AlarmLevel1, true
	case reAlarm2.MatchString(f):
		return constants.AlarmLevel2, true
	}
	return 0, false
}
