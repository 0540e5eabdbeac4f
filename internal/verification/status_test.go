package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/interlock-tracker/constants"
)

func TestCalculateZoneCheckStatus(t *testing.T) {
	const (
		P  = constants.ResultPending
		OK = constants.ResultOK
		NK = constants.ResultNOK
		NA = constants.ResultNA
	)
	tests := []struct {
		name    string
		results []constants.ResultValue
		want    constants.CheckStatus
	}{
		{"empty", nil, constants.CheckPending},
		{"all pending", []constants.ResultValue{P, P}, constants.CheckPending},
		{"pending and ok", []constants.ResultValue{P, OK}, constants.CheckInProgress},
		{"pending and nok", []constants.ResultValue{NK, P, NA}, constants.CheckInProgress},
		{"ok and na", []constants.ResultValue{OK, NA}, constants.CheckPassed},
		{"all ok", []constants.ResultValue{OK, OK, OK}, constants.CheckPassed},
		{"all na", []constants.ResultValue{NA, NA}, constants.CheckPassed},
		{"ok and nok", []constants.ResultValue{OK, NK}, constants.CheckPartial},
		{"nok nok", []constants.ResultValue{NK, NK}, constants.CheckFailed},
		{"nok and na", []constants.ResultValue{NK, NA}, constants.CheckFailed},
		{"mixed with na", []constants.ResultValue{OK, NK, NA}, constants.CheckPartial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateZoneCheckStatus(tt.results))
		})
	}
}

// Every combination of up to three of each value maps to exactly one status
// and agrees with the ordered rules.
func TestCalculateZoneCheckStatus_Total(t *testing.T) {
	for p := 0; p <= 3; p++ {
		for ok := 0; ok <= 3; ok++ {
			for nok := 0; nok <= 3; nok++ {
				for na := 0; na <= 3; na++ {
					var rs []constants.ResultValue
					for i := 0; i < p; i++ {
						rs = append(rs, constants.ResultPending)
					}
					for i := 0; i < ok; i++ {
						rs = append(rs, constants.ResultOK)
					}
					for i := 0; i < nok; i++ {
						rs = append(rs, constants.ResultNOK)
					}
					for i := 0; i < na; i++ {
						rs = append(rs, constants.ResultNA)
					}
					total := len(rs)

					var want constants.CheckStatus
					switch {
					case total == p:
						want = constants.CheckPending
					case p > 0:
						want = constants.CheckInProgress
					case nok == 0 && ok == total-na:
						want = constants.CheckPassed
					case ok == 0:
						want = constants.CheckFailed
					default:
						want = constants.CheckPartial
					}
					assert.Equal(t, want, CalculateZoneCheckStatus(rs), "p=%d ok=%d nok=%d na=%d", p, ok, nok, na)
				}
			}
		}
	}
}
