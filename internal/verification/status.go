package verification

import (
	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
)

// CalculateZoneCheckStatus derives a zone check's status from its results.
//
//	empty or all pending           -> pending
//	some pending                   -> in_progress
//	no nok, every non-na is ok     -> passed
//	no ok among non-na results     -> failed
//	otherwise                      -> partial
func CalculateZoneCheckStatus(results []constants.ResultValue) constants.CheckStatus {
	var c entity.ResultCounts
	for _, r := range results {
		c.Add(r, 1)
	}
	return statusFromCounts(c, len(results))
}

func statusFromCounts(c entity.ResultCounts, total int) constants.CheckStatus {
	switch {
	case total == 0 || c.Pending == total:
		return constants.CheckPending
	case c.Pending > 0:
		return constants.CheckInProgress
	case c.NOK == 0 && c.OK == total-c.NA:
		return constants.CheckPassed
	case c.OK == 0:
		return constants.CheckFailed
	default:
		return constants.CheckPartial
	}
}

// StatusOf is CalculateZoneCheckStatus over stored results.
func StatusOf(results []entity.EquipmentResult) constants.CheckStatus {
	values := make([]constants.ResultValue, len(results))
	for i, r := range results {
		values[i] = r.Result
	}
	return CalculateZoneCheckStatus(values)
}

func countByLevel(results []entity.EquipmentResult) entity.LevelCounts {
	out := entity.LevelCounts{}
	for _, r := range results {
		c := out[r.AlarmLevel]
		c.Add(r.Result, 1)
		out[r.AlarmLevel] = c
	}
	return out
}
