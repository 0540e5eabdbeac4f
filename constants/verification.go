package constants

// DetectorKind classifies how a zone is stimulated.
type DetectorKind string

const (
	DetectorSmoke        DetectorKind = "smoke"
	DetectorManual       DetectorKind = "manual"
	DetectorFalseCeiling DetectorKind = "false-ceiling"
)

// AlarmLevel: 1 = local/first alarm, 2 = general/second alarm.
type AlarmLevel int

const (
	AlarmLevel1 AlarmLevel = 1
	AlarmLevel2 AlarmLevel = 2
)

func (l AlarmLevel) Valid() bool { return l == AlarmLevel1 || l == AlarmLevel2 }

// ActionType is the expected effect on the equipment.
type ActionType string

const (
	ActionActivate   ActionType = "activate"
	ActionDeactivate ActionType = "deactivate"
	ActionClose      ActionType = "close"
	ActionOpen       ActionType = "open"
	ActionStop       ActionType = "stop"
)

func ParseActionType(s string) (ActionType, bool) {
	switch ActionType(s) {
	case ActionActivate, ActionDeactivate, ActionClose, ActionOpen, ActionStop:
		return ActionType(s), true
	}
	return "", false
}

// ResultValue is the observed outcome of one equipment item.
type ResultValue string

const (
	ResultPending ResultValue = "pending"
	ResultOK      ResultValue = "ok"
	ResultNOK     ResultValue = "nok"
	ResultNA      ResultValue = "na"
)

func ParseResultValue(s string) (ResultValue, bool) {
	switch ResultValue(s) {
	case ResultPending, ResultOK, ResultNOK, ResultNA:
		return ResultValue(s), true
	}
	return "", false
}

// CheckStatus is derived from equipment results, never written by callers.
type CheckStatus string

const (
	CheckPending    CheckStatus = "pending"
	CheckInProgress CheckStatus = "in_progress"
	CheckPassed     CheckStatus = "passed"
	CheckFailed     CheckStatus = "failed"
	CheckPartial    CheckStatus = "partial"
)
