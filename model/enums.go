package model

// Priority orders requests from ROUTINE (lowest) to FLASH (highest).
type Priority string

const (
	PriorityRoutine   Priority = "ROUTINE"
	PriorityPriority  Priority = "PRIORITY"
	PriorityImmediate Priority = "IMMEDIATE"
	PriorityFlash     Priority = "FLASH"
)

// Rank returns the ordering of a priority; higher means more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityRoutine:
		return 0
	case PriorityPriority:
		return 1
	case PriorityImmediate:
		return 2
	case PriorityFlash:
		return 3
	default:
		return -1
	}
}

// ParsePriority converts a wire string to a Priority.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if p.Rank() < 0 {
		return "", fieldError("priority", "unknown priority %q", s)
	}
	return p, nil
}

// ConflictType classifies a single deconfliction finding.
type ConflictType string

const (
	ConflictFrequency  ConflictType = "FREQUENCY"
	ConflictGeographic ConflictType = "GEOGRAPHIC"
	ConflictTime       ConflictType = "TIME"
	ConflictPolicy     ConflictType = "POLICY"
	ConflictROE        ConflictType = "ROE"
)

// DecisionStatus is the outcome of a deconfliction request.
type DecisionStatus string

const (
	StatusApproved DecisionStatus = "APPROVED"
	StatusDenied   DecisionStatus = "DENIED"
	StatusConflict DecisionStatus = "CONFLICT"
	StatusPending  DecisionStatus = "PENDING"
)

// ActionType identifies what an emitter is doing in a course of action.
type ActionType string

const (
	ActionJamming       ActionType = "JAMMING"
	ActionCommunication ActionType = "COMMUNICATION"
	ActionRadar         ActionType = "RADAR"
	ActionISR           ActionType = "ISR"
	ActionDatalink      ActionType = "DATALINK"
)

// ParseActionType converts a wire string to an ActionType.
func ParseActionType(s string) (ActionType, error) {
	switch a := ActionType(s); a {
	case ActionJamming, ActionCommunication, ActionRadar, ActionISR, ActionDatalink:
		return a, nil
	default:
		return "", fieldError("action_type", "unknown action type %q", s)
	}
}

// AllocationStatus reports the outcome of a commit attempt.
type AllocationStatus string

const (
	AllocationSuccess AllocationStatus = "SUCCESS"
	AllocationFailed  AllocationStatus = "FAILED"
)

func (s DecisionStatus) String() string { return string(s) }

func (p Priority) String() string { return string(p) }
