// Package journal persists the experiment trail: decisions, executed
// actions, mode switches, task states and metrics, one SQLite session
// per run.
package journal

import (
	"time"

	"github.com/modeswitch/controller/internal/actions"
	"github.com/modeswitch/controller/internal/decision"
)

// #region initiators

// Initiator tags who caused a mode switch.
type Initiator string

const (
	InitiatorLLM       Initiator = "llm"
	InitiatorManual    Initiator = "manual"
	InitiatorReversion Initiator = "reversion"
)

// #endregion initiators

// #region mapping

// Mapping is the full four-direction binding in effect after a mode
// switch: which plain action each joystick direction triggers.
type Mapping struct {
	Up    string `json:"up"`
	Down  string `json:"down"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

// MappingFromOutcomes derives the joystick binding from a selection,
// group order up, down, left, right.
func MappingFromOutcomes(outcomes []decision.Outcome) Mapping {
	var m Mapping
	for i, out := range outcomes {
		switch i {
		case 0:
			m.Up = out.ActionName
		case 1:
			m.Down = out.ActionName
		case 2:
			m.Left = out.ActionName
		case 3:
			m.Right = out.ActionName
		}
	}
	return m
}

// #endregion mapping

// #region rows

// DecisionRow is one persisted decision cycle.
type DecisionRow struct {
	DecisionID string
	Attempts   int
	Outcomes   []decision.Outcome
	CreatedAt  time.Time
}

// ActionRow is one executed motion.
type ActionRow struct {
	Joystick  [4]float64
	Gripper   float64
	Vector    actions.MotionVector
	CreatedAt time.Time
}

// ModeSwitchRow is one recorded mode switch with its initiator.
type ModeSwitchRow struct {
	Initiator Initiator
	Mapping   Mapping
	CreatedAt time.Time
}

// TaskStateRow marks a task lifecycle transition.
type TaskStateRow struct {
	State     string
	CreatedAt time.Time
}

// MetricRow is one named measurement.
type MetricRow struct {
	Name      string
	Value     float64
	CreatedAt time.Time
}

// Summary aggregates a session.
type Summary struct {
	SessionID      string
	Task           string
	Decisions      int
	Actions        int
	ModeSwitches   int
	ManualSwitches int
	Duration       time.Duration
}

// #endregion rows
