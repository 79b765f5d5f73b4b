// Package decision turns model replies into a per-group mode
// assignment: validation of the structured reply, probability-weighted
// selection with hysteresis, and the cycle state machine that binds
// them together.
package decision

import (
	"fmt"

	"github.com/modeswitch/controller/internal/actions"
)

// #region outcome

// Outcome is the selection for one joystick group: the canonical
// action name, its motion command, the label it was addressed by, and
// the normalized distribution the choice was made from. Mirrored
// groups of a paired catalog carry a nil distribution.
type Outcome struct {
	Group        string
	ActionName   string
	Label        string
	Motion       actions.MotionVector
	Secondary    bool
	Distribution map[string]float64
}

// #endregion outcome

// #region errors

// SchemaViolation reports a model reply that does not satisfy the
// expected structure. The engine retries these up to its attempt
// budget.
type SchemaViolation struct {
	Reason string
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("schema violation: %s", e.Reason)
}

// DecisionFailure reports an exhausted attempt budget. The engine
// refuses further cycles until Reset.
type DecisionFailure struct {
	Attempts int
	Last     error
}

func (e *DecisionFailure) Error() string {
	return fmt.Sprintf("decision failure after %d attempts: %v", e.Attempts, e.Last)
}

func (e *DecisionFailure) Unwrap() error {
	return e.Last
}

// #endregion errors
