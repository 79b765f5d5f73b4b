package replay

import (
	"fmt"

	"github.com/modeswitch/controller/internal/decision"
	"github.com/modeswitch/controller/internal/model"
)

// #region types

// Result is the outcome of replaying one cycle.
type Result struct {
	CycleID    string
	Outcomes   []decision.Outcome
	Mismatches []string
	Passed     bool
}

// Summary aggregates a replay run.
type Summary struct {
	TotalCycles int
	Passed      int
	Failed      int
}

// #endregion types

// #region replay

// Run replays every cycle of a fixture through a fresh selector,
// feeding the recorded executed actions in before each selection, and
// compares the selections against the fixture's expectations.
func Run(f *Fixture) ([]Result, Summary, error) {
	selector := decision.NewSelector(f.Threshold)
	results := make([]Result, 0, len(f.Cycles))
	summary := Summary{TotalCycles: len(f.Cycles)}

	for _, cycle := range f.Cycles {
		for _, exec := range cycle.Executed {
			selector.RecordExecuted(exec.Group, exec.Action)
		}

		slots := make([]model.LabelLogprobs, len(cycle.Slots))
		for i, slot := range cycle.Slots {
			slots[i] = model.LabelLogprobs(slot)
		}

		outcomes, err := selector.Select(slots, f.Paired)
		if err != nil {
			return nil, Summary{}, fmt.Errorf("cycle %s: %w", cycle.CycleID, err)
		}

		res := Result{CycleID: cycle.CycleID, Outcomes: outcomes}
		res.Mismatches = compare(outcomes, cycle.Expected)
		res.Passed = len(res.Mismatches) == 0
		if res.Passed {
			summary.Passed++
		} else {
			summary.Failed++
		}
		results = append(results, res)
	}
	return results, summary, nil
}

// compare checks each expectation against the outcome of its group.
func compare(outcomes []decision.Outcome, expected []FixtureExpected) []string {
	byGroup := make(map[string]decision.Outcome, len(outcomes))
	for _, out := range outcomes {
		byGroup[out.Group] = out
	}

	var mismatches []string
	for _, want := range expected {
		got, ok := byGroup[want.Group]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("%s: no outcome", want.Group))
			continue
		}
		if got.ActionName != want.Action {
			mismatches = append(mismatches, fmt.Sprintf("%s: got %q, want %q", want.Group, got.ActionName, want.Action))
		}
		if got.Secondary != want.Secondary {
			mismatches = append(mismatches, fmt.Sprintf("%s: secondary = %v, want %v", want.Group, got.Secondary, want.Secondary))
		}
	}
	return mismatches
}

// #endregion replay
