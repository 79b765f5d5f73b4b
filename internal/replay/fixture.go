// Package replay re-runs recorded decision cycles through the mode
// selector and checks them against expected selections. Fixtures make
// selector behavior reproducible without a model service.
package replay

import (
	"encoding/json"
	"fmt"
	"os"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string         `json:"description"`
	Threshold   float64        `json:"switch_previous_threshold"`
	Paired      bool           `json:"paired"`
	Cycles      []FixtureCycle `json:"cycles"`
}

// FixtureCycle is one recorded decision cycle: the label logprobs the
// model produced per queried slot, the actions executed since the
// previous cycle, and the expected selections.
type FixtureCycle struct {
	CycleID  string               `json:"cycle_id"`
	Slots    []map[string]float64 `json:"slots"`
	Executed []FixtureExecuted    `json:"executed"`
	Expected []FixtureExpected    `json:"expected"`
}

// FixtureExecuted records one executed action before this cycle.
type FixtureExecuted struct {
	Group  int    `json:"group"`
	Action string `json:"action"`
}

// FixtureExpected is the expected selection for one group.
type FixtureExpected struct {
	Group     string `json:"group"`
	Action    string `json:"action"`
	Secondary bool   `json:"secondary"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Cycles) == 0 {
		return nil, fmt.Errorf("fixture %s has no cycles", path)
	}
	return &f, nil
}

// #endregion fixture-loader
