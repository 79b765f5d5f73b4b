package journal

import (
	"path/filepath"
	"testing"

	"github.com/modeswitch/controller/internal/actions"
	"github.com/modeswitch/controller/internal/decision"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), "pick up the cup")
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleOutcomes() []decision.Outcome {
	out := make([]decision.Outcome, 4)
	for i := range out {
		name, _ := actions.PlainName(i, 0)
		motion, _ := actions.Correspondence(name)
		out[i] = decision.Outcome{
			Group:      actions.GroupKey(i),
			ActionName: name,
			Label:      "A",
			Motion:     motion,
		}
	}
	return out
}

func TestDecisionRoundTrip(t *testing.T) {
	j := openTestJournal(t)

	id, err := j.RecordDecision(2, sampleOutcomes())
	if err != nil {
		t.Fatalf("record decision: %v", err)
	}
	rows, err := j.Decisions(j.SessionID())
	if err != nil {
		t.Fatalf("read decisions: %v", err)
	}
	if len(rows) != 1 || rows[0].DecisionID != id || rows[0].Attempts != 2 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if rows[0].Outcomes[0].ActionName != "Increase x" {
		t.Fatalf("outcome lost: %+v", rows[0].Outcomes[0])
	}
}

func TestModeSwitchInitiatorsAndMapping(t *testing.T) {
	j := openTestJournal(t)

	mapping := MappingFromOutcomes(sampleOutcomes())
	if mapping.Up != "Increase x" || mapping.Right != "Decrease y" {
		t.Fatalf("mapping derivation wrong: %+v", mapping)
	}
	for _, initiator := range []Initiator{InitiatorLLM, InitiatorManual, InitiatorReversion} {
		if err := j.RecordModeSwitch(initiator, mapping); err != nil {
			t.Fatalf("record %s switch: %v", initiator, err)
		}
	}

	rows, err := j.ModeSwitches(j.SessionID())
	if err != nil {
		t.Fatalf("read switches: %v", err)
	}
	if len(rows) != 3 || rows[1].Initiator != InitiatorManual {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if rows[0].Mapping != mapping {
		t.Fatalf("mapping lost: %+v", rows[0].Mapping)
	}
}

func TestActionAndTaskStateRoundTrip(t *testing.T) {
	j := openTestJournal(t)

	vector := actions.MotionVector{1, 0, 0, 0, 0, 0}
	if err := j.RecordAction([4]float64{0.8, 0, 0, 0}, 1, vector); err != nil {
		t.Fatalf("record action: %v", err)
	}
	if err := j.RecordTaskState("task started"); err != nil {
		t.Fatalf("record task state: %v", err)
	}

	acts, err := j.Actions(j.SessionID())
	if err != nil {
		t.Fatalf("read actions: %v", err)
	}
	if len(acts) != 1 || acts[0].Vector != vector || acts[0].Joystick[0] != 0.8 {
		t.Fatalf("unexpected actions: %+v", acts)
	}

	states, err := j.TaskStates(j.SessionID())
	if err != nil {
		t.Fatalf("read task states: %v", err)
	}
	if len(states) != 1 || states[0].State != "task started" {
		t.Fatalf("unexpected states: %+v", states)
	}
}

func TestSummarizeCountsManualSwitches(t *testing.T) {
	j := openTestJournal(t)

	mapping := MappingFromOutcomes(sampleOutcomes())
	j.RecordModeSwitch(InitiatorLLM, mapping)
	j.RecordModeSwitch(InitiatorManual, mapping)
	j.RecordModeSwitch(InitiatorManual, mapping)
	if _, err := j.RecordDecision(1, sampleOutcomes()); err != nil {
		t.Fatalf("record decision: %v", err)
	}
	if err := j.RecordMetric("mode_switch_time_s", 4.2); err != nil {
		t.Fatalf("record metric: %v", err)
	}
	if err := j.EndSession(); err != nil {
		t.Fatalf("end session: %v", err)
	}

	s, err := j.Summarize(j.SessionID())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.Decisions != 1 || s.ModeSwitches != 3 || s.ManualSwitches != 2 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.Duration < 0 {
		t.Fatalf("negative duration: %v", s.Duration)
	}

	metrics, err := j.Metrics(j.SessionID())
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if len(metrics) != 1 || metrics[0].Name != "mode_switch_time_s" {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
}
