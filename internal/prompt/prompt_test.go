package prompt

import (
	"strings"
	"testing"

	"github.com/modeswitch/controller/internal/config"
	"github.com/modeswitch/controller/internal/state"
)

func defaultOpts() config.PromptConfig {
	return config.Default().Prompt
}

func sampleSnapshot() state.Snapshot {
	return state.Snapshot{
		Pose:        state.Pose{},
		GripperOpen: true,
		Objects: []state.ObjectPose{
			{Name: "cup", Pose: state.Pose{X: 20}},
		},
	}
}

func TestApproximateNumRounding(t *testing.T) {
	if got := approximateNum(23.4, 5, 0); got != "25" {
		t.Fatalf("got %q, want 25", got)
	}
	if got := approximateNum(-2.6, 1, 0); got != "-3" {
		t.Fatalf("got %q, want -3", got)
	}
}

func TestApproximateNumCollapsesNearWrap(t *testing.T) {
	if got := approximateNum(357, 5, 0); got != "0" {
		t.Fatalf("near-360 should collapse to 0, got %q", got)
	}
	if got := approximateNum(-355, 1, 0); got != "0" {
		t.Fatalf("near -360 should collapse to 0, got %q", got)
	}
}

func TestApproximateNumDecimal(t *testing.T) {
	if got := approximateNum(23.456, 1, 2); got != "23.46" {
		t.Fatalf("got %q, want 23.46", got)
	}
}

func TestSpatialPhraseBands(t *testing.T) {
	r := relations[0]
	if got := spatialPhrase(20, 0, r, 1); got != r.phrases[0] {
		t.Fatalf("object ahead: got %q", got)
	}
	if got := spatialPhrase(-20, 0, r, 1); got != r.phrases[1] {
		t.Fatalf("object behind: got %q", got)
	}
	if got := spatialPhrase(0.5, 0, r, 1); got != r.phrases[2] {
		t.Fatalf("object close: got %q", got)
	}
}

func TestCurrentTaskContainsStateAndObjects(t *testing.T) {
	b := NewBuilder("pick up the cup", defaultOpts())
	out := b.CurrentTask(sampleSnapshot())

	for _, want := range []string{
		"### Current Task, Robot Arm State, and Object Information:",
		"pick up the cup",
		`"gripper opening": 1`,
		`"cup"`,
		`"relative_position"`,
		`"x": 20`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("current task missing %q:\n%s", want, out)
		}
	}
}

func TestOutputFormatTracksCatalogVariant(t *testing.T) {
	b := NewBuilder("t", defaultOpts())
	if !strings.Contains(b.OutputFormat(), `"Group 4"`) {
		t.Fatal("split mode should request all four groups")
	}
	if !strings.Contains(b.OutputFormat(), "A/B/C/D") {
		t.Fatal("gripper mode should offer label D")
	}

	opts := defaultOpts()
	opts.PairedOpposite = true
	paired := NewBuilder("t", opts)
	if strings.Contains(paired.OutputFormat(), `"Group 3"`) {
		t.Fatal("paired mode should request only two groups")
	}

	opts = defaultOpts()
	opts.GripperMode = false
	noGrip := NewBuilder("t", opts)
	if strings.Contains(noGrip.OutputFormat(), "D") {
		t.Fatal("label D should not appear without gripper mode")
	}
}

func TestTaskSpecificationListsCatalog(t *testing.T) {
	b := NewBuilder("t", defaultOpts())
	listing := b.TaskSpecification()
	for _, want := range []string{"**Group 1:**", "- A: Increase x", "- D: Open gripper", "- C: Decrease theta z"} {
		if !strings.Contains(listing, want) {
			t.Fatalf("task specification missing %q", want)
		}
	}
}

func TestNaturalLanguageRendering(t *testing.T) {
	opts := defaultOpts()
	opts.NaturalLanguage = true
	opts.HoldingPrompt = true
	b := NewBuilder("t", opts)

	snap := sampleSnapshot()
	out := b.CurrentTask(snap)
	if !strings.Contains(out, "to the forward of the robot arm") {
		t.Fatalf("expected forward relation phrase:\n%s", out)
	}
	if !strings.Contains(out, `"gripper": open`) {
		t.Fatalf("expected natural gripper state:\n%s", out)
	}

	snap.Grasped = "cup"
	snap.GripperOpen = false
	out = b.CurrentTask(snap)
	if !strings.Contains(out, "The robot arm is holding the cup.") {
		t.Fatalf("expected holding phrase:\n%s", out)
	}

	snap.Grasped = ""
	snap.Dropped = "cup"
	out = b.CurrentTask(snap)
	if !strings.Contains(out, "has been dropped") {
		t.Fatalf("expected dropped phrase:\n%s", out)
	}
}

func TestExampleRenderingMatchesCurrentTaskBody(t *testing.T) {
	b := NewBuilder("pick up the cup", defaultOpts())
	snap := sampleSnapshot()

	example := b.Example(snap, `{"Group 1": "A: Increase x"}`, 3)
	if !strings.Contains(example, "**Example 3:**") {
		t.Fatalf("example header missing:\n%s", example)
	}
	if !strings.Contains(example, "- **Most Likely Action(s):**") {
		t.Fatal("example output section missing")
	}
	if !strings.Contains(example, `"A: Increase x"`) {
		t.Fatal("corrected output missing")
	}

	// State body is shared with the current-task rendering.
	current := b.CurrentTask(snap)
	stateLine := `"x": 0`
	if !strings.Contains(example, stateLine) || !strings.Contains(current, stateLine) {
		t.Fatal("state body should render identically in both fragments")
	}
}

func TestRelativeOffsetsUseArmPose(t *testing.T) {
	b := NewBuilder("t", defaultOpts())
	snap := sampleSnapshot()
	snap.Pose = state.Pose{X: 5}
	out := b.CurrentTask(snap)
	if !strings.Contains(out, `"x": 15`) {
		t.Fatalf("relative offset should be object minus arm:\n%s", out)
	}
}
