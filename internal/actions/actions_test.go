package actions

import "testing"

func TestPlainCatalogShape(t *testing.T) {
	c := Select(false, false, true)
	if len(c.Keys()) != NumGroups {
		t.Fatalf("expected %d groups, got %d", NumGroups, len(c.Keys()))
	}
	if got := len(c.Candidates("Group 1")); got != 4 {
		t.Fatalf("Group 1 should carry the gripper action, got %d candidates", got)
	}
	if got := len(c.Candidates("Group 3")); got != 3 {
		t.Fatalf("Group 3 should have 3 candidates, got %d", got)
	}
}

func TestGripperModeOffTrimsFourthCandidate(t *testing.T) {
	c := Select(false, false, false)
	for _, key := range c.Keys() {
		if got := len(c.Candidates(key)); got != 3 {
			t.Fatalf("%s: expected 3 candidates without gripper mode, got %d", key, got)
		}
	}
}

func TestPairedCatalogHasTwoGroups(t *testing.T) {
	c := Select(true, false, true)
	if len(c.Keys()) != 2 {
		t.Fatalf("paired catalog should have 2 groups, got %d", len(c.Keys()))
	}
	if !c.Paired() {
		t.Fatal("Paired() should be true")
	}
	if c.Candidates("Group 3") != nil {
		t.Fatal("Group 3 should not exist in paired catalog")
	}
}

func TestCorrespondenceIncreaseX(t *testing.T) {
	v, ok := Correspondence("Increase x")
	if !ok {
		t.Fatal("Increase x should have a motion command")
	}
	want := MotionVector{1, 0, 0, 0, 0, 0}
	if v != want {
		t.Fatalf("got %v, want %v", v, want)
	}
}

func TestCorrespondenceGripperSentinels(t *testing.T) {
	open, _ := Correspondence("Open gripper")
	closed, _ := Correspondence("Close gripper")
	for i := 0; i < 6; i++ {
		if open[i] != 1 || closed[i] != -1 {
			t.Fatalf("gripper sentinels wrong at %d: open=%v close=%v", i, open, closed)
		}
	}
}

func TestFindActionRoundTrip(t *testing.T) {
	group, index, ok := FindAction("Decrease theta y")
	if !ok {
		t.Fatal("Decrease theta y should be found")
	}
	name, ok := PlainName(group, index)
	if !ok || name != "Decrease theta y" {
		t.Fatalf("round trip failed: got %q", name)
	}
	if group != 3 || index != 1 {
		t.Fatalf("expected group 3 index 1, got group %d index %d", group, index)
	}
}

func TestEveryPlainActionHasCorrespondence(t *testing.T) {
	c := Select(false, false, true)
	for gi := range c.Keys() {
		for _, name := range c.CandidatesAt(gi) {
			if _, ok := Correspondence(name); !ok {
				t.Fatalf("no motion command for %q", name)
			}
		}
	}
}

func TestNaturalNameAlignsWithPlain(t *testing.T) {
	name, ok := NaturalName(0, 0)
	if !ok || name != "Move forward" {
		t.Fatalf("expected Move forward, got %q", name)
	}
	name, ok = NaturalName(2, 2)
	if !ok || name != "Yaw left" {
		t.Fatalf("expected Yaw left, got %q", name)
	}
}
