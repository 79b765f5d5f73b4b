package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/modeswitch/controller/internal/config"
	"github.com/modeswitch/controller/internal/model"
	"github.com/modeswitch/controller/internal/prompt"
	"github.com/modeswitch/controller/internal/state"
)

type scriptClient struct {
	replies []string
	calls   int
}

func (c *scriptClient) Predict(_ context.Context, _ []model.Message) (model.Prediction, error) {
	return model.Prediction{}, nil
}

func (c *scriptClient) Complete(_ context.Context, _ []model.Message) (string, error) {
	c.calls++
	i := c.calls - 1
	if i >= len(c.replies) {
		i = len(c.replies) - 1
	}
	return c.replies[i], nil
}

const distilledReply = "1. When the cup lies forward of the arm, prefer Increase x.\n2. When the arm holds the cup, prefer Decrease z."

func testBuilder() *prompt.Builder {
	return prompt.NewBuilder("pick up the cup", config.Default().Prompt)
}

func testSnapshot() state.Snapshot {
	return state.Snapshot{
		GripperOpen: true,
		Objects:     []state.ObjectPose{{Name: "cup", Pose: state.Pose{X: 20}}},
	}
}

func newTestStore(t *testing.T, cfg config.MemoryConfig, client model.Client) *Store {
	t.Helper()
	s, err := NewStore(cfg, testBuilder(), client)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestAddExampleFeedsExampleSegment(t *testing.T) {
	cfg := config.MemoryConfig{UseExamples: true}
	s := newTestStore(t, cfg, &scriptClient{replies: []string{distilledReply}})

	if _, ok := s.PromptSegment(); ok {
		t.Fatal("empty store should contribute no segment")
	}

	if err := s.AddExample(context.Background(), testSnapshot(), `{"Group 1": "A: Increase x"}`); err != nil {
		t.Fatalf("add example: %v", err)
	}
	segment, ok := s.PromptSegment()
	if !ok {
		t.Fatal("expected an example segment")
	}
	for _, want := range []string{"### Examples:", "**Example 0:**", `"A: Increase x"`} {
		if !strings.Contains(segment, want) {
			t.Fatalf("segment missing %q:\n%s", want, segment)
		}
	}
	if s.ExampleIndex() != 1 {
		t.Fatalf("example index = %d", s.ExampleIndex())
	}
}

func TestAddExampleDistillsUnderUpdateRules(t *testing.T) {
	cfg := config.MemoryConfig{UseExamples: true, SummarizeExamples: true, UpdateRules: true}
	client := &scriptClient{replies: []string{distilledReply}}
	s := newTestStore(t, cfg, client)

	if err := s.AddExample(context.Background(), testSnapshot(), `{"Group 1": "A: Increase x"}`); err != nil {
		t.Fatalf("add example: %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("expected one distillation call, got %d", client.calls)
	}
	segment, ok := s.PromptSegment()
	if !ok || !strings.Contains(segment, "prefer Increase x") {
		t.Fatalf("rules segment missing distilled content:\n%s", segment)
	}
	if !strings.Contains(segment, "rules derived from previous examples") {
		t.Fatalf("rules segment missing preamble:\n%s", segment)
	}
}

func TestDistillOneRulePerExampleAccumulates(t *testing.T) {
	cfg := config.MemoryConfig{UseExamples: true, SummarizeExamples: true, UpdateRules: true, OneRulePerExample: true}
	client := &scriptClient{replies: []string{"Keep the gripper closed while holding the cup."}}
	s := newTestStore(t, cfg, client)

	for i := 0; i < 2; i++ {
		if err := s.AddExample(context.Background(), testSnapshot(), `{"Group 1": "A: Increase x"}`); err != nil {
			t.Fatalf("add example %d: %v", i, err)
		}
	}
	rules := s.Rules()
	if !strings.Contains(rules, "1. ") || !strings.Contains(rules, "2. ") {
		t.Fatalf("expected two numbered rules:\n%s", rules)
	}
}

func TestDistillInheritShuffleRenumbersContiguously(t *testing.T) {
	cfg := config.MemoryConfig{UseExamples: true, SummarizeExamples: true, Shuffle: true, InheritRules: true}
	client := &scriptClient{replies: []string{distilledReply}}
	s := newTestStore(t, cfg, client)

	if err := s.Distill(context.Background()); err != nil {
		t.Fatalf("distill: %v", err)
	}
	rules := s.Rules()
	if !strings.Contains(rules, "1. ") || !strings.Contains(rules, "2. ") {
		t.Fatalf("expected rules renumbered 1..2:\n%s", rules)
	}
	if strings.Contains(strings.TrimPrefix(rules, "1. "), "\n3. ") {
		t.Fatalf("unexpected third rule:\n%s", rules)
	}

	// Without AllRules the base resets to the inherited list, so a
	// second distillation does not double the rules.
	if err := s.Distill(context.Background()); err != nil {
		t.Fatalf("second distill: %v", err)
	}
	if got := len(ParseRules(s.Rules())); got != 2 {
		t.Fatalf("expected 2 rules after re-distill, got %d", got)
	}
}

func TestDistillAllRulesAccumulatesAcrossRuns(t *testing.T) {
	cfg := config.MemoryConfig{UseExamples: true, SummarizeExamples: true, Shuffle: true, InheritRules: true, AllRules: true}
	client := &scriptClient{replies: []string{distilledReply}}
	s := newTestStore(t, cfg, client)

	for i := 0; i < 2; i++ {
		if err := s.Distill(context.Background()); err != nil {
			t.Fatalf("distill %d: %v", i, err)
		}
	}
	if got := len(ParseRules(s.Rules())); got != 4 {
		t.Fatalf("expected 4 accumulated rules, got %d", got)
	}
}

func TestExamplesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := config.MemoryConfig{UseExamples: true, Dir: dir}
	s := newTestStore(t, cfg, &scriptClient{replies: []string{distilledReply}})

	for i := 0; i < 3; i++ {
		if err := s.AddExample(context.Background(), testSnapshot(), `{"Group 1": "A: Increase x"}`); err != nil {
			t.Fatalf("add example %d: %v", i, err)
		}
	}
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded := newTestStore(t, cfg, &scriptClient{replies: []string{distilledReply}})
	if reloaded.ExampleCount() != 3 || reloaded.ExampleIndex() != 3 {
		t.Fatalf("reload: %d examples, index %d", reloaded.ExampleCount(), reloaded.ExampleIndex())
	}
	a, _ := s.PromptSegment()
	b, _ := reloaded.PromptSegment()
	if a != b {
		t.Fatal("reloaded segment differs from saved segment")
	}
}

func TestRulesInheritAcrossSessions(t *testing.T) {
	dir := t.TempDir()
	writerCfg := config.MemoryConfig{UseExamples: true, SummarizeExamples: true, Dir: dir}
	writer := newTestStore(t, writerCfg, &scriptClient{replies: []string{distilledReply}})
	if err := writer.Distill(context.Background()); err != nil {
		t.Fatalf("distill: %v", err)
	}
	if err := writer.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	readerCfg := config.MemoryConfig{UseExamples: true, SummarizeExamples: true, InheritRules: true, Dir: dir}
	reader := newTestStore(t, readerCfg, &scriptClient{replies: []string{distilledReply}})
	if reader.Rules() != writer.Rules() {
		t.Fatalf("inherited rules differ:\n%q\nvs\n%q", reader.Rules(), writer.Rules())
	}
}

func TestSimpleAppendPrependsInheritedRules(t *testing.T) {
	dir := t.TempDir()
	writerCfg := config.MemoryConfig{UseExamples: true, SummarizeExamples: true, Dir: dir}
	writer := newTestStore(t, writerCfg, &scriptClient{replies: []string{distilledReply}})
	if err := writer.Distill(context.Background()); err != nil {
		t.Fatalf("distill: %v", err)
	}
	if err := writer.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	cfg := config.MemoryConfig{UseExamples: true, SummarizeExamples: true, InheritRules: true, Dir: dir}
	s := newTestStore(t, cfg, &scriptClient{replies: []string{"3. Fresh rule about the cup position."}})
	if err := s.Distill(context.Background()); err != nil {
		t.Fatalf("distill: %v", err)
	}
	rules := s.Rules()
	if !strings.Contains(rules, "prefer Increase x") || !strings.Contains(rules, "Fresh rule") {
		t.Fatalf("append policy should keep inherited rules ahead of new ones:\n%s", rules)
	}
	if strings.Index(rules, "prefer Increase x") > strings.Index(rules, "Fresh rule") {
		t.Fatalf("inherited rules should come first:\n%s", rules)
	}
}
