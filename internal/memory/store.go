// Package memory accumulates corrected examples and distills them
// into natural-language rules that steer later predictions.
package memory

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/modeswitch/controller/internal/config"
	"github.com/modeswitch/controller/internal/model"
	"github.com/modeswitch/controller/internal/prompt"
	"github.com/modeswitch/controller/internal/state"
)

// minPayload is the length below which an example or rule payload is
// considered empty for prompt-injection purposes.
const minPayload = 10

// #region store

// Store holds the example sequence and the distilled rules. All reads
// and merges run under one lock so a background distillation never
// exposes a half-updated rule payload.
type Store struct {
	mu      sync.Mutex
	cfg     config.MemoryConfig
	builder *prompt.Builder
	client  model.Client
	rng     *rand.Rand

	examples       []string
	examplesPrompt string
	latest         string
	exampleIndex   int

	inheritedRules    string
	inheritedRuleList []string
	ruleList          []string
	rules             string
}

// NewStore creates a store and, when the configured directory already
// holds example or rule files, reloads them according to the inherit
// policy.
func NewStore(cfg config.MemoryConfig, builder *prompt.Builder, client model.Client) (*Store, error) {
	s := &Store{
		cfg:     cfg,
		builder: builder,
		client:  client,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// ExampleCount returns how many examples are held in memory.
func (s *Store) ExampleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.examples)
}

// ExampleIndex returns the index the next example will be rendered
// with.
func (s *Store) ExampleIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exampleIndex
}

// Rules returns the current distilled rule payload.
func (s *Store) Rules() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules
}

// PromptSegment returns the rendered memory segment for a prediction
// conversation: distilled rules under a summarizing policy, the raw
// example sequence otherwise.
func (s *Store) PromptSegment() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cfg.UseExamples {
		return "", false
	}
	if len(s.rules) <= minPayload && len(s.examplesPrompt) <= minPayload {
		return "", false
	}
	if s.cfg.SummarizeExamples {
		return s.builder.ProvidedRules(s.rules), true
	}
	return s.builder.ExamplesSection(s.examplesPrompt, false), true
}

// AddExample renders the corrected output against the given snapshot,
// appends it to the example sequence and, when the policy updates
// rules continuously, distills again.
func (s *Store) AddExample(ctx context.Context, snap state.Snapshot, output string) error {
	s.mu.Lock()
	example := s.builder.Example(snap, output, s.exampleIndex)
	s.latest = example
	s.examples = append(s.examples, example)
	if s.cfg.Shuffle {
		s.rng.Shuffle(len(s.examples), func(i, j int) {
			s.examples[i], s.examples[j] = s.examples[j], s.examples[i]
		})
	}
	s.examplesPrompt = strings.Join(s.examples, "")
	s.exampleIndex++
	count := len(s.examples)
	s.mu.Unlock()

	log.Printf("[MEMORY] example %d recorded (%d held)", s.exampleIndex-1, count)
	if s.cfg.SummarizeExamples && s.cfg.UpdateRules {
		return s.Distill(ctx)
	}
	return nil
}

// #endregion store

// #region distillation

// Distill runs the summarize conversation and merges the reply into
// the rule payload under the configured policy. The model call runs
// outside the lock; the merge is atomic.
func (s *Store) Distill(ctx context.Context) error {
	s.mu.Lock()
	single := s.cfg.OneRulePerExample
	var source string
	switch {
	case single:
		source = s.latest
	case s.cfg.SampleAllExamples > 0:
		source = strings.Join(s.sampleLocked(s.cfg.SampleAllExamples), "")
	default:
		source = s.examplesPrompt
	}
	messages := []model.Message{
		{Role: model.RoleSystem, Content: s.builder.ObjectiveSummarize()},
		{Role: model.RoleUser, Content: s.builder.DataStructures()},
		{Role: model.RoleUser, Content: s.builder.TaskSpecificationSummarize()},
		{Role: model.RoleUser, Content: s.builder.ExamplesSection(source, true)},
		{Role: model.RoleUser, Content: s.builder.SummaryRules(single)},
	}
	s.mu.Unlock()

	reply, err := s.client.Complete(ctx, messages)
	if err != nil {
		return fmt.Errorf("distill: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeLocked(reply)
	log.Printf("[MEMORY] rules distilled (%d listed)", len(s.ruleList))
	return nil
}

// mergeLocked folds a distillation reply into the rule payload.
func (s *Store) mergeLocked(reply string) {
	switch {
	case s.cfg.OneRulePerExample:
		s.ruleList = append(s.ruleList, reply)
		s.shuffleRulesLocked()
		var sb strings.Builder
		for i, rule := range s.ruleList {
			fmt.Fprintf(&sb, "%d. %s\n\n", i+1, rule)
		}
		s.rules = sb.String()

	case s.cfg.Shuffle && s.cfg.InheritRules:
		parsed := ParseRules(reply)
		base := s.inheritedRuleList
		if s.cfg.AllRules {
			base = s.ruleList
		}
		s.ruleList = append(append([]string{}, base...), parsed...)
		s.shuffleRulesLocked()
		s.rules = RenumberRules(s.ruleList)

	default:
		if len(s.inheritedRules) > minPayload {
			reply = s.inheritedRules + "\n \n \n \n" + reply
		}
		s.rules = reply
	}
}

func (s *Store) shuffleRulesLocked() {
	s.rng.Shuffle(len(s.ruleList), func(i, j int) {
		s.ruleList[i], s.ruleList[j] = s.ruleList[j], s.ruleList[i]
	})
}

// sampleLocked draws at most n distinct examples at random.
func (s *Store) sampleLocked(n int) []string {
	if n >= len(s.examples) {
		return append([]string{}, s.examples...)
	}
	idx := s.rng.Perm(len(s.examples))[:n]
	out := make([]string, n)
	for i, j := range idx {
		out[i] = s.examples[j]
	}
	return out
}

// #endregion distillation
