package decision

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/modeswitch/controller/internal/config"
	"github.com/modeswitch/controller/internal/model"
	"github.com/modeswitch/controller/internal/prompt"
	"github.com/modeswitch/controller/internal/state"
)

// #region memory-seam

// Memory is the slice of the memory store the engine consumes: the
// rendered prompt segment carrying examples or distilled rules, and
// the correction sink.
type Memory interface {
	// PromptSegment returns the rendered examples-or-rules segment and
	// whether there is one worth injecting.
	PromptSegment() (string, bool)
	// AddExample records a corrected example against the given
	// snapshot.
	AddExample(ctx context.Context, snap state.Snapshot, output string) error
}

// #endregion memory-seam

// #region engine-state

// Phase is the engine's position in the decision cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRendering
	PhaseAwaitingModel
	PhaseValidating
	PhaseRetrying
	PhaseSelecting
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRendering:
		return "rendering"
	case PhaseAwaitingModel:
		return "awaiting-model"
	case PhaseValidating:
		return "validating"
	case PhaseRetrying:
		return "retrying"
	case PhaseSelecting:
		return "selecting"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrHalted is returned for cycles requested after a decision failure
// and before Reset.
var ErrHalted = fmt.Errorf("engine halted after decision failure; reset required")

// #endregion engine-state

// #region engine

// Engine runs the full decision cycle: render the conversation, call
// the model, validate, retry within budget, select. One cycle runs at
// a time.
type Engine struct {
	mu        sync.Mutex
	cfg       config.SelectorConfig
	builder   *prompt.Builder
	client    model.Client
	validator *Validator
	selector  *Selector
	memory    Memory

	phase        Phase
	outcomes     []Outcome
	lastSnap     state.Snapshot
	hasSnap      bool
	lastAttempts int
}

// NewEngine wires an engine from its collaborators. memory may be nil
// when the configuration disables examples.
func NewEngine(cfg config.SelectorConfig, builder *prompt.Builder, client model.Client, mem Memory) *Engine {
	return &Engine{
		cfg:       cfg,
		builder:   builder,
		client:    client,
		validator: NewValidator(builder.Catalog()),
		selector:  NewSelector(cfg.SwitchPreviousThreshold),
		memory:    mem,
		phase:     PhaseIdle,
	}
}

// Phase returns the engine's current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Outcomes returns the selections of the last completed cycle.
func (e *Engine) Outcomes() []Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.outcomes
}

// LastAttempts returns how many model calls the last completed cycle
// used.
func (e *Engine) LastAttempts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastAttempts
}

// RecordExecuted notes that the operator executed the named plain
// action on the given zero-based group; the next selection applies
// hysteresis against it.
func (e *Engine) RecordExecuted(group int, name string) {
	e.selector.RecordExecuted(group, name)
}

// Reset clears a decision failure so cycles can run again.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == PhaseFailed {
		log.Printf("[ENGINE] reset after failure")
	}
	e.phase = PhaseIdle
}

// Correct records the operator's corrected output against the
// snapshot of the last completed cycle.
func (e *Engine) Correct(ctx context.Context, output string) error {
	e.mu.Lock()
	snap, ok := e.lastSnap, e.hasSnap
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("no completed cycle to correct")
	}
	if e.memory == nil {
		return fmt.Errorf("memory disabled")
	}
	return e.memory.AddExample(ctx, snap, output)
}

// Decide runs one decision cycle against the given state snapshot.
// A service fault aborts the cycle and leaves the previous outcomes in
// effect; schema violations are retried up to the attempt budget and
// then escalate to a DecisionFailure that halts the engine.
func (e *Engine) Decide(ctx context.Context, snap state.Snapshot) ([]Outcome, error) {
	e.mu.Lock()
	if e.phase == PhaseFailed {
		e.mu.Unlock()
		return nil, ErrHalted
	}
	e.phase = PhaseRendering
	e.mu.Unlock()

	messages := e.renderMessages(snap)
	paired := e.builder.Catalog().Paired()

	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		e.setPhase(PhaseAwaitingModel)
		pred, err := e.client.Predict(ctx, messages)
		if err != nil {
			e.setPhase(PhaseIdle)
			log.Printf("[ENGINE] model call failed, cycle aborted: %v", err)
			return nil, err
		}

		e.setPhase(PhaseValidating)
		if _, err := e.validator.Validate(pred.Text); err != nil {
			lastErr = err
			log.Printf("[ENGINE] attempt %d/%d rejected: %v", attempt, e.cfg.MaxAttempts, err)
			e.setPhase(PhaseRetrying)
			continue
		}

		e.setPhase(PhaseSelecting)
		outcomes, err := e.selector.Select(pred.Slots, paired)
		if err != nil {
			lastErr = err
			log.Printf("[ENGINE] attempt %d/%d selection rejected: %v", attempt, e.cfg.MaxAttempts, err)
			e.setPhase(PhaseRetrying)
			continue
		}

		e.mu.Lock()
		e.phase = PhaseReady
		e.outcomes = outcomes
		e.lastSnap = snap
		e.hasSnap = true
		e.lastAttempts = attempt
		e.mu.Unlock()
		return outcomes, nil
	}

	e.setPhase(PhaseFailed)
	failure := &DecisionFailure{Attempts: e.cfg.MaxAttempts, Last: lastErr}
	log.Printf("[ENGINE] %v", failure)
	return nil, failure
}

func (e *Engine) setPhase(p Phase) {
	e.mu.Lock()
	e.phase = p
	e.mu.Unlock()
}

// renderMessages assembles the prediction conversation: objective,
// data structures, task specification, the memory segment when one is
// available, and the current task fragment.
func (e *Engine) renderMessages(snap state.Snapshot) []model.Message {
	messages := []model.Message{
		{Role: model.RoleUser, Content: e.builder.Objective()},
		{Role: model.RoleUser, Content: e.builder.DataStructures()},
		{Role: model.RoleUser, Content: e.builder.TaskSpecification()},
	}
	if e.memory != nil {
		if segment, ok := e.memory.PromptSegment(); ok {
			messages = append(messages, model.Message{Role: model.RoleUser, Content: segment})
		}
	}
	messages = append(messages, model.Message{Role: model.RoleUser, Content: e.builder.CurrentTask(snap)})
	return messages
}

// #endregion engine
