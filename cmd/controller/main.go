package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/modeswitch/controller/internal/actions"
	"github.com/modeswitch/controller/internal/config"
	"github.com/modeswitch/controller/internal/decision"
	"github.com/modeswitch/controller/internal/journal"
	"github.com/modeswitch/controller/internal/memory"
	"github.com/modeswitch/controller/internal/model"
	"github.com/modeswitch/controller/internal/prompt"
	"github.com/modeswitch/controller/internal/state"
)

// directions maps REPL direction words to group indices.
var directions = map[string]int{"up": 0, "down": 1, "left": 2, "right": 3}

var directionNames = []string{"up", "down", "left", "right"}

// speed scales one exec step, in cm per unit deflection.
const speed = 2.0

// #region session

// session holds the live controller state driven by the REPL.
type session struct {
	cfg     config.Config
	arm     *state.Context
	builder *prompt.Builder
	engine  *decision.Engine
	store   *memory.Store
	jour    *journal.Journal

	names     [actions.NumGroups]string
	vectors   [actions.NumGroups]actions.MotionVector
	secondary [actions.NumGroups]bool
	original  [actions.NumGroups]string
	previous  [actions.NumGroups]string
	bound     bool
	adjusting bool

	manualSwitches int
	wg             sync.WaitGroup

	// bg outlives the per-command contexts; background corrections run
	// on it so cancelling a finished command cannot abort them.
	bg context.Context
}

func (s *session) mapping() journal.Mapping {
	return journal.Mapping{Up: s.names[0], Down: s.names[1], Left: s.names[2], Right: s.names[3]}
}

// decide runs one decision cycle and rebinds the joystick directions.
func (s *session) decide(ctx context.Context) {
	snap := s.arm.Snapshot()
	outcomes, err := s.engine.Decide(ctx, snap)
	if err != nil {
		log.Printf("[CONTROLLER] decision cycle: %v", err)
		return
	}

	if _, err := s.jour.RecordDecision(s.engine.LastAttempts(), outcomes); err != nil {
		log.Printf("[CONTROLLER] journal: %v", err)
	}

	changed := false
	s.previous = s.names
	for i, out := range outcomes {
		if s.names[i] != out.ActionName {
			changed = true
		}
		s.names[i] = out.ActionName
		s.vectors[i] = out.Motion
		s.secondary[i] = out.Secondary
	}
	s.original = s.names
	s.bound = true

	if changed {
		if err := s.jour.RecordModeSwitch(journal.InitiatorLLM, journal.MappingFromOutcomes(outcomes)); err != nil {
			log.Printf("[CONTROLLER] journal: %v", err)
		}
	}
	s.printModes()
}

// exec executes the action currently bound to a direction, applying
// its motion to the simulated arm. The first execution after manual
// cycling snapshots the adjustment as a corrected example.
func (s *session) exec(ctx context.Context, dir string, deflection float64) {
	i, ok := directions[dir]
	if !ok {
		fmt.Println("usage: exec <up|down|left|right> [deflection]")
		return
	}
	if !s.bound {
		fmt.Println("no modes bound yet; run 'decide' first")
		return
	}
	if s.adjusting {
		s.finishAdjustment()
	}

	name, vector := s.names[i], s.vectors[i]
	s.engine.RecordExecuted(i, name)

	switch name {
	case "Open gripper":
		s.arm.SetGripper(true)
	case "Close gripper":
		s.arm.SetGripper(false)
	default:
		s.arm.Exclusive(func(p state.Pose) state.Pose {
			return applyMotion(p, vector, speed*deflection)
		})
	}

	var joystick [4]float64
	joystick[i] = deflection
	gripper := 0.0
	if s.arm.GripperOpen() {
		gripper = 1.0
	}
	if err := s.jour.RecordAction(joystick, gripper, vector); err != nil {
		log.Printf("[CONTROLLER] journal: %v", err)
	}
	fmt.Printf("executed %s (%s)\n", name, dir)

	// Grasp/drop and gripper actions invalidate the current binding.
	if s.arm.ConsumeGripperChanged() {
		s.decide(ctx)
	}
}

// cycle steps a direction's binding to the next candidate in its
// group, entering adjustment mode.
func (s *session) cycle(dir string) {
	i, ok := directions[dir]
	if !ok {
		fmt.Println("usage: cycle <up|down|left|right>")
		return
	}
	if !s.bound {
		fmt.Println("no modes bound yet; run 'decide' first")
		return
	}

	_, idx, ok := actions.FindAction(s.names[i])
	if !ok {
		log.Printf("[CONTROLLER] unknown bound action %q", s.names[i])
		return
	}
	s.adjusting = true
	next := (idx + 1) % actions.GroupLen(i)
	name, _ := actions.PlainName(i, next)
	motion, _ := actions.Correspondence(name)
	s.names[i] = name
	s.vectors[i] = motion
	s.secondary[i] = false

	if err := s.jour.RecordModeSwitch(journal.InitiatorManual, s.mapping()); err != nil {
		log.Printf("[CONTROLLER] journal: %v", err)
	}
	s.printModes()
}

// finishAdjustment runs when movement resumes after manual cycling:
// the delta against the model's binding becomes a corrected example,
// recorded in the background.
func (s *session) finishAdjustment() {
	s.adjusting = false
	output := make(map[string]string)
	for i := 0; i < actions.NumGroups; i++ {
		if s.names[i] == s.original[i] {
			continue
		}
		_, idx, ok := actions.FindAction(s.names[i])
		if !ok {
			continue
		}
		shown := s.names[i]
		if s.cfg.Prompt.NaturalLanguage {
			shown, _ = actions.NaturalName(i, idx)
		}
		output[actions.GroupKey(i)] = fmt.Sprintf("%s: %s", actions.Labels[idx], shown)
	}
	s.manualSwitches += len(output)
	if len(output) == 0 {
		return
	}
	s.original = s.names

	if !s.cfg.Memory.UseExamples {
		return
	}
	payload, err := json.MarshalIndent(output, "", "    ")
	if err != nil {
		log.Printf("[CONTROLLER] encode correction: %v", err)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.engine.Correct(s.bg, string(payload)); err != nil {
			log.Printf("[CONTROLLER] record correction: %v", err)
		}
	}()
	log.Printf("[CONTROLLER] correction scheduled for %d group(s)", len(output))
}

// revert restores the binding from before the last switch.
func (s *session) revert() {
	if !s.bound {
		fmt.Println("no modes bound yet")
		return
	}
	s.names = s.previous
	for i, name := range s.names {
		if motion, ok := actions.Correspondence(name); ok {
			s.vectors[i] = motion
		}
		s.secondary[i] = false
	}
	if err := s.jour.RecordModeSwitch(journal.InitiatorReversion, s.mapping()); err != nil {
		log.Printf("[CONTROLLER] journal: %v", err)
	}
	s.printModes()
}

// save distills once more if the policy defers it, flushes memory to
// disk and closes out the session.
func (s *session) save(ctx context.Context) {
	s.wg.Wait()
	if s.cfg.Memory.SummarizeExamples && !s.cfg.Memory.UpdateRules && s.store.ExampleCount() > 0 {
		if err := s.store.Distill(ctx); err != nil {
			log.Printf("[CONTROLLER] final distillation: %v", err)
		}
	}
	if err := s.store.Save(); err != nil {
		log.Printf("[CONTROLLER] save memory: %v", err)
		return
	}
	if err := s.jour.RecordMetric("manual_switch_count", float64(s.manualSwitches)); err != nil {
		log.Printf("[CONTROLLER] journal: %v", err)
	}
	if err := s.jour.EndSession(); err != nil {
		log.Printf("[CONTROLLER] journal: %v", err)
	}
	fmt.Println("session saved")
}

func (s *session) printModes() {
	for i, dir := range directionNames {
		marker := ""
		if s.secondary[i] {
			marker = " (secondary)"
		}
		fmt.Printf("  %-5s -> %s%s\n", dir, s.names[i], marker)
	}
}

func (s *session) printState() {
	snap := s.arm.Snapshot()
	p := snap.Pose
	fmt.Printf("arm: x=%.1f y=%.1f z=%.1f  theta=(%.1f, %.1f, %.1f)  gripper open=%v\n",
		p.X, p.Y, p.Z, p.ThetaX, p.ThetaY, p.ThetaZ, snap.GripperOpen)
	for _, obj := range snap.Objects {
		held := ""
		if obj.Name == snap.Grasped {
			held = " (held)"
		}
		fmt.Printf("  %s: x=%.1f y=%.1f z=%.1f%s\n", obj.Name, obj.Pose.X, obj.Pose.Y, obj.Pose.Z, held)
	}
}

// #endregion session

// #region motion

// applyMotion advances a pose by one scaled motion step. The wire
// ordering carries theta_z at index 4 and a negated, double-gain
// theta_y at index 5; angular gains ride at 100x the linear gain.
func applyMotion(p state.Pose, v actions.MotionVector, scale float64) state.Pose {
	p.X += v[0] * scale
	p.Y += v[1] * scale
	p.Z += v[2] * scale
	p.ThetaX += v[3] * scale * 0.1
	p.ThetaZ += v[4] * scale * 0.1
	p.ThetaY += -v[5] * scale * 0.05
	return p
}

// #endregion motion

// #region main

func main() {
	cfgPath := envOr("MODESWITCH_CONFIG", "")
	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	} else if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid default config: %v", err)
	}
	if cfg.Task == "" {
		cfg.Task = envOr("MODESWITCH_TASK", "pick up the cup and place it on the shelf")
	}

	client := model.NewOpenAIClient(os.Getenv("OPENAI_API_KEY"), cfg.Model)
	builder := prompt.NewBuilder(cfg.Task, cfg.Prompt)

	store, err := memory.NewStore(cfg.Memory, builder, client)
	if err != nil {
		log.Fatalf("failed to open memory: %v", err)
	}
	// Resuming with raw examples but no inherited rules: distill once
	// before the first decision.
	if cfg.Memory.SummarizeExamples && !cfg.Memory.InheritRules && store.ExampleCount() > 0 && store.Rules() == "" {
		if err := store.Distill(context.Background()); err != nil {
			log.Fatalf("failed to distill inherited examples: %v", err)
		}
	}

	poses := make([]state.Pose, len(cfg.ObjectLocations))
	for i, loc := range cfg.ObjectLocations {
		poses[i] = state.Pose{X: loc[0], Y: loc[1], Z: loc[2], ThetaX: loc[3], ThetaY: loc[4], ThetaZ: loc[5]}
	}
	arm, err := state.NewContext(cfg.Objects, poses)
	if err != nil {
		log.Fatalf("failed to build state context: %v", err)
	}

	jour, err := journal.Open(cfg.JournalPath, cfg.Task)
	if err != nil {
		log.Fatalf("failed to open journal: %v", err)
	}
	defer jour.Close()

	bg, stopBg := context.WithCancel(context.Background())
	defer stopBg()

	engine := decision.NewEngine(cfg.Selector, builder, client, store)
	s := &session{cfg: cfg, arm: arm, builder: builder, engine: engine, store: store, jour: jour, bg: bg}

	fmt.Println("Mode switching controller ready.")
	fmt.Printf("  task: %s | model: %s | journal: %s | session: %s\n", cfg.Task, cfg.Model, cfg.JournalPath, jour.SessionID())
	fmt.Println("Commands: decide, exec <dir> [deflection], cycle <dir>, revert, correct <json>, grasp <object>, drop, state, modes, reset, save, quit")

	if err := jour.RecordTaskState("task started"); err != nil {
		log.Printf("[CONTROLLER] journal: %v", err)
	}
	start := time.Now()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		switch cmd {
		case "quit", "exit":
			cancel()
			s.save(context.Background())
			if err := jour.RecordMetric("completion_time_s", time.Since(start).Seconds()); err != nil {
				log.Printf("[CONTROLLER] journal: %v", err)
			}
			return

		case "decide":
			s.decide(ctx)

		case "exec":
			if len(args) == 0 {
				fmt.Println("usage: exec <up|down|left|right> [deflection]")
				break
			}
			deflection := 1.0
			if len(args) > 1 {
				if v, err := strconv.ParseFloat(args[1], 64); err == nil {
					deflection = v
				}
			}
			s.exec(ctx, args[0], deflection)

		case "cycle":
			if len(args) == 0 {
				fmt.Println("usage: cycle <up|down|left|right>")
				break
			}
			s.cycle(args[0])

		case "revert":
			s.revert()

		case "correct":
			if len(args) == 0 {
				fmt.Println("usage: correct <json>")
				break
			}
			if err := s.engine.Correct(ctx, strings.Join(args, " ")); err != nil {
				log.Printf("[CONTROLLER] correction: %v", err)
			}

		case "grasp":
			if len(args) == 0 {
				fmt.Println("usage: grasp <object>")
				break
			}
			if err := arm.Grasp(args[0]); err != nil {
				log.Printf("[CONTROLLER] grasp: %v", err)
				break
			}
			if err := jour.RecordTaskState("grasped " + args[0]); err != nil {
				log.Printf("[CONTROLLER] journal: %v", err)
			}
			if arm.ConsumeGripperChanged() {
				s.decide(ctx)
			}

		case "drop":
			if err := arm.Drop(); err != nil {
				log.Printf("[CONTROLLER] drop: %v", err)
				break
			}
			if err := jour.RecordTaskState("dropped object"); err != nil {
				log.Printf("[CONTROLLER] journal: %v", err)
			}
			if arm.ConsumeGripperChanged() {
				s.decide(ctx)
			}

		case "state":
			s.printState()

		case "modes":
			s.printModes()

		case "reset":
			s.engine.Reset()

		case "save":
			s.save(ctx)

		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
		cancel()
	}
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
