package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// #region errors

// InconsistencyError reports a configuration whose options contradict
// each other. Rejected at construction time, never at cycle time.
type InconsistencyError struct {
	Reason string
}

func (e *InconsistencyError) Error() string {
	return "config inconsistency: " + e.Reason
}

// #endregion errors

// #region prompt-config

// PromptConfig enumerates every recognized prompt-rendering option and
// its effect. Each switch changes the rendered request and, for the
// first three, the answer schema the validator enforces.
type PromptConfig struct {
	// NaturalLanguage renders action names and object relations as
	// phrases instead of numeric axis adjustments. Relaxes validation
	// to the group-key check only.
	NaturalLanguage bool `json:"natural_language"`
	// PairedOpposite collapses the four unidirectional groups into two
	// groups whose entries encode both directions of one axis.
	PairedOpposite bool `json:"paired_opposite"`
	// GripperMode adds the fourth (gripper) candidate to the groups
	// that carry it.
	GripperMode bool `json:"gripper_mode"`

	UseRobotLocation     bool `json:"use_robot_location"`
	RelativeObjectPose   bool `json:"relative_object_pose"`
	HoldingPrompt        bool `json:"holding_prompt"`
	OrientationExamples  bool `json:"orientation_examples"`
	CoordinateSystemInfo bool `json:"coordinate_system_info"`

	// BinaryGripper renders the gripper as open/closed; otherwise an
	// integer in [0, GripperDiscreteNums).
	BinaryGripper       bool `json:"binary_gripper"`
	GripperDiscreteNums int  `json:"gripper_discrete_nums"`

	// PositionApproximate / OrientationApproximate are the rounding
	// granularities (cm / degrees) applied to rendered values. They
	// double as the "close to" band for natural-language relations.
	PositionApproximate    float64 `json:"position_approximate"`
	OrientationApproximate float64 `json:"orientation_approximate"`
	// Decimal keeps that many decimal places. Non-zero only makes
	// sense with unit granularity.
	Decimal int `json:"decimal"`
}

// #endregion prompt-config

// #region selector-config

// SelectorConfig tunes the mode selector and the retry bound.
type SelectorConfig struct {
	// SwitchPreviousThreshold is the probability the second candidate
	// must exceed before it displaces a repeat of the last executed
	// action.
	SwitchPreviousThreshold float64 `json:"switch_previous_threshold"`
	// MaxAttempts bounds validation retries per decision cycle.
	MaxAttempts int `json:"max_attempts"`
}

// #endregion selector-config

// #region memory-config

// MemoryConfig tunes example collection and rule distillation.
type MemoryConfig struct {
	UseExamples       bool `json:"use_examples"`
	Shuffle           bool `json:"shuffle"`
	SummarizeExamples bool `json:"summarize_examples"`
	UpdateRules       bool `json:"update_rules"`
	InheritRules      bool `json:"inherit_rules"`
	AllRules          bool `json:"all_rules"`
	OneRulePerExample bool `json:"one_rule_per_example"`
	// SampleAllExamples > 0 distills from a random subsample of at
	// most that many examples instead of the full sequence.
	SampleAllExamples int `json:"sample_all_examples"`

	// Dir is the root directory for the example and rule file pairs.
	Dir string `json:"dir"`
}

// #endregion memory-config

// #region config

// Config is the full controller configuration.
type Config struct {
	Task     string `json:"task"`
	TaskName string `json:"task_name"`
	Model    string `json:"model"`

	Objects         []string    `json:"objects"`
	ObjectLocations [][]float64 `json:"object_locations"`

	Prompt   PromptConfig   `json:"prompt"`
	Selector SelectorConfig `json:"selector"`
	Memory   MemoryConfig   `json:"memory"`

	JournalPath string `json:"journal_path"`
}

// Default returns a config with the reference option values.
func Default() Config {
	return Config{
		Model: "gpt-4o",
		Prompt: PromptConfig{
			GripperMode:            true,
			UseRobotLocation:       true,
			RelativeObjectPose:     true,
			BinaryGripper:          true,
			GripperDiscreteNums:    2,
			PositionApproximate:    1,
			OrientationApproximate: 1,
		},
		Selector: SelectorConfig{
			SwitchPreviousThreshold: 0.3,
			MaxAttempts:             5,
		},
		Memory: MemoryConfig{
			UseExamples: true,
			Shuffle:     true,
			UpdateRules: true,
			Dir:         "memory",
		},
		JournalPath: "journal.db",
	}
}

// Load reads a JSON config file and validates it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects option combinations the renderer and selector
// cannot honor.
func (c Config) Validate() error {
	p := c.Prompt
	if p.Decimal < 0 {
		return &InconsistencyError{Reason: "decimal must be >= 0"}
	}
	if p.Decimal > 0 && (p.PositionApproximate != 1 || p.OrientationApproximate != 1) {
		return &InconsistencyError{Reason: "decimal rounding requires unit approximation granularity"}
	}
	if p.PositionApproximate <= 0 || p.OrientationApproximate <= 0 {
		return &InconsistencyError{Reason: "approximation granularities must be positive"}
	}
	if !p.BinaryGripper && p.GripperDiscreteNums < 2 {
		return &InconsistencyError{Reason: "discrete gripper needs at least 2 states"}
	}
	if c.Selector.SwitchPreviousThreshold < 0 || c.Selector.SwitchPreviousThreshold > 1 {
		return &InconsistencyError{Reason: "switch threshold must lie in [0,1]"}
	}
	if c.Selector.MaxAttempts < 1 {
		return &InconsistencyError{Reason: "max attempts must be at least 1"}
	}
	if c.Memory.SampleAllExamples < 0 {
		return &InconsistencyError{Reason: "example sample size must be >= 0"}
	}
	if len(c.Objects) != len(c.ObjectLocations) {
		return &InconsistencyError{Reason: "objects and object_locations must align"}
	}
	for i, loc := range c.ObjectLocations {
		if len(loc) != 6 {
			return &InconsistencyError{Reason: fmt.Sprintf("object_locations[%d] must have 6 components", i)}
		}
	}
	return nil
}
