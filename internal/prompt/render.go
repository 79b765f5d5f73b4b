package prompt

import (
	"fmt"
	"strings"

	"github.com/modeswitch/controller/internal/state"
)

// #region current-task

// CurrentTask renders the per-cycle state fragment eliciting a fresh
// prediction.
func (b *Builder) CurrentTask(snap state.Snapshot) string {
	final := fmt.Sprintf("- **Output (do not output any additional analysis):**\n%s", b.OutputFormat())
	return b.renderTask(snap, "### Current Task, Robot Arm State, and Object Information:", final)
}

// Example renders the same fragment as a corrected training example:
// the state the operator saw, paired with the selection they chose.
func (b *Builder) Example(snap state.Snapshot, output string, index int) string {
	first := fmt.Sprintf("**Example %d:**", index)
	final := fmt.Sprintf("- **Most Likely Action(s):**\n%s", output)
	return b.renderTask(snap, first, final)
}

func (b *Builder) renderTask(snap state.Snapshot, firstLine, finalPrompt string) string {
	var sb strings.Builder
	sb.WriteString(firstLine)
	sb.WriteString("\n\n- **Current Task:** ")
	sb.WriteString(b.task)
	sb.WriteString("\n\n- **Current State of the Robot Arm:**\n{")
	sb.WriteString(b.robotStateBody(snap))
	sb.WriteString("\n}\n\n- **Current Object Information:**\n{")
	sb.WriteString(b.objectBody(snap))
	sb.WriteString("\n}\n\n")
	sb.WriteString(finalPrompt)
	sb.WriteString("\n")
	return sb.String()
}

func (b *Builder) robotStateBody(snap state.Snapshot) string {
	var sb strings.Builder
	if b.opts.UseRobotLocation {
		p := b.opts
		sb.WriteString(fmt.Sprintf(`
    "position": {
        "x": %s,
        "y": %s,
        "z": %s
    },
    "orientation": {
        "theta x": %s,
        "theta y": %s,
        "theta z": %s
    },`,
			approximateNum(snap.Pose.X, p.PositionApproximate, p.Decimal),
			approximateNum(snap.Pose.Y, p.PositionApproximate, p.Decimal),
			approximateNum(snap.Pose.Z, p.PositionApproximate, p.Decimal),
			approximateNum(snap.Pose.ThetaX, p.OrientationApproximate, p.Decimal),
			approximateNum(snap.Pose.ThetaY, p.OrientationApproximate, p.Decimal),
			approximateNum(snap.Pose.ThetaZ, p.OrientationApproximate, p.Decimal)))
	}
	sb.WriteString(fmt.Sprintf("\n    %q: %s", b.gripperKey(), b.gripperValue(snap.GripperOpen)))
	return sb.String()
}

func (b *Builder) gripperValue(open bool) string {
	if b.opts.NaturalLanguage {
		if open {
			return "open"
		}
		return "closed"
	}
	if open {
		return "1"
	}
	return "0"
}

// #endregion current-task

// #region object-rendering

func (b *Builder) objectBody(snap state.Snapshot) string {
	var sb strings.Builder
	for _, obj := range snap.Objects {
		switch {
		case b.opts.NaturalLanguage:
			sb.WriteString(b.naturalObjectEntry(snap, obj))
		case b.opts.RelativeObjectPose:
			sb.WriteString(b.numericObjectEntry(obj, &snap.Pose))
		default:
			sb.WriteString(b.numericObjectEntry(obj, nil))
		}
	}
	return sb.String()
}

func (b *Builder) naturalObjectEntry(snap state.Snapshot, obj state.ObjectPose) string {
	if b.opts.HoldingPrompt && obj.Name == snap.Grasped {
		phrase := strings.ReplaceAll(holdingPhrase, "object", obj.Name)
		return fmt.Sprintf("\n    %q: {\n        \"relative_pos\": %q,\n    },", obj.Name, phrase)
	}
	if b.opts.HoldingPrompt && obj.Name == snap.Dropped {
		return fmt.Sprintf("\n    %q: {\n        \"relative_pos\": \"has been dropped\",\n    },", obj.Name)
	}

	phrases := make([]string, 6)
	for i := 0; i < 6; i++ {
		approximate := b.opts.PositionApproximate
		if i >= 3 {
			approximate = b.opts.OrientationApproximate
		}
		phrases[i] = spatialPhrase(obj.Pose.Component(i), snap.Pose.Component(i), relations[i], approximate)
	}
	return fmt.Sprintf(`
    %q: {
        "relative_pos": {
            "relative_position": {
                %q: %q,
                %q: %q,
                %q: %q,
            },
            "relative_orientation": {
                %q: %q,
                %q: %q,
                %q: %q,
            },
        }
    },`,
		obj.Name,
		relations[0].key, phrases[0],
		relations[1].key, phrases[1],
		relations[2].key, phrases[2],
		relations[3].key, phrases[3],
		relations[4].key, phrases[4],
		relations[5].key, phrases[5])
}

// numericObjectEntry renders absolute coordinates when arm is nil,
// offsets from the arm pose otherwise.
func (b *Builder) numericObjectEntry(obj state.ObjectPose, arm *state.Pose) string {
	p := b.opts
	component := func(i int) float64 {
		if arm == nil {
			return obj.Pose.Component(i)
		}
		return obj.Pose.Component(i) - arm.Component(i)
	}
	posKey, oriKey := "position", "orientation"
	if arm != nil {
		posKey, oriKey = "relative_position", "relative_orientation"
	}
	return fmt.Sprintf(`
    %q: {
        %q: {
            "x": %s,
            "y": %s,
            "z": %s
        },
        %q: {
            "theta x": %s,
            "theta y": %s,
            "theta z": %s
        }
    },`,
		obj.Name,
		posKey,
		approximateNum(component(0), p.PositionApproximate, p.Decimal),
		approximateNum(component(1), p.PositionApproximate, p.Decimal),
		approximateNum(component(2), p.PositionApproximate, p.Decimal),
		oriKey,
		approximateNum(component(3), p.OrientationApproximate, p.Decimal),
		approximateNum(component(4), p.OrientationApproximate, p.Decimal),
		approximateNum(component(5), p.OrientationApproximate, p.Decimal))
}

// #endregion object-rendering

// #region memory-segments

// ExamplesSection wraps the concatenated example blocks. In the
// prediction conversation it also reminds the model that examples may
// cover only some groups.
func (b *Builder) ExamplesSection(all string, analyzeExamples bool) string {
	pre := ""
	if !analyzeExamples {
		pre = "\nEach example below will only provide the most likely action(s) for one or some of the groups. You should use this format to understand how to predict actions for all groups. Your output should always include the most likely action for ALL four groups."
	}
	return fmt.Sprintf("### Examples:%s\n%s\n", pre, all)
}

// ProvidedRules wraps distilled rules for injection into a prediction
// conversation.
func (b *Builder) ProvidedRules(rules string) string {
	return fmt.Sprintf(`Below are a set of rules derived from previous examples. These rules summarize the patterns identified between task information, robot arm's state, object information, and the chosen actions. Your task is to apply these rules to predict the most likely actions out of the specified groups for the current situation.

%s
`, rules)
}

// SummaryRules returns the distillation instruction: the single-example
// variant asks for one rule, the full variant for a numbered list.
func (b *Builder) SummaryRules(single bool) string {
	if single {
		return summarizeSingleExample
	}
	return summaryRules
}

const summaryRules = `**Summary Task:**

You have been provided with several examples that contain robot arm states, object information, and the corresponding actions that were determined as the most likely. Your goal is to analyze these examples and summarize the underlying patterns or rules that can be applied to predict the most likely actions in similar situations. These rules should take into account the relative positions and orientations of the robot arm and objects.

**Instructions:**

1. **Analyze the Examples:**
- Review each example carefully.
- Identify the relationship between the task information, robot arm's states, object information, and the chosen actions.
- Avoid referring to examples by number (e.g., "Example x"). Focus on describing the relationships between the objects and the robot arm in terms of position, orientation, and gripper state.

2. **Identify Patterns:**
- Determine the common factors that influence the selection of each action group.
- Specify the conditions under which a particular action is preferred, referencing specific object names rather than using broad terms like "object" or "target object".
- Describe how each object's position and orientation relative to the robot arm influences the chosen action. If necessary, include the gripper state of the robot arm in these rules.

3. **Summarize the Rules:**
- Formulate clear and concise rules that capture the patterns you've identified.
- Ensure that the rules are specific, mentioning the relationships between the robot's position, orientation, gripper state, and the (relative) positions and orientations of all relevant objects.
- Avoid vague language; all terms should be well-defined based on the examples provided. Do not reference examples by number, instead use specific positional and orientational details to justify the rules.

**Output Format:**

- Your output should be a list of summarized rules.
- Each rule should be clearly stated and should include references to the specific objects involved, the relationships between the robot's position, orientation, gripper state, and the (relative) positions and orientations of all relevant objects. The rules should be actionable and applicable to similar scenarios.

**Note:**
The rules you generate will be used to inform the AI agent's decision-making process, so they should be both comprehensive and actionable.
`

const summarizeSingleExample = `**Summary Task:**

You have been provided with an example that contain robot arm states, object information, and the corresponding action(s) that were determined as the most likely. Your goal is to analyze the example and summarize an underlying pattern or rule that can be applied to predict the most likely actions in similar situations. The rule should take into account the relative positions and orientations of the robot arm and objects.

**Instructions:**

1. **Analyze the Example:**
- Review the example carefully.
- Identify the relationship between the task information, robot arm's states, object information, and the chosen actions.
- Avoid referring to examples by number (e.g., "Example x"). Focus on describing the relationships between the objects and the robot arm in terms of position, orientation, and gripper state.

2. **Identify Patterns:**
- Determine the factors that influence the selection of each action group.
- Specify the conditions under which a particular action is preferred, referencing specific object names rather than using broad terms like "object" or "target object".
- Describe how each object's position and orientation relative to the robot arm influences the chosen action. If necessary, include the gripper state of the robot arm in these rules.

3. **Summarize the Rule:**
- Formulate a clear and concise rule that capture the patterns you've identified.
- Ensure that the rule is specific, mentioning the relationships between the robot's position, orientation, gripper state, and the (relative) positions and orientations of all relevant objects.
- Avoid vague language; all terms should be well-defined based on the example provided. Do not reference the example by number, instead use specific positional and orientational details to justify the rules.

**Output Format:**

- Your output should be a single summarized rule.
- The rule should be clearly stated and should include references to the specific objects involved, the relationships between the robot's position, orientation, gripper state, and the (relative) positions and orientations of all relevant objects. The rule should be actionable and applicable to similar scenarios.

**Note:**
The rule you generate will be used to inform the AI agent's decision-making process, so they should be both comprehensive and actionable.
`

// #endregion memory-segments
