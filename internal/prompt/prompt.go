// Package prompt renders the structured requests sent to the model:
// a fixed objective, a data-structure description matching the
// configured encoding, the action-group task specification, optional
// memory payloads, and the per-cycle state fragment. Rendering is a
// pure function of the snapshot and options.
package prompt

import (
	"fmt"
	"strings"

	"github.com/modeswitch/controller/internal/actions"
	"github.com/modeswitch/controller/internal/config"
)

// #region objective

const objective = `**Objective:**
You will be given task instructions, the current state of the robot arm, and information of objects around. Your goal is to predict the most likely actions out of the specified groups of actions.
`

const objectiveSummarize = `**Objective:**
You will be given examples of task instructions, poses of a robot arm, and information of objects around it.
Your goal is to analyze the examples and summarize the patterns or rules, which will be used to assist another agent to predict the most likely actions out of the specified groups of actions in similar scenarios of the same task.
`

// #endregion objective

// #region builder

// Builder renders prompt segments for one task and option set. The
// static segments are precomputed once; only the current-task segment
// varies per cycle.
type Builder struct {
	task    string
	opts    config.PromptConfig
	catalog actions.Catalog

	dataStructures    string
	taskSpec          string
	taskSpecSummarize string
}

// NewBuilder precomputes the static segments for the given task text
// and prompt options.
func NewBuilder(task string, opts config.PromptConfig) *Builder {
	b := &Builder{
		task:    task,
		opts:    opts,
		catalog: actions.Select(opts.PairedOpposite, opts.NaturalLanguage, opts.GripperMode),
	}
	b.dataStructures = b.buildDataStructures()
	b.taskSpec = b.buildTaskSpecification(false)
	b.taskSpecSummarize = b.buildTaskSpecification(true)
	return b
}

// Catalog returns the candidate catalog this builder renders, which is
// also the catalog the validator must enforce.
func (b *Builder) Catalog() actions.Catalog {
	return b.catalog
}

// Objective returns the prediction objective segment.
func (b *Builder) Objective() string { return objective }

// ObjectiveSummarize returns the distillation objective segment.
func (b *Builder) ObjectiveSummarize() string { return objectiveSummarize }

// DataStructures returns the state/object schema description segment.
func (b *Builder) DataStructures() string { return b.dataStructures }

// TaskSpecification returns the action-group specification segment.
func (b *Builder) TaskSpecification() string { return b.taskSpec }

// TaskSpecificationSummarize returns the action-group segment phrased
// for the distillation conversation.
func (b *Builder) TaskSpecificationSummarize() string { return b.taskSpecSummarize }

// #endregion builder

// #region data-structures

func (b *Builder) buildDataStructures() string {
	var sb strings.Builder
	sb.WriteString("**Data Structures:**\n")
	sb.WriteString("1. **Current State of the Robot Arm:**\n- **Type:** Dictionary\n- **Keys:**")
	if b.opts.UseRobotLocation {
		sb.WriteString(`
    - ` + "`position`" + `: A dictionary indicating the coordinates of the robot arm's position in centimeters.
        - ` + "`x`" + `: The position along the x-axis, an integer value in centimeters.
        - ` + "`y`" + `: The position along the y-axis, an integer value in centimeters.
        - ` + "`z`" + `: The position along the z-axis, an integer value in centimeters.
    - ` + "`orientation`" + `: A dictionary indicating the orientation of the robot arm in degrees.
        - ` + "`theta_x`" + `: The rotation around the x-axis, an integer value in degrees ranging from 0 to 360.
        - ` + "`theta_y`" + `: The rotation around the y-axis, an integer value in degrees ranging from 0 to 360.
        - ` + "`theta_z`" + `: The rotation around the z-axis, an integer value in degrees ranging from 0 to 360.`)
	}
	sb.WriteString("\n    - `")
	sb.WriteString(b.gripperKey())
	sb.WriteString("`: ")
	sb.WriteString(b.gripperDescription())
	sb.WriteString("\n\n2. **Object Information:**\n- **Type:** Dictionary\n- **Keys:** The object type as a string.\n- **Values:**\n    - A dictionary containing:")
	sb.WriteString(b.objectSchema())
	sb.WriteString("\n")

	if b.opts.CoordinateSystemInfo {
		sb.WriteString(`
**Coordinate System:**

- **Frame of Reference:** All poses are in the robot frame, relative to the base position ` +
			"`base_pose = { 'position': [0,0,0], 'orientation': [0,0,0] }`" + `.
`)
	}
	if !b.opts.NaturalLanguage {
		sb.WriteString(directionalInformation)
	}
	if b.opts.OrientationExamples {
		sb.WriteString(orientationExamples)
	}
	return sb.String()
}

func (b *Builder) gripperKey() string {
	if b.opts.NaturalLanguage {
		return "gripper"
	}
	return "gripper opening"
}

func (b *Builder) gripperDescription() string {
	if b.opts.NaturalLanguage {
		return "A string `open` or `closed` indicating whether the gripper is open or closed."
	}
	if b.opts.BinaryGripper {
		return "A boolean value indicating whether the gripper is open or closed. `1` means the gripper is open and `0` means the gripper is closed."
	}
	return fmt.Sprintf("An integer value ranging from 0 to %d, indicating the state of the gripper. `%d` means the gripper is fully open, and `0` means the gripper is fully closed.",
		b.opts.GripperDiscreteNums-1, b.opts.GripperDiscreteNums-1)
}

func (b *Builder) objectSchema() string {
	if b.opts.NaturalLanguage {
		var sb strings.Builder
		sb.WriteString("\n        - `relative_pos`: ")
		if b.opts.HoldingPrompt {
			sb.WriteString(fmt.Sprintf("Either a natural language string %q or \"has been dropped\", or a dictionary with two keys `relative_position` and `relative_orientation`.\n", holdingPhrase))
		} else {
			sb.WriteString("A dictionary with two keys `relative_position` and `relative_orientation`.\n")
		}
		sb.WriteString("\n            For `relative_position`, the dictionary should have three keys ")
		sb.WriteString(fmt.Sprintf("`%s`, `%s`, and `%s`, each containing a natural language string describing the object's position relative to the robot arm in the respective direction. For example:\n",
			relations[0].key, relations[1].key, relations[2].key))
		for i := 0; i < 3; i++ {
			sb.WriteString(fmt.Sprintf("\n            - `%s`: %q or %q or %q", relations[i].key, relations[i].phrases[0], relations[i].phrases[1], relations[i].phrases[2]))
		}
		sb.WriteString("\n\n            For `relative_orientation`, the dictionary should have three keys ")
		sb.WriteString(fmt.Sprintf("`%s`, `%s`, and `%s`, each containing a natural language string describing the object's orientation relative to the robot arm in the respective axis. For example:\n",
			relations[3].key, relations[4].key, relations[5].key))
		for i := 3; i < 6; i++ {
			sb.WriteString(fmt.Sprintf("\n            - `%s`: %q or %q or %q", relations[i].key, relations[i].phrases[0], relations[i].phrases[1], relations[i].phrases[2]))
		}
		return sb.String()
	}
	if b.opts.RelativeObjectPose {
		return `
        - ` + "`relative_position`" + `: A dictionary indicating the coordinates of the object's centroid relative to the robot arm in centimeters.
            - ` + "`x`" + `: The offset position along the x-axis, an integer value in centimeters.
            - ` + "`y`" + `: The offset position along the y-axis, an integer value in centimeters.
            - ` + "`z`" + `: The offset position along the z-axis, an integer value in centimeters.
        - ` + "`relative_orientation`" + `: A dictionary indicating the orientation of the object relative to the robot arm in degrees.
            - ` + "`theta_x`" + `: The offset rotation around the x-axis, an integer value in degrees.
            - ` + "`theta_y`" + `: The offset rotation around the y-axis, an integer value in degrees.
            - ` + "`theta_z`" + `: The offset rotation around the z-axis, an integer value in degrees.`
	}
	return `
        - ` + "`position`" + `: A dictionary indicating the coordinates of the object's position in centimeters.
            - ` + "`x`" + `: The position along the x-axis, an integer value in centimeters.
            - ` + "`y`" + `: The position along the y-axis, an integer value in centimeters.
            - ` + "`z`" + `: The position along the z-axis, an integer value in centimeters.
        - ` + "`orientation`" + `: A dictionary indicating the orientation of the object in degrees.
            - ` + "`theta_x`" + `: The rotation around the x-axis, an integer value in degrees ranging from 0 to 360.
            - ` + "`theta_y`" + `: The rotation around the y-axis, an integer value in degrees ranging from 0 to 360.
            - ` + "`theta_z`" + `: The rotation around the z-axis, an integer value in degrees ranging from 0 to 360.`
}

const directionalInformation = `
**Directional Information:**

- **X-Axis:**
- Positive x: Forward (away from the robot)
- Negative x: Backward (towards the robot)

- **Y-Axis:**
- Positive y: To the left of the robot
- Negative y: To the right of the robot

- **Z-Axis:**
- Positive z: Up
- Negative z: Down

- **Theta X:**
- Positive x: Pitch down
- Negative x: Pitch up

- **Theta Y:**
- Positive y: Roll left
- Negative y: Roll right

- **Theta Z:**
- Positive z: Yaw left
- Negative z: Yaw right
`

const orientationExamples = `
**Orientation Examples:**

1. **Gripper pointing towards positive x (Approaching from front, away from the robot):**
- ` + "`[90, 0, 90]`" + `: Fingers' opening/closing direction aligned with y-axis.
- ` + "`[90, 90/-90, 90]`" + `: Fingers' opening/closing direction aligned with z-axis.

2. **Gripper pointing towards negative z (Approaching from the top):**
- ` + "`[180, 0, 90]`" + `: Fingers' opening/closing direction aligned with y-axis.
- ` + "`[180, 0, 0/180]`" + `: Fingers' opening/closing direction aligned with x-axis.

3. **Gripper pointing towards positive y (Approaching from the right side):**
- ` + "`[90, 0, 180]`" + `: Fingers' opening/closing direction aligned with x-axis.
- ` + "`[90, 90/-90, 180]`" + `: Fingers' opening/closing direction aligned with z-axis.

4. **Gripper pointing towards negative y (Approaching from the left side):**
- ` + "`[90, 0, 0]`" + `: Fingers' opening/closing direction aligned with x-axis.
- ` + "`[90, 90/-90, 0]`" + `: Fingers' opening/closing direction aligned with z-axis.
`

// #endregion data-structures

// #region task-specification

// OutputFormat renders the JSON reply shape the model must produce.
func (b *Builder) OutputFormat() string {
	firstIdentifiers := "A/B/C"
	if b.opts.GripperMode {
		firstIdentifiers = "A/B/C/D"
	}
	if b.opts.PairedOpposite {
		return fmt.Sprintf(`{
    "Group 1": "%s: {corresponding most likely action from group 1}",
    "Group 2": "A/B/C: {corresponding most likely action from group 2}",
}`, firstIdentifiers)
	}
	return fmt.Sprintf(`{
    "Group 1": "%s: {corresponding most likely action from group 1}",
    "Group 2": "%s: {corresponding most likely action from group 2}",
    "Group 3": "A/B/C: {corresponding most likely action from group 3}",
    "Group 4": "A/B/C: {corresponding most likely action from group 4}",
}`, firstIdentifiers, firstIdentifiers)
}

func (b *Builder) buildTaskSpecification(analyzeExamples bool) string {
	additionalIdentifier := ""
	identifiers := "A, B, or C"
	if b.opts.GripperMode {
		if b.opts.PairedOpposite {
			additionalIdentifier = "Group 1 also includes an additional action labeled as D."
			identifiers = "A, B, C, or D for group 1, and A, B, or C for group 2"
		} else {
			additionalIdentifier = "Groups 1 and 2 also include an additional action labeled as D."
			identifiers = "A, B, C, or D for groups 1 and 2, and A, B, or C for groups 3 and 4"
		}
	}

	var groups strings.Builder
	for gi, key := range b.catalog.Keys() {
		groups.WriteString(fmt.Sprintf("\n**%s:**\n", key))
		for i, name := range b.catalog.CandidatesAt(gi) {
			groups.WriteString(fmt.Sprintf("- %s: %s\n", actions.Labels[i], name))
		}
	}

	var head, output string
	if analyzeExamples {
		head = "The task of the agent you are trying to help is to determine the most likely actions from each of the following groups, based on the provided current robot state and object information:"
		output = groups.String()
	} else {
		head = fmt.Sprintf("**Task:**\n\nBased on the provided information and the current task, robot state, and object information, determine the most likely actions from each of the following groups. For each group, the actions are labeled with identifiers A, B, and C for clarity. %s", additionalIdentifier)
		output = fmt.Sprintf(`**Output Requirements:**
Your output should be a dictionary where each key represents a group, and the corresponding value is the most likely action's letter identifier (%s) followed by the corresponding action description. The output should look like this, do not output any additional analysis:

%s
%s
---
`, identifiers, b.OutputFormat(), groups.String())
	}

	return fmt.Sprintf(`%s
---

**Definition of Most Likely Actions:**
Most likely actions refer to the actions that have the highest probability of successfully achieving the task objectives based on the current state of the robot arm, information of objects around, and the specified action groups. These actions should be determined by evaluating the robot's ability to manipulate objects effectively and efficiently according to the given criteria.

---

%s`, head, output)
}

// #endregion task-specification
