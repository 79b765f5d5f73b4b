package actions

// #region labels

// Labels are the letter identifiers assigned to candidate positions.
var Labels = []string{"A", "B", "C", "D"}

// NumGroups is the number of joystick-bound action groups.
const NumGroups = 4

// GroupKey returns the canonical key for a zero-based group index ("Group 1".."Group 4").
func GroupKey(i int) string {
	return groupKeys[i]
}

var groupKeys = []string{"Group 1", "Group 2", "Group 3", "Group 4"}

// #endregion labels

// #region motion-vector

// MotionVector is a 6-dimensional twist command:
// linear x, y, z followed by angular theta_x, theta_z, theta_y
// in the controller's wire ordering. Gripper actions use the
// all-ones / all-negative-ones sentinels instead of a twist.
type MotionVector [6]float64

// #endregion motion-vector

// #region groups

// Plain candidate lists per group. Order defines the letter label:
// index 0 ⇄ A, 1 ⇄ B, 2 ⇄ C, 3 ⇄ D.
var plainGroups = [][]string{
	{"Increase x", "Increase z", "Increase theta x", "Open gripper"},
	{"Decrease x", "Decrease z", "Decrease theta x", "Close gripper"},
	{"Increase y", "Increase theta y", "Increase theta z"},
	{"Decrease y", "Decrease theta y", "Decrease theta z"},
}

// Natural-language equivalents, shown to operators and optionally to the model.
var naturalGroups = [][]string{
	{"Move forward", "Move up", "Pitch up", "Open gripper"},
	{"Move backward", "Move down", "Pitch down", "Close gripper"},
	{"Move left", "Roll left", "Yaw left"},
	{"Move right", "Roll right", "Yaw right"},
}

// Paired-opposite candidate lists: two groups, each entry encoding
// both directions of one physical axis.
var pairedGroups = [][]string{
	{
		"Adjust x (either increase or decrease)",
		"Adjust z (either increase or decrease)",
		"Adjust theta x (either increase or decrease)",
		"Adjust gripper (either open or close)",
	},
	{
		"Adjust y (either increase or decrease)",
		"Adjust theta y (either increase or decrease)",
		"Adjust theta z (either increase or decrease)",
	},
}

var pairedNaturalGroups = [][]string{
	{
		"Either move forward or move backward",
		"Either move up or move down",
		"Either pitch up or pitch down",
		"Either open or close gripper",
	},
	{
		"Either move left or move right",
		"Either roll left or roll right",
		"Either yaw left or yaw right",
	},
}

// #endregion groups

// #region correspondences

// correspondences maps each plain action name to its motion command.
var correspondences = map[string]MotionVector{
	"Increase x":       {1, 0, 0, 0, 0, 0},
	"Decrease x":       {-1, 0, 0, 0, 0, 0},
	"Increase y":       {0, 1, 0, 0, 0, 0},
	"Decrease y":       {0, -1, 0, 0, 0, 0},
	"Increase z":       {0, 0, 1, 0, 0, 0},
	"Decrease z":       {0, 0, -1, 0, 0, 0},
	"Increase theta x": {0, 0, 0, 100, 0, 0},
	"Decrease theta x": {0, 0, 0, -100, 0, 0},
	"Increase theta y": {0, 0, 0, 0, 0, -200},
	"Decrease theta y": {0, 0, 0, 0, 0, 200},
	"Increase theta z": {0, 0, 0, 0, 100, 0},
	"Decrease theta z": {0, 0, 0, 0, -100, 0},
	"Open gripper":     {1, 1, 1, 1, 1, 1},
	"Close gripper":    {-1, -1, -1, -1, -1, -1},
}

// Correspondence returns the motion command for a plain action name.
func Correspondence(name string) (MotionVector, bool) {
	v, ok := correspondences[name]
	return v, ok
}

// #endregion correspondences

// #region catalog

// Catalog is one concrete set of candidate lists presented to the model.
// Keys are ordered; the candidate index within a group defines its label.
type Catalog struct {
	keys       []string
	candidates [][]string
	paired     bool
	natural    bool
}

// Select builds the catalog for the given prompt configuration.
// Without gripper mode the optional fourth candidate is removed from
// the groups that carry it.
func Select(paired, natural, gripperMode bool) Catalog {
	var src [][]string
	switch {
	case paired && natural:
		src = pairedNaturalGroups
	case paired:
		src = pairedGroups
	case natural:
		src = naturalGroups
	default:
		src = plainGroups
	}

	cands := make([][]string, len(src))
	for i, group := range src {
		n := len(group)
		if !gripperMode && n == 4 {
			n = 3
		}
		cands[i] = group[:n:n]
	}

	keys := groupKeys[:len(src)]
	return Catalog{keys: keys, candidates: cands, paired: paired, natural: natural}
}

// Keys returns the ordered group keys of this catalog.
func (c Catalog) Keys() []string {
	return c.keys
}

// Candidates returns the ordered candidate names for a group key.
// Returns nil for an unknown key.
func (c Catalog) Candidates(key string) []string {
	for i, k := range c.keys {
		if k == key {
			return c.candidates[i]
		}
	}
	return nil
}

// CandidatesAt returns the ordered candidate names for a zero-based group index.
func (c Catalog) CandidatesAt(i int) []string {
	return c.candidates[i]
}

// Paired reports whether this catalog uses paired-opposite groups.
func (c Catalog) Paired() bool {
	return c.paired
}

// Natural reports whether this catalog uses natural-language names.
func (c Catalog) Natural() bool {
	return c.natural
}

// #endregion catalog

// #region lookup

// PlainName resolves a (group, candidate) index pair in the plain
// four-group catalog. This is the canonical name used to look up the
// motion command regardless of which catalog the model saw.
func PlainName(group, index int) (string, bool) {
	if group < 0 || group >= len(plainGroups) {
		return "", false
	}
	if index < 0 || index >= len(plainGroups[group]) {
		return "", false
	}
	return plainGroups[group][index], true
}

// NaturalName resolves a (group, candidate) index pair in the
// natural-language four-group catalog.
func NaturalName(group, index int) (string, bool) {
	if group < 0 || group >= len(naturalGroups) {
		return "", false
	}
	if index < 0 || index >= len(naturalGroups[group]) {
		return "", false
	}
	return naturalGroups[group][index], true
}

// FindAction returns the (group, candidate) indices of a plain action name.
func FindAction(name string) (group, index int, ok bool) {
	for g, candidates := range plainGroups {
		for i, candidate := range candidates {
			if candidate == name {
				return g, i, true
			}
		}
	}
	return 0, 0, false
}

// GroupLen returns the number of candidates in a plain group.
func GroupLen(group int) int {
	return len(plainGroups[group])
}

// #endregion lookup
