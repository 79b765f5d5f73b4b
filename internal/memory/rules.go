package memory

import (
	"fmt"
	"regexp"
	"strings"
)

// #region rule-text

var ruleStart = regexp.MustCompile(`\d+\.`)
var leadingNumber = regexp.MustCompile(`^\d+`)

// ParseRules splits a distillation reply into its numbered rules. Each
// rule runs from one "N." marker to the next, so surrounding prose
// before the first marker is discarded.
func ParseRules(text string) []string {
	starts := ruleStart.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		return nil
	}
	rules := make([]string, 0, len(starts))
	for i, loc := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		rules = append(rules, text[loc[0]:end])
	}
	return rules
}

// RenumberRules renders a rule list as a contiguous 1..N numbered
// block, rewriting whatever number each rule previously carried.
func RenumberRules(rules []string) string {
	var sb strings.Builder
	for i, rule := range rules {
		renumbered := leadingNumber.ReplaceAllString(strings.TrimSpace(rule), fmt.Sprintf("%d", i+1))
		sb.WriteString(renumbered)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// #endregion rule-text
