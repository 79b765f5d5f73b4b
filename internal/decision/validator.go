package decision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modeswitch/controller/internal/actions"
)

// #region validator

// Validator checks a raw model reply against one action catalog.
type Validator struct {
	catalog actions.Catalog
}

// NewValidator creates a validator for the given catalog.
func NewValidator(catalog actions.Catalog) *Validator {
	return &Validator{catalog: catalog}
}

// Validate parses the reply and checks it names one legal candidate
// per group. The returned map is keyed by the catalog's canonical
// group keys regardless of the casing the model used. A
// natural-language catalog is accepted after the key check alone.
func (v *Validator) Validate(raw string) (map[string]string, error) {
	parsed, err := parseReply(raw)
	if err != nil {
		return nil, err
	}

	canonical, err := v.canonicalize(parsed)
	if err != nil {
		return nil, err
	}
	if v.catalog.Natural() {
		return canonical, nil
	}

	for i, key := range v.catalog.Keys() {
		if err := v.checkEntry(i, canonical[key]); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
	}
	return canonical, nil
}

// parseReply unmarshals the reply, stripping a ```json code fence if
// the model wrapped its answer in one.
func parseReply(raw string) (map[string]string, error) {
	candidates := []string{strings.TrimSpace(raw)}
	if stripped := stripFence(raw); stripped != candidates[0] {
		candidates = append(candidates, stripped)
	}

	for _, text := range candidates {
		var parsed map[string]string
		if err := json.Unmarshal([]byte(text), &parsed); err == nil {
			return parsed, nil
		}
	}
	return nil, &SchemaViolation{Reason: "reply is not a JSON object of strings"}
}

func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if idx := strings.LastIndex(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// canonicalize enforces case-insensitive key-set equality with the
// catalog and rewrites the entries onto the canonical keys.
func (v *Validator) canonicalize(parsed map[string]string) (map[string]string, error) {
	keys := v.catalog.Keys()
	if len(parsed) != len(keys) {
		return nil, &SchemaViolation{Reason: fmt.Sprintf("expected %d groups, got %d", len(keys), len(parsed))}
	}

	lowered := make(map[string]string, len(parsed))
	for k, val := range parsed {
		lowered[strings.ToLower(k)] = val
	}
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		val, ok := lowered[strings.ToLower(key)]
		if !ok {
			return nil, &SchemaViolation{Reason: fmt.Sprintf("missing group %q", key)}
		}
		out[key] = val
	}
	return out, nil
}

// checkEntry verifies one "<label>: <name>" entry against group i of
// the catalog: the name must be a candidate of the group
// (case-insensitively) and the label must address the exact position
// the name occupies.
func (v *Validator) checkEntry(i int, entry string) error {
	parts := strings.SplitN(entry, ": ", 2)
	if len(parts) != 2 {
		return &SchemaViolation{Reason: fmt.Sprintf("entry %q is not of the form \"<label>: <name>\"", entry)}
	}
	label, name := parts[0], parts[1]

	candidates := v.catalog.CandidatesAt(i)
	member := false
	for _, candidate := range candidates {
		if strings.EqualFold(candidate, name) {
			member = true
			break
		}
	}
	if !member {
		return &SchemaViolation{Reason: fmt.Sprintf("%q is not a candidate of the group", name)}
	}

	nameIdx := indexOf(candidates, name)
	if nameIdx < 0 {
		return &SchemaViolation{Reason: fmt.Sprintf("candidate casing mismatch in %q", entry)}
	}
	labelIdx := indexOf(actions.Labels, label)
	if labelIdx < 0 || labelIdx != nameIdx {
		return &SchemaViolation{Reason: fmt.Sprintf("label %q does not address %q", label, name)}
	}
	return nil
}

func indexOf(list []string, want string) int {
	for i, v := range list {
		if v == want {
			return i
		}
	}
	return -1
}

// #endregion validator
