package decision

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/modeswitch/controller/internal/actions"
	"github.com/modeswitch/controller/internal/model"
)

// #region normalization

// Normalize exponentiates the observed label logprobs and rescales
// them into a distribution over exactly those labels. Labels the model
// never surfaced get no share.
func Normalize(slot model.LabelLogprobs) map[string]float64 {
	out := make(map[string]float64, len(slot))
	total := 0.0
	for label, lp := range slot {
		p := math.Exp(lp)
		out[label] = p
		total += p
	}
	for label := range out {
		out[label] /= total
	}
	return out
}

// topTwo returns the two most probable labels of a distribution, tie
// broken by label order so selection is deterministic.
func topTwo(dist map[string]float64) (first, second string) {
	labels := make([]string, 0, len(dist))
	for label := range dist {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if dist[labels[i]] != dist[labels[j]] {
			return dist[labels[i]] > dist[labels[j]]
		}
		return labels[i] < labels[j]
	})
	first = labels[0]
	if len(labels) > 1 {
		second = labels[1]
	}
	return first, second
}

// #endregion normalization

// #region selector

// Selector picks one candidate per plain group from per-slot label
// distributions. It remembers which actions the operator actually
// executed since the last selection and uses them for hysteresis.
type Selector struct {
	mu        sync.Mutex
	threshold float64
	executed  [actions.NumGroups]string
}

// NewSelector creates a selector with the given switch-previous
// threshold.
func NewSelector(threshold float64) *Selector {
	return &Selector{threshold: threshold}
}

// RecordExecuted notes that the named plain action was executed for
// the given zero-based group since the last selection.
func (s *Selector) RecordExecuted(group int, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if group >= 0 && group < actions.NumGroups {
		s.executed[group] = name
	}
}

// Select resolves the label distributions into one outcome per plain
// group. A paired catalog supplies two slots; the mirrored groups of
// each pair reuse the earlier group's label. Executed-action records
// are consumed: they influence this selection only.
func (s *Selector) Select(slots []model.LabelLogprobs, paired bool) ([]Outcome, error) {
	expected := actions.NumGroups
	if paired {
		expected = actions.NumGroups / 2
	}
	if len(slots) != expected {
		return nil, &SchemaViolation{Reason: fmt.Sprintf("expected %d label slots, got %d", expected, len(slots))}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	outcomes := make([]Outcome, 0, actions.NumGroups)
	selected := make([]string, 0, expected)
	for i := 0; i < actions.NumGroups; i++ {
		if paired && i%2 == 1 {
			// Mirror the pair's label onto this group's candidates.
			out, err := resolve(i, selected[i/2], false, nil)
			if err != nil {
				return nil, err
			}
			outcomes = append(outcomes, out)
			continue
		}

		slot := i
		if paired {
			slot = i / 2
		}
		if len(slots[slot]) == 0 {
			return nil, &SchemaViolation{Reason: fmt.Sprintf("empty label slot for group %d", i+1)}
		}
		dist := Normalize(slots[slot])
		first, second := topTwo(dist)

		label := first
		secondary := false
		if prev := s.executed[i]; prev != "" && second != "" {
			_, prevIdx, ok := actions.FindAction(prev)
			if ok && actions.Labels[prevIdx] == first && dist[second] > s.threshold {
				label = second
				secondary = true
			}
		}

		out, err := resolve(i, label, secondary, dist)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, out)
		selected = append(selected, label)
	}

	s.executed = [actions.NumGroups]string{}
	return outcomes, nil
}

// resolve maps a selected label onto the plain catalog for group i.
func resolve(i int, label string, secondary bool, dist map[string]float64) (Outcome, error) {
	labelIdx := indexOf(actions.Labels, label)
	if labelIdx < 0 || labelIdx >= actions.GroupLen(i) {
		return Outcome{}, &SchemaViolation{Reason: fmt.Sprintf("label %q out of range for group %d", label, i+1)}
	}
	name, _ := actions.PlainName(i, labelIdx)
	motion, ok := actions.Correspondence(name)
	if !ok {
		return Outcome{}, fmt.Errorf("no motion command for %q", name)
	}
	return Outcome{
		Group:        actions.GroupKey(i),
		ActionName:   name,
		Label:        label,
		Motion:       motion,
		Secondary:    secondary,
		Distribution: dist,
	}, nil
}

// #endregion selector
