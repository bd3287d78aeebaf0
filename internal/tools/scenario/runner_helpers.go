package scenario

import (
	"slices"
	"strings"

	"github.com/louisbranch/initiative/internal/services/initiative/domain/roster"
)

// nextTurnTolerance absorbs float noise in expect_next_turn comparisons.
const nextTurnTolerance = 1e-6

func (r *Runner) failf(format string, args ...any) error {
	return r.assertions.Failf(format, args...)
}

func (r *Runner) assertf(format string, args ...any) error {
	return r.assertions.Assertf(format, args...)
}

func (r *Runner) ensureEncounter(state *scenarioState, kind string) error {
	if state.encounterID == "" {
		return r.failf("%s requires an encounter step first", kind)
	}
	return nil
}

// expectedIDs reads the non-empty id list of an expectation step.
func (r *Runner) expectedIDs(step Step) ([]string, error) {
	ids, ok := stringList(step.Args["ids"])
	if !ok || len(ids) == 0 {
		return nil, r.failf("%s needs a non-empty list of character ids", step.Kind)
	}
	return ids, nil
}

func requiredString(args map[string]any, key string) string {
	value, ok := args[key]
	if !ok {
		return ""
	}
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}

func optionalString(args map[string]any, key, fallback string) string {
	if text := requiredString(args, key); text != "" {
		return text
	}
	return fallback
}

func readFloat(args map[string]any, key string) (float64, bool) {
	value, ok := args[key]
	if !ok {
		return 0, false
	}
	switch typed := value.(type) {
	case int:
		return float64(typed), true
	case float64:
		return typed, true
	default:
		return 0, false
	}
}

func optionalInt(args map[string]any, key string, fallback int) int {
	value, ok := readFloat(args, key)
	if !ok {
		return fallback
	}
	return int(value)
}

// stringList converts a Lua sequence of strings.
func stringList(value any) ([]string, bool) {
	switch typed := value.(type) {
	case []string:
		return typed, true
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			text, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, text)
		}
		return out, true
	default:
		return nil, false
	}
}

// speedStat reads a speed given as a bare number or as a
// {base, bonus, gain} table. It returns nil when no speed is set.
func speedStat(args map[string]any) *roster.SpeedStat {
	value, ok := args["speed"]
	if !ok {
		return nil
	}
	switch typed := value.(type) {
	case int:
		return &roster.SpeedStat{Base: float64(typed)}
	case float64:
		return &roster.SpeedStat{Base: typed}
	case map[string]any:
		stat := &roster.SpeedStat{}
		stat.Base, _ = readFloat(typed, "base")
		stat.Bonus, _ = readFloat(typed, "bonus")
		stat.Gain, _ = readFloat(typed, "gain")
		return stat
	default:
		return nil
	}
}

func sameMembers(got, want []string) bool {
	a := slices.Clone(got)
	b := slices.Clone(want)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}
