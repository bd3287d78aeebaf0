package scenario

import (
	"context"
	"math"
	"slices"

	initiativeapi "github.com/louisbranch/initiative/internal/services/initiative/api/grpc/initiative"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/schedule"
)

func (r *Runner) runStep(ctx context.Context, state *scenarioState, step Step) error {
	switch step.Kind {
	case "character":
		return r.runCharacterStep(ctx, step)
	case "encounter":
		return r.runEncounterStep(ctx, state, step)
	case "add", "remove", "advance", "reset", "refresh_speeds", "sync",
		"set_turn_order", "reorder", "change_team", "set_locked_prefix":
		return r.runCommandStep(ctx, state, step)
	case "expect_current":
		return r.runExpectCurrentStep(ctx, state, step)
	case "expect_order":
		return r.runExpectOrderStep(ctx, state, step)
	case "expect_timeline":
		return r.runExpectTimelineStep(ctx, state, step)
	case "expect_next_turn":
		return r.runExpectNextTurnStep(ctx, state, step)
	default:
		return r.failf("unknown step kind %q", step.Kind)
	}
}

func (r *Runner) runCharacterStep(ctx context.Context, step Step) error {
	character := initiativeapi.Character{
		ID:    requiredString(step.Args, "id"),
		Name:  requiredString(step.Args, "name"),
		Level: optionalInt(step.Args, "level", 0),
		Speed: speedStat(step.Args),
	}
	if character.ID == "" || character.Name == "" {
		return r.failf("character id and name are required")
	}
	if _, err := r.client.PutCharacter(ctx, character); err != nil {
		return r.failf("put character %s: %w", character.ID, err)
	}
	return nil
}

func (r *Runner) runEncounterStep(ctx context.Context, state *scenarioState, step Step) error {
	req := initiativeapi.CreateEncounterRequest{
		EncounterID: requiredString(step.Args, "id"),
		Name:        requiredString(step.Args, "name"),
	}
	if value, ok := step.Args["characters"]; ok {
		ids, ok := stringList(value)
		if !ok {
			return r.failf("encounter characters must be a list of ids")
		}
		req.CharacterIDs = ids
	}
	created, err := r.client.CreateEncounter(ctx, req)
	if err != nil {
		return r.failf("create encounter: %w", err)
	}
	state.encounterID = created.ID
	state.revision = created.Revision
	r.logf("encounter %s created with %d combatants", created.ID, len(created.Roster.Combatants))
	return nil
}

func (r *Runner) runCommandStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureEncounter(state, step.Kind); err != nil {
		return err
	}
	cmd := schedule.Command{
		Type:        schedule.CommandType(step.Kind),
		CharacterID: requiredString(step.Args, "id"),
		TargetID:    requiredString(step.Args, "target"),
		Team:        requiredString(step.Args, "team"),
		Position:    optionalInt(step.Args, "position", 0),
		Index:       optionalInt(step.Args, "index", 0),
		Locked:      optionalInt(step.Args, "locked", 0),
	}.Normalize()
	updated, err := r.client.ApplyCommand(ctx, state.encounterID, cmd)
	if err != nil {
		return r.failf("%s: %w", cmd.Type, err)
	}
	state.revision = updated.Revision
	return nil
}

func (r *Runner) runExpectCurrentStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureEncounter(state, step.Kind); err != nil {
		return err
	}
	want, err := r.expectedIDs(step)
	if err != nil {
		return err
	}
	view, err := r.client.SimulateQueue(ctx, state.encounterID, 0)
	if err != nil {
		return r.failf("simulate queue: %w", err)
	}
	var got []string
	if len(view.Groups) > 0 {
		for _, turn := range view.Groups[0].Turns {
			got = append(got, turn.CharacterID)
		}
	}
	if !sameMembers(got, want) {
		return r.assertf("current group = %v, want %v", got, want)
	}
	return nil
}

func (r *Runner) runExpectOrderStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureEncounter(state, step.Kind); err != nil {
		return err
	}
	want, err := r.expectedIDs(step)
	if err != nil {
		return err
	}
	view, err := r.client.SimulateQueue(ctx, state.encounterID, len(want))
	if err != nil {
		return r.failf("simulate queue: %w", err)
	}
	got := make([]string, 0, len(want))
	for _, group := range view.Groups {
		for _, turn := range group.Turns {
			got = append(got, turn.CharacterID)
		}
	}
	if !slices.Equal(got, want) {
		return r.assertf("turn order = %v, want %v", got, want)
	}
	return nil
}

func (r *Runner) runExpectTimelineStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureEncounter(state, step.Kind); err != nil {
		return err
	}
	want, err := r.expectedIDs(step)
	if err != nil {
		return err
	}
	view, err := r.client.ProjectTimeline(ctx, state.encounterID, len(want))
	if err != nil {
		return r.failf("project timeline: %w", err)
	}
	got := make([]string, 0, len(want))
	for _, group := range view.Groups {
		for _, tile := range group.Tiles {
			got = append(got, tile.CharacterID)
		}
	}
	if len(got) > len(want) {
		got = got[:len(want)]
	}
	if !slices.Equal(got, want) {
		return r.assertf("timeline = %v, want %v", got, want)
	}
	return nil
}

func (r *Runner) runExpectNextTurnStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureEncounter(state, step.Kind); err != nil {
		return err
	}
	id := requiredString(step.Args, "id")
	if id == "" {
		return r.failf("%s needs a character id", step.Kind)
	}
	want, ok := readFloat(step.Args, "at")
	if !ok {
		return r.failf("%s %s needs a numeric at", step.Kind, id)
	}
	encounter, err := r.client.GetEncounter(ctx, state.encounterID)
	if err != nil {
		return r.failf("get encounter: %w", err)
	}
	combatant, ok := encounter.Roster.Find(id)
	if !ok {
		return r.assertf("%s is not on the roster", id)
	}
	if math.Abs(combatant.NextTurnAt-want) > nextTurnTolerance {
		return r.assertf("%s next turn = %v, want %v", id, combatant.NextTurnAt, want)
	}
	return nil
}
