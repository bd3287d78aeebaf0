package scenario

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const scenarioTypeName = "scenario"

// Scenario is a named list of steps recorded by a Lua script.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one recorded script call.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadScenarioFromFile runs a Lua script and returns the Scenario it builds.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerLuaTypes(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

func registerLuaTypes(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	state.NewTable()
	lua.SetFunctions(state, scenarioConstructor, 0)
	state.SetGlobal("Scenario")
}

var scenarioConstructor = []lua.RegistryFunction{
	{Name: "new", Function: scenarioNew},
}

func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	state.PushUserData(&Scenario{Name: name})
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "character", Function: scenarioCharacter},
	{Name: "encounter", Function: scenarioEncounter},
	{Name: "add", Function: characterCommand("add")},
	{Name: "remove", Function: characterCommand("remove")},
	{Name: "advance", Function: bareCommand("advance")},
	{Name: "reset", Function: bareCommand("reset")},
	{Name: "refresh_speeds", Function: bareCommand("refresh_speeds")},
	{Name: "sync", Function: scenarioSync},
	{Name: "set_turn_order", Function: scenarioSetTurnOrder},
	{Name: "reorder", Function: scenarioReorder},
	{Name: "change_team", Function: scenarioChangeTeam},
	{Name: "set_locked_prefix", Function: scenarioSetLockedPrefix},
	{Name: "expect_current", Function: expectList("expect_current")},
	{Name: "expect_order", Function: expectList("expect_order")},
	{Name: "expect_timeline", Function: expectList("expect_timeline")},
	{Name: "expect_next_turn", Function: scenarioExpectNextTurn},
}

func scenarioCharacter(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if requiredString(data, "id") == "" {
		lua.Errorf(state, "character id is required")
		return 0
	}
	if requiredString(data, "name") == "" {
		lua.Errorf(state, "character name is required")
		return 0
	}
	appendStep(scenario, "character", data)
	return 0
}

func scenarioEncounter(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if requiredString(data, "name") == "" {
		lua.Errorf(state, "encounter name is required")
		return 0
	}
	appendStep(scenario, "encounter", data)
	return 0
}

func characterCommand(kind string) lua.Function {
	return func(state *lua.State) int {
		scenario := checkScenario(state)
		id := lua.CheckString(state, 2)
		appendStep(scenario, kind, map[string]any{"id": id})
		return 0
	}
}

func bareCommand(kind string) lua.Function {
	return func(state *lua.State) int {
		appendStep(checkScenario(state), kind, nil)
		return 0
	}
}

func scenarioSync(state *lua.State) int {
	scenario := checkScenario(state)
	id := lua.CheckString(state, 2)
	target := lua.CheckString(state, 3)
	appendStep(scenario, "sync", map[string]any{"id": id, "target": target})
	return 0
}

func scenarioSetTurnOrder(state *lua.State) int {
	scenario := checkScenario(state)
	id := lua.CheckString(state, 2)
	position := lua.CheckInteger(state, 3)
	appendStep(scenario, "set_turn_order", map[string]any{"id": id, "position": position})
	return 0
}

func scenarioReorder(state *lua.State) int {
	scenario := checkScenario(state)
	id := lua.CheckString(state, 2)
	index := lua.CheckInteger(state, 3)
	appendStep(scenario, "reorder", map[string]any{"id": id, "index": index})
	return 0
}

func scenarioChangeTeam(state *lua.State) int {
	scenario := checkScenario(state)
	id := lua.CheckString(state, 2)
	team := lua.CheckString(state, 3)
	appendStep(scenario, "change_team", map[string]any{"id": id, "team": team})
	return 0
}

func scenarioSetLockedPrefix(state *lua.State) int {
	scenario := checkScenario(state)
	locked := lua.CheckInteger(state, 2)
	appendStep(scenario, "set_locked_prefix", map[string]any{"locked": locked})
	return 0
}

func expectList(kind string) lua.Function {
	return func(state *lua.State) int {
		scenario := checkScenario(state)
		lua.CheckType(state, 2, lua.TypeTable)
		ids, ok := stringList(tableToGo(state, 2))
		if !ok || len(ids) == 0 {
			lua.Errorf(state, "%s needs a non-empty list of character ids", kind)
			return 0
		}
		appendStep(scenario, kind, map[string]any{"ids": ids})
		return 0
	}
}

func scenarioExpectNextTurn(state *lua.State) int {
	scenario := checkScenario(state)
	id := lua.CheckString(state, 2)
	at := lua.CheckNumber(state, 3)
	appendStep(scenario, "expect_next_turn", map[string]any{"id": id, "at": at})
	return 0
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) {
	if scenario == nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

// tableToGo returns a []any for sequence tables and a map otherwise.
func tableToGo(state *lua.State, index int) any {
	if state.TypeOf(index) != lua.TypeTable {
		return nil
	}

	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}
	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}
