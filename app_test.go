package swiftsim

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

func TestApp_addResources(t *testing.T) {
	app := &App{
		resources: make(map[reflect.Type]any),
	}

	resource1 := &MockResource1{name: "Resource1"}
	app.addResources(resource1)

	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem(), "Resource1 should be in resources map.")

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})

	resource2 := &MockResource2{name: "Resource2"}
	app.addResources(resource2)

	assert.Contains(t, app.resources, reflect.TypeOf(resource2).Elem(), "Resource2 should be in resources map.")
}

func TestApp_Run_CallsSystemsInStageOrder(t *testing.T) {
	var order []string
	app := NewApp()
	app.UseSystem(System(func(cmd *Commands) { order = append(order, "rebuild") }).InStage(StageRebuild))
	app.UseSystem(System(func(cmd *Commands) { order = append(order, "drift") }).InStage(StageDrift))
	app.UseSystem(System(func(cmd *Commands) { order = append(order, "reduce") }).InStage(StageReduce))

	app.Run(1)

	assert.Equal(t, []string{"rebuild", "drift", "reduce"}, order)
}

func TestApp_Run_MultipleSteps(t *testing.T) {
	count := 0
	app := NewApp()
	app.UseSystem(System(func(cmd *Commands) { count++ }).InStage(StageExecute))

	app.Run(3)

	assert.Equal(t, 3, count)
}

func TestApp_callSystem_ResolvesResource(t *testing.T) {
	app := NewApp()
	app.addResources(&MockResource1{name: "hello"})

	var seen string
	app.callSystem(func(r *MockResource1) { seen = r.name })

	assert.Equal(t, "hello", seen)
}

func TestApp_callSystem_PanicsOnUnresolvedDependency(t *testing.T) {
	app := NewApp()
	require.Panics(t, func() {
		app.callSystem(func(r *MockResource1) {})
	})
}

func TestCommands_Resource(t *testing.T) {
	app := NewApp()
	app.addResources(&MockResource1{name: "x"})

	got := Resource[MockResource1](app)
	assert.Equal(t, "x", got.name)
}
