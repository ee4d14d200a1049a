// Package swiftsim wires the cell tree, lock manager, drift engine,
// multipole maintainer, task activator and step reducer into a single
// per-rank engine driven by a small staged scheduler.
package swiftsim

import (
	"fmt"
	"reflect"
	"runtime"
	"time"
)

// Stage is one phase of a simulation step. Systems registered against a
// stage run in registration order before the engine advances to the next
// stage.
type Stage struct {
	Name string
}

// The fixed step pipeline. Unlike a game loop's render stages, these map
// onto the six core components: Rebuild decides whether the tree must be
// rebuilt before this step proceeds, Drift/Activate/Execute drive the task
// graph, and Reduce closes the step by combining per-rank outcomes.
var (
	StageRebuild  = Stage{Name: "Rebuild"}
	StageDrift    = Stage{Name: "Drift"}
	StageActivate = Stage{Name: "Activate"}
	StageExecute  = Stage{Name: "Execute"}
	StageReduce   = Stage{Name: "Reduce"}
)

var defaultStages = []Stage{StageRebuild, StageDrift, StageActivate, StageExecute, StageReduce}

// System is any function whose parameters are pointers to either
// *Commands or a registered resource type. Arguments are resolved by
// reflection when the system runs.
type System any

// Module installs resources and systems into an App at build time.
type Module interface {
	Install(app *App, cmd *Commands)
}

// App is the engine harness: a resource registry plus a staged system
// schedule, built once from a set of Modules and then run for a fixed
// number of steps.
type App struct {
	resources map[reflect.Type]any
	stages    []Stage
	systems   map[string][]System
	modules   []Module
	built     bool
	stepNo    int
}

// NewApp returns an empty, unbuilt App.
func NewApp() *App {
	return &App{
		resources: make(map[reflect.Type]any),
		systems:   make(map[string][]System),
	}
}

// UseModules queues modules to be installed on Build.
func (app *App) UseModules(modules ...Module) *App {
	app.modules = append(app.modules, modules...)
	return app
}

// UseStage appends a custom stage after the core pipeline, for callers
// that need an extra phase (e.g. cooling or checkpoint I/O) without
// disturbing the core's stage order.
func (app *App) UseStage(stage Stage) *App {
	app.stages = append(app.stages, stage)
	return app
}

// UseSystem registers a system function against a stage.
func (app *App) UseSystem(sys systemScheduleBuilder) *App {
	app.systems[sys.inStage.Name] = append(app.systems[sys.inStage.Name], sys.system)
	return app
}

// Build installs the default step pipeline stages, then runs every
// queued module's Install. Build is idempotent; Run calls it automatically.
func (app *App) Build() *App {
	if app.built {
		return app
	}
	app.stages = append(append([]Stage{}, defaultStages...), app.stages...)
	for _, s := range app.stages {
		if _, ok := app.systems[s.Name]; !ok {
			app.systems[s.Name] = nil
		}
	}
	cmd := &Commands{app: app}
	for _, m := range app.modules {
		m.Install(app, cmd)
	}
	app.built = true
	return app
}

// Run builds the app if necessary and executes `steps` full passes over
// the stage pipeline in order.
func (app *App) Run(steps int) {
	app.Build()
	for i := 0; i < steps; i++ {
		app.stepNo = i
		for _, stage := range app.stages {
			app.runStage(stage)
		}
	}
}

func (app *App) runStage(stage Stage) {
	for _, sys := range app.systems[stage.Name] {
		app.callSystem(sys)
	}
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}
		app.resources[resourceType.Elem()] = resource
	}
	return app
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystem(sys System) {
	start := time.Now()
	app.callSystemInternal(sys)
	if log := app.Logger(); log.DebugEnabled() {
		log.Debugf("system %s: %dus", runtime.FuncForPC(reflect.ValueOf(sys).Pointer()).Name(), time.Since(start).Microseconds())
	}
}

// callSystemInternal resolves each parameter of sys by pointer type: a
// *Commands parameter gets this app's command handle, any other pointer
// type is looked up in the resource registry. Unresolvable dependencies
// panic, matching the teacher's fail-fast system wiring.
func (app *App) callSystemInternal(sys System) {
	sysType := reflect.TypeOf(sys)
	sysValue := reflect.ValueOf(sys)

	args := make([]reflect.Value, sysType.NumIn())
	for i := 0; i < sysType.NumIn(); i++ {
		argType := sysType.In(i)
		elem := argType.Elem()

		if elem == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
			continue
		}
		resource, ok := app.resources[elem]
		if !ok {
			panic(fmt.Sprintf("unable to resolve system dependency\nsystem: %s\ndependency: %s",
				runtime.FuncForPC(sysValue.Pointer()).Name(), argType))
		}
		args[i] = reflect.ValueOf(resource)
	}
	sysValue.Call(args)
}
