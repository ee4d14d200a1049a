package swiftsim

import (
	"fmt"
	"slices"
)

type systemFn = System

// systemScheduleBuilder accumulates a system's placement before it is
// handed to App.UseSystem, so modules read the same way the teacher's
// System(fn).InStage(stage) chains do.
type systemScheduleBuilder struct {
	inStage Stage
	system  systemFn
}

// System begins a schedule-builder chain for fn, defaulting to
// StageExecute.
func System(fn systemFn) systemScheduleBuilder {
	return systemScheduleBuilder{system: fn, inStage: StageExecute}
}

// InStage places the system in the given stage.
func (sched systemScheduleBuilder) InStage(s Stage) systemScheduleBuilder {
	sched.inStage = s
	return sched
}

type stagePosition int

const (
	stageBefore stagePosition = iota
	stageAfter
)

type stagePositionBuilder struct {
	position stagePosition
	target   Stage
}

// BeforeStage and AfterStage position a stage inserted via
// App.InsertStage relative to an existing one.
func BeforeStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{position: stageBefore, target: s}
}

func AfterStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{position: stageAfter, target: s}
}

// InsertStage splices a stage into the pipeline relative to an existing
// stage, for modules that need a phase the core pipeline doesn't define
// (e.g. a cooling stage between Execute and Reduce).
func (app *App) InsertStage(stage Stage, where stagePositionBuilder) *App {
	idx := -1
	for i, s := range app.stages {
		if s.Name == where.target.Name {
			idx = i
			break
		}
	}
	if idx == -1 {
		panic(fmt.Sprintf("stage %v not found", where.target.Name))
	}

	insertAt := idx
	if where.position == stageAfter {
		insertAt = idx + 1
	}
	app.stages = slices.Insert(app.stages, insertAt, stage)
	return app
}
