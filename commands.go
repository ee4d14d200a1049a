package swiftsim

import "reflect"

// Commands is the handle systems and modules use to reach back into the
// App: registering resources and reading the current step number.
type Commands struct {
	app *App
}

// AddResources registers one or more pointer-typed resources, each keyed
// by its pointed-to type. Registering the same type twice panics.
func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

// Step returns the index (0-based) of the step currently executing.
func (cmd *Commands) Step() int {
	return cmd.app.stepNo
}

// Resource looks up a resource by pointer type without going through a
// system's reflected parameter list; useful from non-system glue code
// such as cmd/swiftsim-run.
func Resource[T any](app *App) *T {
	var zero T
	t := reflect.TypeOf(zero)
	res, ok := app.resources[t]
	if !ok {
		panic("resource not registered: " + t.String())
	}
	return res.(*T)
}
