package swiftsim

// NewAppWithModules is a convenience constructor chaining NewApp and
// UseModules, for the common case of a caller that has no further
// builder calls to make before Run.
func NewAppWithModules(modules ...Module) *App {
	return NewApp().UseModules(modules...)
}
