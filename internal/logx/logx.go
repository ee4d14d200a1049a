// Package logx defines the Logger capability internal packages accept,
// mirroring the root package's Logger interface (github.com/go-gl-style
// dependency injection would make every internal package import the root
// package; instead they depend on this narrow structural interface, which
// the root swiftsim.Logger implementations satisfy without any import).
package logx

// Logger is satisfied by swiftsim.Logger (same method set) and by Nop.
type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nop struct{}

// Nop is a Logger that discards everything, used as the default when a
// core component is constructed without an explicit Logger.
var Nop Logger = nop{}

func (nop) DebugEnabled() bool                { return false }
func (nop) SetDebug(enabled bool)             {}
func (nop) Debugf(format string, args ...any) {}
func (nop) Infof(format string, args ...any)  {}
func (nop) Warnf(format string, args ...any)  {}
func (nop) Errorf(format string, args ...any) {}
