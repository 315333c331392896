// Package xlog provides the single process-wide logger the engine's
// components log through, wrapping github.com/go-kratos/kratos/v2/log
// the same way the Binary Loader's own file.go already does.
package xlog

import (
	"os"

	"github.com/go-kratos/kratos/v2/log"
)

var (
	base  log.Logger = log.NewStdLogger(os.Stdout)
	level            = log.LevelInfo
)

// SetLevel adjusts the process-wide verbosity filter used by every
// subsequent For call.
func SetLevel(l log.Level) {
	level = l
}

// For returns a component-scoped helper carrying a "component" key, the
// way the teacher's cmd/dump.go tags its own log lines.
func For(component string) *log.Helper {
	filtered := log.NewFilter(base, log.FilterLevel(level))
	return log.NewHelper(log.With(filtered, "component", component))
}
