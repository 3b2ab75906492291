// Package monitoring holds the diagnostic logger shared by the ingest
// pipeline, the experiment store and the CLI.
package monitoring

import (
	"log"
	"time"

	"github.com/antonmeskildsen/tracker-tools/internal/timeutil"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or the CLI can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// clock is replaced in tests.
var clock timeutil.Clock = timeutil.RealClock{}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Stage starts timing a named pipeline stage. The returned function logs the
// number of items the stage handled and the time it took.
func Stage(name string) func(items int) {
	start := clock.Now()
	return func(items int) {
		Logf("%s: %d items in %s", name, items, clock.Since(start).Round(time.Microsecond))
	}
}
