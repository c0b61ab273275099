package execenv

import (
	"runtime"
	"runtime/debug"
)

// gcPercent is the garbage collection target percentage zmgd runs with.
const gcPercent = 50

// Initialize initializes the execution environment required to run zmgd
func Initialize() {
	// Use all processor cores.
	runtime.GOMAXPROCS(runtime.NumCPU())

	debug.SetGCPercent(gcPercent)
}
