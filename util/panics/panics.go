// Package panics turns panics in named goroutines into logged, orderly
// process exits.
package panics

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/zmgnet/zmgd/infrastructure/logger"
)

// flushTimeout bounds how long an exit waits for the log backend.
const flushTimeout = 5 * time.Second

// GoroutineWrapperFunc returns a spawn function for log's subsystem. Every
// goroutine it starts records the stack of its spawner so a panic can be
// traced back to where the goroutine was created.
func GoroutineWrapperFunc(log *logger.Logger) func(name string, f func()) {
	return func(name string, f func()) {
		spawnStack := debug.Stack()
		go func() {
			defer HandlePanic(log, name, spawnStack)
			f()
		}()
	}
}

// HandlePanic must be deferred. If the goroutine is panicking, it logs the
// panic and both stack traces, then exits the process.
func HandlePanic(log *logger.Logger, goroutineName string, spawnStack []byte) {
	recovered := recover()
	if recovered == nil {
		return
	}
	exit(log, fmt.Sprintf("Fatal error in goroutine `%s`: %+v", goroutineName, recovered),
		spawnStack, debug.Stack())
}

// Exit logs reason at critical level and exits with status 1.
func Exit(log *logger.Logger, reason string) {
	exit(log, reason, nil, nil)
}

func exit(log *logger.Logger, reason string, spawnStack, panicStack []byte) {
	flushed := make(chan struct{})
	go func() {
		defer close(flushed)
		log.Criticalf("Exiting: %s", reason)
		if spawnStack != nil {
			log.Criticalf("Goroutine stack trace: %s", spawnStack)
		}
		if panicStack != nil {
			log.Criticalf("Stack trace: %s", panicStack)
		}
		log.Backend().Close()
	}()

	select {
	case <-flushed:
	case <-time.After(flushTimeout):
		fmt.Fprintln(os.Stderr, "Timed out flushing logs before exit.")
	}
	os.Exit(1)
}
