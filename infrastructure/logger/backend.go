package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

// Flags to modify Backend's behavior.
const (
	// LogFlagLongFile includes the full path and line number of the
	// logging callsite, e.g. /a/b/c/main.go:123.
	LogFlagLongFile uint32 = 1 << iota

	// LogFlagShortFile includes the file name and line number of the
	// logging callsite, e.g. main.go:123. Takes precedence over
	// LogFlagLongFile.
	LogFlagShortFile
)

// defaultFlags is read from the LOGFLAGS environment variable, a comma
// separated list of "longfile" and "shortfile".
var defaultFlags = flagsFromEnvironment()

func flagsFromEnvironment() (flags uint32) {
	for _, flag := range strings.Split(os.Getenv("LOGFLAGS"), ",") {
		switch strings.TrimSpace(flag) {
		case "longfile":
			flags |= LogFlagLongFile
		case "shortfile":
			flags |= LogFlagShortFile
		}
	}
	return flags
}

const (
	defaultThresholdKB = 100 * 1000 // 100 MB per log file
	defaultMaxRolls    = 8

	entriesBufferSize = 256
)

type logEntry struct {
	line  []byte
	level Level
}

type levelWriter struct {
	io.WriteCloser
	minLevel Level
}

// Backend is a logging backend. Subsystem loggers created from the backend
// push formatted entries into a single channel which one goroutine drains
// into every writer whose level allows the entry.
type Backend struct {
	flags     uint32
	isRunning uint32
	writers   []levelWriter
	entries   chan logEntry
	drained   sync.WaitGroup
}

// NewBackend creates a new logger backend using the LOGFLAGS flags.
func NewBackend() *Backend {
	return NewBackendWithFlags(defaultFlags)
}

// NewBackendWithFlags creates a new logger backend with the given flags.
func NewBackendWithFlags(flags uint32) *Backend {
	return &Backend{
		flags:   flags,
		entries: make(chan logEntry, entriesBufferSize),
	}
}

// AddLogFile adds a rotated log file receiving every entry at or above
// logLevel. The file and its directory are created when missing.
func (b *Backend) AddLogFile(logFile string, logLevel Level) error {
	return b.AddLogFileWithCustomRotator(logFile, logLevel, defaultThresholdKB, defaultMaxRolls)
}

// AddLogFileWithCustomRotator is AddLogFile with explicit rotation settings.
func (b *Backend) AddLogFileWithCustomRotator(logFile string, logLevel Level, thresholdKB int64, maxRolls int) error {
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		err := os.MkdirAll(logDir, 0700)
		if err != nil {
			return errors.Wrapf(err, "failed to create log directory %s", logDir)
		}
	}
	logRotator, err := rotator.New(logFile, thresholdKB, false, maxRolls)
	if err != nil {
		return errors.Wrapf(err, "failed to create file rotator for %s", logFile)
	}
	return b.AddLogWriter(logRotator, logLevel)
}

// AddLogWriter adds an arbitrary io.WriteCloser receiving every entry at or
// above logLevel.
func (b *Backend) AddLogWriter(writer io.WriteCloser, logLevel Level) error {
	if b.IsRunning() {
		return errors.New("cannot add a log writer to a running backend")
	}
	b.writers = append(b.writers, levelWriter{WriteCloser: writer, minLevel: logLevel})
	return nil
}

// Run starts draining log entries in a separate goroutine. It may only be
// called once.
func (b *Backend) Run() error {
	if !atomic.CompareAndSwapUint32(&b.isRunning, 0, 1) {
		return errors.New("the logger backend is already running")
	}
	b.drained.Add(1)
	go func() {
		defer b.drained.Done()
		defer func() {
			if err := recover(); err != nil {
				fmt.Fprintf(os.Stderr, "Fatal error in logger backend: %+v\n%s\n", err, debug.Stack())
			}
		}()
		for entry := range b.entries {
			for _, writer := range b.writers {
				if entry.level >= writer.minLevel {
					_, _ = writer.Write(entry.line)
				}
			}
		}
	}()
	return nil
}

// IsRunning returns whether Run was called and Close was not.
func (b *Backend) IsRunning() bool {
	return atomic.LoadUint32(&b.isRunning) == 1
}

// Close flushes every pending entry and closes all writers.
func (b *Backend) Close() {
	if !atomic.CompareAndSwapUint32(&b.isRunning, 1, 0) {
		return
	}
	close(b.entries)
	b.drained.Wait()
	for _, writer := range b.writers {
		_ = writer.Close()
	}
}

func (b *Backend) push(entry logEntry) {
	if !b.IsRunning() {
		return
	}
	b.entries <- entry
}

// Logger returns a new logger for the given subsystem. Loggers start with
// logging turned off until SetLevel is called.
func (b *Backend) Logger(subsystemTag string) *Logger {
	return &Logger{level: uint32(LevelOff), tag: subsystemTag, backend: b}
}
