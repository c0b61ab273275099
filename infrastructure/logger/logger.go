package logger

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// Logger writes leveled messages for one subsystem to a Backend.
type Logger struct {
	level   uint32
	tag     string
	backend *Backend
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32(&l.level))
}

// SetLevel changes the logging level.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32(&l.level, uint32(level))
}

// Backend returns the backend the logger writes to.
func (l *Logger) Backend() *Backend {
	return l.backend
}

// Tracef formats a message at the trace level.
func (l *Logger) Tracef(format string, args ...interface{}) { l.writef(LevelTrace, format, args...) }

// Debugf formats a message at the debug level.
func (l *Logger) Debugf(format string, args ...interface{}) { l.writef(LevelDebug, format, args...) }

// Infof formats a message at the info level.
func (l *Logger) Infof(format string, args ...interface{}) { l.writef(LevelInfo, format, args...) }

// Warnf formats a message at the warn level.
func (l *Logger) Warnf(format string, args ...interface{}) { l.writef(LevelWarn, format, args...) }

// Errorf formats a message at the error level.
func (l *Logger) Errorf(format string, args ...interface{}) { l.writef(LevelError, format, args...) }

// Criticalf formats a message at the critical level.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.writef(LevelCritical, format, args...)
}

// Trace writes its arguments at the trace level.
func (l *Logger) Trace(args ...interface{}) { l.write(LevelTrace, args...) }

// Debug writes its arguments at the debug level.
func (l *Logger) Debug(args ...interface{}) { l.write(LevelDebug, args...) }

// Info writes its arguments at the info level.
func (l *Logger) Info(args ...interface{}) { l.write(LevelInfo, args...) }

// Warn writes its arguments at the warn level.
func (l *Logger) Warn(args ...interface{}) { l.write(LevelWarn, args...) }

// Error writes its arguments at the error level.
func (l *Logger) Error(args ...interface{}) { l.write(LevelError, args...) }

// Critical writes its arguments at the critical level.
func (l *Logger) Critical(args ...interface{}) { l.write(LevelCritical, args...) }

func (l *Logger) writef(level Level, format string, args ...interface{}) {
	if level < l.Level() {
		return
	}
	l.emit(level, fmt.Sprintf(format, args...))
}

func (l *Logger) write(level Level, args ...interface{}) {
	if level < l.Level() {
		return
	}
	l.emit(level, fmt.Sprint(args...))
}

func (l *Logger) emit(level Level, message string) {
	line := &bytes.Buffer{}
	line.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	line.WriteString(" [")
	line.WriteString(level.String())
	line.WriteString("] ")
	line.WriteString(l.tag)
	if callsite := l.callsite(); callsite != "" {
		line.WriteString(" ")
		line.WriteString(callsite)
	}
	line.WriteString(": ")
	line.WriteString(message)
	if !strings.HasSuffix(message, "\n") {
		line.WriteByte('\n')
	}
	l.backend.push(logEntry{line: line.Bytes(), level: level})
}

// callsite skips emit, writef/write and the exported method.
const callsiteDepth = 4

func (l *Logger) callsite() string {
	flags := l.backend.flags
	if flags&(LogFlagShortFile|LogFlagLongFile) == 0 {
		return ""
	}
	_, file, line, ok := runtime.Caller(callsiteDepth)
	if !ok {
		return "???:0"
	}
	if flags&LogFlagShortFile != 0 {
		if slash := strings.LastIndex(file, "/"); slash >= 0 {
			file = file[slash+1:]
		}
	}
	return fmt.Sprintf("%s:%d", file, line)
}
