package logger

import "time"

// LogAndMeasureExecutionTime logs at debug level that functionName started.
// The returned function logs that it ended and how long it ran; defer it.
func LogAndMeasureExecutionTime(log *Logger, functionName string) (onEnd func()) {
	if log.Level() > LevelDebug {
		return func() {}
	}
	start := time.Now()
	log.Debugf("%s start", functionName)
	return func() {
		log.Debugf("%s end. Took: %s", functionName, time.Since(start))
	}
}
