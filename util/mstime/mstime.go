// Package mstime converts between time.Time and the millisecond unix
// timestamps carried in block headers.
package mstime

import "time"

// UnixMilliToTime returns the local time ms milliseconds after the unix
// epoch.
func UnixMilliToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// TimeToUnixMilli drops everything below millisecond precision from t.
func TimeToUnixMilli(t time.Time) int64 {
	return t.UnixMilli()
}

// NowUnixMilli is the header timestamp of the current moment.
func NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}
