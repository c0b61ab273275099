package mstime

import (
	"testing"
	"time"
)

func TestUnixMilliRoundTrip(t *testing.T) {
	tests := []int64{0, 1, 999, 1000, 1600000000123, -1}
	for _, ms := range tests {
		converted := TimeToUnixMilli(UnixMilliToTime(ms))
		if converted != ms {
			t.Fatalf("TestUnixMilliRoundTrip: expected %d, got %d", ms, converted)
		}
	}
}

func TestTimeToUnixMilliTruncates(t *testing.T) {
	ms := TimeToUnixMilli(time.Unix(100, 123456789))
	if ms != 100123 {
		t.Fatalf("TestTimeToUnixMilliTruncates: expected 100123, got %d", ms)
	}
}
