package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

type bufferCloser struct {
	sync.Mutex
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Write(p []byte) (int, error) {
	b.Lock()
	defer b.Unlock()
	return b.Buffer.Write(p)
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func TestBackendFiltersByWriterLevel(t *testing.T) {
	backend := NewBackendWithFlags(0)
	all := &bufferCloser{}
	warnings := &bufferCloser{}
	if err := backend.AddLogWriter(all, LevelTrace); err != nil {
		t.Fatalf("AddLogWriter unexpectedly failed: %s", err)
	}
	if err := backend.AddLogWriter(warnings, LevelWarn); err != nil {
		t.Fatalf("AddLogWriter unexpectedly failed: %s", err)
	}
	if err := backend.Run(); err != nil {
		t.Fatalf("Run unexpectedly failed: %s", err)
	}
	if err := backend.AddLogWriter(&bufferCloser{}, LevelInfo); err == nil {
		t.Fatalf("AddLogWriter unexpectedly succeeded on a running backend")
	}

	log := backend.Logger("TEST")
	log.SetLevel(LevelDebug)
	log.Tracef("dropped %d", 1)
	log.Debugf("debug %d", 2)
	log.Warnf("warning %d", 3)
	backend.Close()

	if strings.Contains(all.String(), "dropped") {
		t.Fatalf("trace entry was written below the logger level: %q", all.String())
	}
	if !strings.Contains(all.String(), "[DBG] TEST: debug 2") {
		t.Fatalf("debug entry missing: %q", all.String())
	}
	if strings.Contains(warnings.String(), "debug 2") {
		t.Fatalf("debug entry reached the warning writer: %q", warnings.String())
	}
	if !strings.Contains(warnings.String(), "[WRN] TEST: warning 3") {
		t.Fatalf("warning entry missing: %q", warnings.String())
	}
	if !all.closed || !warnings.closed {
		t.Fatalf("Close did not close the writers")
	}
}

func TestParseAndSetLogLevels(t *testing.T) {
	first := RegisterSubSystem("TST1")
	second := RegisterSubSystem("TST2")

	tests := []struct {
		name          string
		levels        string
		expectedError bool
		expectFirst   Level
		expectSecond  Level
	}{
		{name: "global level", levels: "debug", expectFirst: LevelDebug, expectSecond: LevelDebug},
		{name: "per subsystem", levels: "TST1=trace,TST2=error", expectFirst: LevelTrace, expectSecond: LevelError},
		{name: "unknown level", levels: "loud", expectedError: true},
		{name: "unknown subsystem", levels: "NOPE=info", expectedError: true},
		{name: "broken pair", levels: "TST1=info=warn", expectedError: true},
	}
	for _, test := range tests {
		err := ParseAndSetLogLevels(test.levels)
		if test.expectedError {
			if err == nil {
				t.Fatalf("%s: ParseAndSetLogLevels unexpectedly succeeded", test.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: ParseAndSetLogLevels unexpectedly failed: %s", test.name, err)
		}
		if first.Level() != test.expectFirst || second.Level() != test.expectSecond {
			t.Fatalf("%s: unexpected levels. Want: %s/%s, got: %s/%s", test.name,
				test.expectFirst, test.expectSecond, first.Level(), second.Level())
		}
	}
}
