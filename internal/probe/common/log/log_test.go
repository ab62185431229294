package log

import (
	"testing"
)

type testLogger struct {
	entries []string
}

func (l *testLogger) Debug(_ map[string]any, msg string) { l.entries = append(l.entries, "DEBUG:"+msg) }
func (l *testLogger) Info(_ map[string]any, msg string)  { l.entries = append(l.entries, "INFO:"+msg) }
func (l *testLogger) Warn(_ map[string]any, msg string)  { l.entries = append(l.entries, "WARN:"+msg) }
func (l *testLogger) Error(_ map[string]any, msg string) { l.entries = append(l.entries, "ERROR:"+msg) }
func (l *testLogger) Fatal(_ map[string]any, msg string) {}

func TestSetLoggerAndGlobalLogging(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	tlog := &testLogger{}
	SetLogger(tlog)

	Debug(nil, "debug msg")
	Info(map[string]any{"key": "value"}, "info msg")
	Warn(nil, "warn msg")
	Error(nil, "error msg")

	expected := []string{
		"DEBUG:debug msg",
		"INFO:info msg",
		"WARN:warn msg",
		"ERROR:error msg",
	}
	if len(tlog.entries) != len(expected) {
		t.Fatalf("expected %d entries, got %d", len(expected), len(tlog.entries))
	}
	for i, want := range expected {
		if tlog.entries[i] != want {
			t.Errorf("entry %d: expected %q, got %q", i, want, tlog.entries[i])
		}
	}
}

func TestConfigure(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	if err := Configure("dev", "debug"); err != nil {
		t.Errorf("Configure(dev, debug) returned error: %v", err)
	}
	if err := Configure("prod", "info"); err != nil {
		t.Errorf("Configure(prod, info) returned error: %v", err)
	}
	if err := Configure("prod", "bogus"); err == nil {
		t.Error("Configure with invalid level should return error")
	}
}

func TestNoopLoggerDoesNothing(t *testing.T) {
	l := NewNoopLogger()
	// must not panic or write anywhere
	l.Debug(nil, "a")
	l.Info(nil, "b")
	l.Warn(nil, "c")
	l.Error(nil, "d")
	l.Fatal(nil, "e")
}
