package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		name      string
		logger    Logger
		wantInfo  bool
		wantDebug bool
		wantWarn  bool
		wantError bool
	}{
		{"quiet", Logger{}, false, false, false, false},
		{"verbose", Logger{Verbose: true}, true, false, true, false},
		{"debug", Logger{Debug: true}, true, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			l := tt.logger
			l.Out, l.Err = &out, &errOut

			l.Infof("info %d", 1)
			l.Debugf("debug %d", 2)
			l.Warnf("warn %d", 3)
			l.Errorf("error %d", 4)

			check := func(buf *bytes.Buffer, text string, want bool) {
				t.Helper()
				if got := strings.Contains(buf.String(), text); got != want {
					t.Errorf("%q present = %v, want %v", text, got, want)
				}
			}
			check(&out, "info 1", tt.wantInfo)
			check(&out, "debug 2", tt.wantDebug)
			check(&errOut, "warn 3", tt.wantWarn)
			check(&errOut, "error 4", tt.wantError)
		})
	}
}

func TestWarnfAlways(t *testing.T) {
	var errOut bytes.Buffer
	l := Logger{Err: &errOut}

	l.WarnfAlways("stored keys for %s failed validation", "alice")

	if !strings.Contains(errOut.String(), "stored keys for alice failed validation") {
		t.Errorf("Expected warning, got %q", errOut.String())
	}
}

func TestErrorfAndReturn(t *testing.T) {
	l := Discard()
	err := l.ErrorfAndReturn("failed to load %s", "config")
	if err == nil || err.Error() != "failed to load config" {
		t.Errorf("Unexpected error: %v", err)
	}
}
