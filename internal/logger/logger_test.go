package logger

import "testing"

func TestHelpersUsableWithoutInit(t *testing.T) {
	// Library packages log during their own tests without running main's
	// setup; the package-level logger must already be live.
	Info("collection started", "source", "test")
	Warn("source fetch failed", "error", "timeout")
	Error("render failed", "attempts", 3)
	Debug("model call", "used", 1)
}

func TestInitReconfiguresLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	Init()
	if Logger == nil {
		t.Fatal("Init left Logger nil")
	}
	Info("still usable after Init")
}

func TestParseLevel(t *testing.T) {
	t.Setenv("DEBUG", "")
	tests := []struct {
		raw  string
		want string
	}{
		{"debug", "DEBUG"},
		{"warn", "WARN"},
		{"error", "ERROR"},
		{"", "INFO"},
		{"nonsense", "INFO"},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.raw).String(); got != tt.want {
			t.Errorf("parseLevel(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestParseLevel_DebugEnvFallback(t *testing.T) {
	t.Setenv("DEBUG", "true")
	if got := parseLevel(""); got.String() != "DEBUG" {
		t.Errorf("parseLevel with DEBUG=true = %s, want DEBUG", got)
	}
}
