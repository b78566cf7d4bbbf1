package logx

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{" info ", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in, zerolog.InfoLevel); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNopAndZeroLoggersAreSafe(t *testing.T) {
	t.Parallel()
	var zero Logger
	if !zero.IsZero() {
		t.Fatal("zero value should report IsZero")
	}
	zero.Info("does nothing", String("k", "v"))

	n := Nop()
	if n.IsZero() {
		t.Fatal("Nop logger is initialized, not zero")
	}
	n.Error("also nothing", Err(errors.New("x")))
}

func TestWithDerivesIndependently(t *testing.T) {
	t.Parallel()
	base := Nop()
	derived := base.With(String("comp", "a"))
	if len(base.fields) != 0 {
		t.Fatal("With must not mutate the receiver")
	}
	derived2 := derived.With(Int("n", 1))
	if len(derived.fields) != 1 || len(derived2.fields) != 2 {
		t.Fatalf("field counts = %d, %d", len(derived.fields), len(derived2.fields))
	}
}

func TestServiceApplyFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	svc, log := New(Config{Level: "debug", Console: false, File: FileConfig{Enabled: true, Path: path}})
	defer svc.Close()

	log.Info("hello file", String("k", "v"))

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), "hello file") {
		t.Fatalf("log file missing entry: %q", b)
	}

	// Service-backed loggers follow Apply live.
	svc.Apply(Config{Level: "error", Console: false, File: FileConfig{Enabled: true, Path: path}})
	if log.Enabled(LevelDebug) {
		t.Fatal("debug still enabled after raising level")
	}
}
