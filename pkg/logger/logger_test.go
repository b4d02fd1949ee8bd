package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitLogger_ValidLevels(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"error", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.level)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			logger := GetLogger()
			if logger == nil {
				t.Fatal("GetLogger() returned nil")
			}
		})
	}
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	err := InitLogger("invalid")
	if err == nil {
		t.Error("expected error for invalid log level, got nil")
	}
}

func TestGetLogger_BeforeInit(t *testing.T) {
	// globalLoggerをリセット
	globalLogger = nil

	logger := GetLogger()
	if logger != slog.Default() {
		t.Error("GetLogger() should return slog.Default() when not initialized")
	}
}

func TestWithTag(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Options{Level: "debug", Output: &buf}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	WithTag(GetLogger(), "Runtime.Start").Debug("hello")

	out := buf.String()
	if !strings.Contains(out, "tag=[Runtime.Start]") {
		t.Errorf("expected tag in output, got %q", out)
	}
	if !strings.Contains(out, "msg=hello") {
		t.Errorf("expected message in output, got %q", out)
	}
}

func TestInit_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Options{Level: "info", Output: &buf}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	GetLogger().Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug record should be filtered at info level, got %q", buf.String())
	}
}

func TestInit_FileOutput(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "textgame.log")

	if err := Init(Options{Level: "info", File: path, Output: &buf}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	GetLogger().Info("to both", "key", "value")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"to both"`) {
		t.Errorf("expected JSON record in log file, got %q", string(data))
	}
	if !strings.Contains(buf.String(), "to both") {
		t.Errorf("expected console record, got %q", buf.String())
	}
}

func TestParseLevel_TraceAlias(t *testing.T) {
	level, err := ParseLevel("TRACE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if level != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", level)
	}
}
