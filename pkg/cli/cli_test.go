package cli

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvTimeout, "")
	t.Setenv(EnvExecute, "")
}

func TestParseArgs_ValidArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected Config
	}{
		{
			name:     "デフォルト設定",
			args:     []string{},
			expected: Config{},
		},
		{
			name:     "ゲームパス指定",
			args:     []string{"/path/to/game"},
			expected: Config{GamePath: "/path/to/game"},
		},
		{
			name:     "タイムアウト指定",
			args:     []string{"--timeout", "10"},
			expected: Config{Timeout: 10 * time.Second},
		},
		{
			name:     "タイムアウト指定（短縮形）",
			args:     []string{"-t", "5"},
			expected: Config{Timeout: 5 * time.Second},
		},
		{
			name:     "ログレベル指定",
			args:     []string{"--log-level", "DEBUG"},
			expected: Config{LogLevel: "debug"},
		},
		{
			name:     "ログレベル指定（短縮形）",
			args:     []string{"-l", "error"},
			expected: Config{LogLevel: "error"},
		},
		{
			name:     "シーン指定",
			args:     []string{"-s", "ending", "demo"},
			expected: Config{GamePath: "demo", Scene: "ending"},
		},
		{
			name:     "位置引数の後にフラグ",
			args:     []string{"demo", "--execute", "--log-file", "/tmp/game.log"},
			expected: Config{GamePath: "demo", Execute: true, LogFile: "/tmp/game.log"},
		},
		{
			name:     "ブールフラグの後に位置引数",
			args:     []string{"--execute", "demo"},
			expected: Config{GamePath: "demo", Execute: true},
		},
		{
			name:     "設定ファイル指定",
			args:     []string{"--config=/etc/textgame.yaml", "-c", "custom.yaml"},
			expected: Config{ConfigPath: "custom.yaml"},
		},
		{
			name:     "ヘルプ",
			args:     []string{"-h"},
			expected: Config{ShowHelp: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			config, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(*config, tt.expected) {
				t.Errorf("ParseArgs(%q) = %+v, want %+v", tt.args, *config, tt.expected)
			}
		})
	}
}

func TestParseArgs_EnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "Warn")
	t.Setenv(EnvTimeout, "7")
	t.Setenv(EnvExecute, "true")

	config, err := ParseArgs([]string{"demo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.LogLevel != "warn" || config.Timeout != 7*time.Second || !config.Execute {
		t.Errorf("env overrides not applied: %+v", config)
	}

	// コマンドラインフラグが優先
	config, err = ParseArgs([]string{"-l", "debug", "-t", "2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.LogLevel != "debug" || config.Timeout != 2*time.Second {
		t.Errorf("flags should win over env: %+v", config)
	}
}

func TestParseArgs_InvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{
			name: "負のタイムアウト",
			args: []string{"--timeout", "-10"},
		},
		{
			name: "数値でないタイムアウト",
			args: []string{"-t", "soon"},
		},
		{
			name: "無効なログレベル",
			args: []string{"--log-level", "invalid"},
		},
		{
			name: "未知のフラグ",
			args: []string{"--fullscreen"},
		},
		{
			name: "位置引数が多すぎる",
			args: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if _, err := ParseArgs(tt.args); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestReorderArgs(t *testing.T) {
	got := reorderArgs([]string{"game", "-t", "3", "--execute", "--", "-weird"})
	want := []string{"-t", "3", "--execute", "--", "game", "-weird"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reorderArgs() = %q, want %q", got, want)
	}
}

func TestPrintHelp(t *testing.T) {
	var buf bytes.Buffer
	PrintHelp(&buf)
	for _, flag := range []string{"--scene", "--log-level", "--log-file", "--timeout", "--execute", "--config", "--help"} {
		if !strings.Contains(buf.String(), flag) {
			t.Errorf("help is missing %s", flag)
		}
	}
}
