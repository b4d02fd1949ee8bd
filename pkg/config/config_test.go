package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/zurustar/textgame/pkg/fileutil"
)

const sampleSettings = `
game:
  title: Demo
  entry_scene: intro
  scenes:
    - scenes/intro.json
    - " scene:scenes/ending.json "
logging:
  level: DEBUG
runtime:
  execute: true
  max_steps: 50
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleSettings))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if cfg.Game.Title != "Demo" || cfg.Game.EntryScene != "intro" {
		t.Errorf("unexpected game config: %+v", cfg.Game)
	}
	if len(cfg.Game.Scenes) != 2 || cfg.Game.Scenes[1] != "scene:scenes/ending.json" {
		t.Errorf("Scenes = %q", cfg.Game.Scenes)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
	if !cfg.Runtime.Execute || cfg.Runtime.MaxSteps != 50 {
		t.Errorf("unexpected runtime config: %+v", cfg.Runtime)
	}
	// 未指定の値はデフォルトのまま
	if cfg.Runtime.FrameRate != Defaults().Runtime.FrameRate {
		t.Errorf("FrameRate = %d, want default", cfg.Runtime.FrameRate)
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv(EnvFrameRate, "60")
	t.Setenv(EnvMaxSteps, "not a number")
	t.Setenv(EnvLogFile, "/tmp/textgame.log")

	cfg, err := Parse([]byte(sampleSettings))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Runtime.FrameRate != 60 {
		t.Errorf("FrameRate = %d, want 60", cfg.Runtime.FrameRate)
	}
	if cfg.Runtime.MaxSteps != 50 {
		t.Errorf("invalid env value should be ignored, MaxSteps = %d", cfg.Runtime.MaxSteps)
	}
	if cfg.Logging.File != "/tmp/textgame.log" {
		t.Errorf("File = %q", cfg.Logging.File)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"invalid yaml":   "game: [",
		"no scenes":      "game:\n  title: x\n",
		"bad frame rate": "game:\n  scenes: [a.json]\nruntime:\n  frame_rate: -1\n",
		"bad max steps":  "game:\n  scenes: [a.json]\nruntime:\n  max_steps: -5\n",
	}
	for name, src := range tests {
		if _, err := Parse([]byte(src)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoad(t *testing.T) {
	fsys, err := fileutil.NewEmbedFS(fstest.MapFS{
		"Settings.YAML": {Data: []byte(sampleSettings)},
	}, ".")
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(fsys, "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Game.Title != "Demo" {
		t.Errorf("Title = %q", cfg.Game.Title)
	}

	if _, err := Load(fsys, "missing.yaml"); err == nil || !strings.Contains(err.Error(), "missing.yaml") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte(sampleSettings), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Game.EntryScene != "intro" {
		t.Errorf("EntryScene = %q", cfg.Game.EntryScene)
	}
}
