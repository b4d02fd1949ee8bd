// Package config はゲームの設定ファイル（settings.yaml）を扱う。
// 設定は読み込み専用で、環境変数による上書きは実行時のみ反映される。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zurustar/textgame/pkg/fileutil"
)

// DefaultFileName はゲームディレクトリ内の設定ファイル名
const DefaultFileName = "settings.yaml"

// GameConfig はゲーム本体の設定
type GameConfig struct {
	Title      string   `yaml:"title"`
	EntryScene string   `yaml:"entry_scene"`
	Scenes     []string `yaml:"scenes"` // シーンファイルのパス（"scene:" プレフィックスは省略可）
}

// LoggingConfig はログ出力の設定
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// RuntimeConfig はスクリプト実行の設定
type RuntimeConfig struct {
	Execute   bool `yaml:"execute"`    // trueの場合は文を実際に実行する
	FrameRate int  `yaml:"frame_rate"` // Updateを呼ぶ頻度（フレーム/秒）
	MaxSteps  int  `yaml:"max_steps"`  // 1回の関数実行で実行できる文の上限（0は無制限）
}

// Settings は設定ファイル全体
type Settings struct {
	Game    GameConfig    `yaml:"game"`
	Logging LoggingConfig `yaml:"logging"`
	Runtime RuntimeConfig `yaml:"runtime"`
}

// 上書きに使う環境変数名
const (
	EnvLogFile   = "TEXTGAME_LOG_FILE"
	EnvFrameRate = "TEXTGAME_FRAME_RATE"
	EnvMaxSteps  = "TEXTGAME_MAX_STEPS"
)

// Defaults はデフォルト設定を返す
func Defaults() Settings {
	return Settings{
		Logging: LoggingConfig{Level: "info"},
		Runtime: RuntimeConfig{FrameRate: 30, MaxSteps: 100000},
	}
}

// Parse はYAMLを読み込み、デフォルト値と環境変数を反映した設定を返す
func Parse(data []byte) (Settings, error) {
	cfg := Defaults()

	var fileCfg Settings
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("failed to parse settings: %w", err)
	}
	mergeInto(&cfg, &fileCfg)
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Load はFileSystemから設定ファイルを読み込む
func Load(fsys fileutil.FileSystem, name string) (Settings, error) {
	if name == "" {
		name = DefaultFileName
	}
	data, err := fsys.ReadFile(name)
	if err != nil {
		return Defaults(), fmt.Errorf("failed to read settings %s: %w", name, err)
	}
	return Parse(data)
}

// LoadFile はパスを直接指定して設定ファイルを読み込む
func LoadFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults(), fmt.Errorf("failed to read settings %s: %w", path, err)
	}
	return Parse(data)
}

// Validate は設定値を検証する
func (s Settings) Validate() error {
	if len(s.Game.Scenes) == 0 {
		return fmt.Errorf("settings: game.scenes must list at least one scene")
	}
	if s.Runtime.FrameRate <= 0 {
		return fmt.Errorf("settings: runtime.frame_rate must be positive, got %d", s.Runtime.FrameRate)
	}
	if s.Runtime.MaxSteps < 0 {
		return fmt.Errorf("settings: runtime.max_steps must not be negative, got %d", s.Runtime.MaxSteps)
	}
	return nil
}

func mergeInto(dst *Settings, src *Settings) {
	if v := strings.TrimSpace(src.Game.Title); v != "" {
		dst.Game.Title = v
	}
	if v := strings.TrimSpace(src.Game.EntryScene); v != "" {
		dst.Game.EntryScene = v
	}
	for _, s := range src.Game.Scenes {
		if s = strings.TrimSpace(s); s != "" {
			dst.Game.Scenes = append(dst.Game.Scenes, s)
		}
	}
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
	dst.Runtime.Execute = src.Runtime.Execute
	if src.Runtime.FrameRate != 0 {
		dst.Runtime.FrameRate = src.Runtime.FrameRate
	}
	if src.Runtime.MaxSteps != 0 {
		dst.Runtime.MaxSteps = src.Runtime.MaxSteps
	}
}

func applyEnvOverrides(cfg *Settings) {
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFrameRate)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Runtime.FrameRate = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxSteps)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Runtime.MaxSteps = n
		}
	}
}
