package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zurustar/textgame/pkg/logger"
)

// 環境変数名
const (
	EnvLogLevel = "LOG_LEVEL"
	EnvTimeout  = "TIMEOUT"
	EnvExecute  = "TEXTGAME_EXECUTE"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	GamePath   string        // ゲームのディレクトリ、または組み込みゲーム名
	Scene      string        // 最初にアクティブにするシーン（空の場合はsettings.yamlに従う）
	LogLevel   string        // ログレベル（空の場合はsettings.yamlに従う）
	LogFile    string        // ログファイルのパス
	Timeout    time.Duration // タイムアウト時間（0は無制限）
	Execute    bool          // 文を実際に実行する
	ConfigPath string        // 設定ファイルのパス
	ShowHelp   bool          // ヘルプ表示フラグ
}

// boolFlags は値を取らないフラグ
var boolFlags = map[string]bool{
	"-h":        true,
	"--h":       true,
	"-help":     true,
	"--help":    true,
	"-execute":  true,
	"--execute": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("textgame", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}

	var timeoutSec int
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "", "ログレベル（短縮形）")
	fs.StringVar(&config.LogFile, "log-file", "", "ログファイルのパス")
	fs.StringVar(&config.Scene, "scene", "", "最初のシーン名")
	fs.StringVar(&config.Scene, "s", "", "最初のシーン名（短縮形）")
	fs.StringVar(&config.ConfigPath, "config", "", "設定ファイルのパス")
	fs.StringVar(&config.ConfigPath, "c", "", "設定ファイルのパス（短縮形）")
	fs.BoolVar(&config.Execute, "execute", false, "文を実行する")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !config.Execute {
		if v := os.Getenv(EnvExecute); v != "" {
			config.Execute = v == "1" || strings.EqualFold(v, "true")
		}
	}

	if timeoutSec == 0 {
		if v := os.Getenv(EnvTimeout); v != "" {
			if t, err := strconv.Atoi(v); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}

	if config.LogLevel == "" {
		config.LogLevel = os.Getenv(EnvLogLevel)
	}
	config.LogLevel = strings.ToLower(strings.TrimSpace(config.LogLevel))

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	// ログレベルの検証
	if config.LogLevel != "" {
		if _, err := logger.ParseLevel(config.LogLevel); err != nil {
			return nil, err
		}
	}

	if fs.NArg() > 1 {
		return nil, fmt.Errorf("too many arguments: %s", strings.Join(fs.Args(), " "))
	}
	if fs.NArg() == 1 {
		config.GamePath = fs.Arg(0)
	}

	return config, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}

		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// -t 5 のように値が続く場合は一緒に移動する
			if strings.Contains(arg, "=") || boolFlags[arg] {
				continue
			}
			if i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}

	if len(positional) == 0 {
		return flags
	}
	flags = append(flags, "--")
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `textgame - テキストゲーム スクリプトランタイム

Usage:
  textgame [options] [game-path]

Arguments:
  game-path     ゲームのディレクトリパス、または組み込みゲーム名（省略可）
                省略した場合は組み込みゲームの最初の1つを使用

Options:
  -s, --scene <name>          最初にアクティブにするシーン（デフォルト: settings.yamlのentry_scene）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
      --log-file <path>       ログをJSON形式でファイルにも出力（ローテーションあり）
  -t, --timeout <seconds>     指定秒数後にフレームループを終了（デフォルト: 無制限）
      --execute               文を実際に実行する（デフォルト: 制御フローのトレースのみ）
  -c, --config <path>         設定ファイルのパス（デフォルト: <game>/settings.yaml）
  -h, --help                  このヘルプを表示

Environment Variables:
  LOG_LEVEL=<level>           ログレベル
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  TEXTGAME_EXECUTE=1          文の実行を有効化

Examples:
  textgame                            組み込みゲームを起動
  textgame /path/to/game              ディレクトリを指定
  textgame --scene ending demo        組み込みゲームdemoをendingシーンから開始
  textgame --execute --timeout 10     文を実行して10秒後に終了
  LOG_LEVEL=debug textgame /path/to/game
`)
}
