package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

var globalLogger *slog.Logger

// Options はロガーの初期化オプション
type Options struct {
	Level  string    // ログレベル（debug, info, warn, error）
	File   string    // ログファイルのパス（空の場合はファイル出力なし）
	Output io.Writer // コンソール出力先（nilの場合はos.Stdout）
}

// InitLogger ログレベルに応じてslogを初期化
func InitLogger(level string) error {
	return Init(Options{Level: level})
}

// Init オプションに従ってslogを初期化
// Fileが指定された場合はローテーション付きのJSONログも出力する
func Init(opts Options) error {
	slogLevel, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var handler slog.Handler = slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: slogLevel,
	})

	if strings.TrimSpace(opts.File) != "" {
		w := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		fileHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel})
		handler = &fanout{handlers: []slog.Handler{handler, fileHandler}}
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	return nil
}

// ParseLevel 文字列をslog.Levelに変換
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// GetLogger グローバルロガーを取得
func GetLogger() *slog.Logger {
	if globalLogger == nil {
		// デフォルトロガーを返す
		return slog.Default()
	}
	return globalLogger
}

// WithTag 出力元の関数名をタグとして付与したロガーを返す
func WithTag(l *slog.Logger, tag string) *slog.Logger {
	if l == nil {
		l = GetLogger()
	}
	return l.With(slog.String("tag", "["+tag+"]"))
}

// Discard 何も出力しないロガー（テスト用）
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fanout 複数のハンドラーにレコードを配送する
type fanout struct {
	handlers []slog.Handler
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: hs}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &fanout{handlers: hs}
}
