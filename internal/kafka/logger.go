package kafka

import (
	"context"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// levels is ordered from the most to the least verbose.
var levels = []struct {
	kgo  kgo.LogLevel
	slog slog.Level
}{
	{kgo.LogLevelDebug, slog.LevelDebug},
	{kgo.LogLevelInfo, slog.LevelInfo},
	{kgo.LogLevelWarn, slog.LevelWarn},
	{kgo.LogLevelError, slog.LevelError},
}

// Logger routes franz-go client logs into slog.
type Logger struct {
	sl *slog.Logger
}

func newKLogger(sl *slog.Logger) *Logger {
	return &Logger{sl.With("component", "kgo")}
}

// Level reports the most verbose kgo level the wrapped slog logger lets through.
func (l *Logger) Level() kgo.LogLevel {
	ctx := context.Background()
	for _, lvl := range levels {
		if l.sl.Enabled(ctx, lvl.slog) {
			return lvl.kgo
		}
	}
	return kgo.LogLevelNone
}

func (l *Logger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	l.sl.Log(context.Background(), kgoToSlogLevel(level), msg, keyvals...)
}

func kgoToSlogLevel(level kgo.LogLevel) slog.Level {
	for _, lvl := range levels {
		if lvl.kgo == level {
			return lvl.slog
		}
	}
	return slog.LevelInfo
}
