package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/richardbizik/msk-proxy/internal/config"
)

// warm flips on the first invocation handled by this process.
var warm atomic.Bool

// Setup replaces the default slog logger according to conf and returns it.
func Setup(conf config.LogConfig) *slog.Logger {
	logger := New(os.Stdout, conf)
	slog.SetDefault(logger)
	return logger
}

func New(w io.Writer, conf config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true, Level: ParseLevel(conf.Level)}
	var logger *slog.Logger
	if strings.EqualFold(conf.Format, "text") {
		logger = slog.New(slog.NewTextHandler(w, opts))
	} else {
		logger = slog.New(slog.NewJSONHandler(w, opts))
	}
	if conf.Service != "" {
		logger = logger.With("service", conf.Service)
	}
	return logger
}

// ForInvocation stamps the default logger with the function name and whether
// this is the first invocation of the instance.
func ForInvocation(ctx context.Context) *slog.Logger {
	logger := slog.Default().With(
		"function", lambdacontext.FunctionName,
		"coldStart", !warm.Swap(true),
	)
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.InvokedFunctionArn != "" {
		logger = logger.With("functionArn", lc.InvokedFunctionArn)
	}
	return logger
}

// ParseLevel falls back to info for anything it does not recognise.
func ParseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
