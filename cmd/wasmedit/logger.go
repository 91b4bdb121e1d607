package main

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasmedit/coredump"
	"github.com/wippyai/wasmedit/engine"
	"github.com/wippyai/wasmedit/instrument"
	"github.com/wippyai/wasmedit/traverse"
)

func newLogger(w io.Writer, level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	var enc zapcore.Encoder
	switch format {
	case "console", "":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		enc = zapcore.NewConsoleEncoder(cfg)
	case "json":
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, fmt.Errorf("invalid log format %q, want console or json", format)
	}

	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl)), nil
}

// installLogger hands l to every package that logs.
func installLogger(l *zap.Logger) {
	traverse.SetLogger(l)
	instrument.SetLogger(l)
	coredump.SetLogger(l)
	engine.SetLogger(l)
}
