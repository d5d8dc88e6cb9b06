package logger

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls how the process logger is built
type Options struct {
	Level  string
	Format string
	File   string
}

var (
	base  = zap.NewNop()
	sugar = base.Sugar()
)

// Init initializes the process logger. Verbose forces debug level.
func Init(verbose bool, opts Options) error {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
			level = zapcore.InfoLevel
		}
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if opts.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	sink := zapcore.Lock(os.Stderr)
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return err
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		sink = zapcore.Lock(f)
	}

	Set(zap.New(zapcore.NewCore(encoder, sink, level)))
	return nil
}

// Set replaces the process logger
func Set(l *zap.Logger) {
	base = l
	sugar = l.Sugar()
	zap.ReplaceGlobals(l)
}

// Close flushes buffered log entries
func Close() {
	_ = base.Sync()
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	sugar.Debugw(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	sugar.Infow(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	sugar.Warnw(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	sugar.Errorw(msg, args...)
}
