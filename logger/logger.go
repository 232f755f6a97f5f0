package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Log   *zap.SugaredLogger
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func init() {
	Log = zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.Lock(os.Stdout),
		level,
	)).Sugar()
}

type Options struct {
	Level    string
	File     string
	Encoding string
}

// Configure rebuilds Log from opts. On a bad level or an unwritable file the
// logger is still replaced with a working stdout logger and the error is
// returned.
func Configure(opts Options) error {
	var levelErr error
	if strings.TrimSpace(opts.Level) != "" {
		var parsed zapcore.Level
		parsed, levelErr = ParseLevel(opts.Level)
		level.SetLevel(parsed)
	}

	outputs := []string{"stdout"}
	var fileErr error
	if strings.TrimSpace(opts.File) != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			fileErr = err
		} else {
			outputs = append(outputs, opts.File)
		}
	}

	encoding := "console"
	if strings.EqualFold(strings.TrimSpace(opts.Encoding), "json") {
		encoding = "json"
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            level,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    encoderConfig(),
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		return errors.Join(levelErr, fileErr, err)
	}
	Log = zapLogger.Sugar()

	return errors.Join(levelErr, fileErr)
}

// Use replaces the package logger, mainly for tests.
func Use(l *zap.Logger) {
	Log = l.Sugar()
}

func ParseLevel(value string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", value)
	}
}

// Enabled reports whether messages at lvl are currently written.
func Enabled(lvl zapcore.Level) bool {
	return Log.Desugar().Core().Enabled(lvl)
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// Convenience functions
func Info(msg string, keysAndValues ...interface{}) {
	Log.Infow(msg, keysAndValues...)
}

func Infof(template string, args ...interface{}) {
	Log.Infof(template, args...)
}

func Warn(msg string, keysAndValues ...interface{}) {
	Log.Warnw(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...interface{}) {
	Log.Errorw(msg, keysAndValues...)
}

func Errorf(template string, args ...interface{}) {
	Log.Errorf(template, args...)
}

func Debug(msg string, keysAndValues ...interface{}) {
	Log.Debugw(msg, keysAndValues...)
}

func Sync() {
	_ = Log.Sync()
}
