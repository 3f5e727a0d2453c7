package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "assessment-service"

// Options come straight from config: LOG_LEVEL, ENVIRONMENT and RELEASE.
type Options struct {
	Level       string
	Environment string
	Release     string
}

// Logger is the process logger. Every entry carries the service, environment and release.
type Logger struct {
	*zap.SugaredLogger
	base  *zap.Logger
	level zap.AtomicLevel
}

// New builds the process logger: JSON in production, colored console output elsewhere.
// An unknown level falls back to info.
func New(opts Options, extra ...zap.Option) (*Logger, error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	var cfg zap.Config
	if strings.EqualFold(opts.Environment, "production") {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.MessageKey = "message"
		// every grading and status line is kept
		cfg.Sampling = nil
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = level
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build(append([]zap.Option{zap.AddStacktrace(zap.ErrorLevel)}, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	fields := []zap.Field{zap.String("service", serviceName)}
	if opts.Environment != "" {
		fields = append(fields, zap.String("env", opts.Environment))
	}
	if opts.Release != "" {
		fields = append(fields, zap.String("release", opts.Release))
	}
	base = base.With(fields...)

	return &Logger{SugaredLogger: base.Sugar(), base: base, level: level}, nil
}

func (l *Logger) Base() *zap.Logger {
	return l.base
}

func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

// SetLevel changes the level of this logger and every child derived from it.
func (l *Logger) SetLevel(level string) error {
	return l.level.UnmarshalText([]byte(strings.ToLower(level)))
}

// Sync flushes buffered entries. Errors from syncing a terminal are ignored.
func (l *Logger) Sync() {
	_ = l.base.Sync()
}

// Nop returns a logger that discards everything, for tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
