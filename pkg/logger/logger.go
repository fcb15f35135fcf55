package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface shared by all components.
type Logger interface {
	Debugf(ctx context.Context, format string, args ...interface{})
	Infof(ctx context.Context, format string, args ...interface{})
	Warnf(ctx context.Context, format string, args ...interface{})
	Errorf(ctx context.Context, format string, args ...interface{})
	Sync() error
}

type ctxKey string

// RunIDKey carries the current run id through contexts so every log line of a
// batch can be correlated.
const RunIDKey ctxKey = "run_id"

// PlateKey carries the plate currently being processed.
const PlateKey ctxKey = "plate"

// ZapLogger implements Logger on top of zap.
type ZapLogger struct {
	logger *zap.Logger
}

func NewZapLogger(level string) (Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &ZapLogger{logger: logger}, nil
}

func (l *ZapLogger) extractFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0)

	if runID, ok := ctx.Value(RunIDKey).(string); ok && runID != "" {
		fields = append(fields, zap.String("run_id", runID))
	}
	if plate, ok := ctx.Value(PlateKey).(string); ok && plate != "" {
		fields = append(fields, zap.String("plate", plate))
	}

	return fields
}

func (l *ZapLogger) Debugf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

func (l *ZapLogger) Infof(ctx context.Context, format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

func (l *ZapLogger) Warnf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

func (l *ZapLogger) Errorf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

// NopLogger discards everything. Used by tests and as a default.
type NopLogger struct{}

func (NopLogger) Debugf(ctx context.Context, format string, args ...interface{}) {}
func (NopLogger) Infof(ctx context.Context, format string, args ...interface{})  {}
func (NopLogger) Warnf(ctx context.Context, format string, args ...interface{})  {}
func (NopLogger) Errorf(ctx context.Context, format string, args ...interface{}) {}
func (NopLogger) Sync() error                                                    { return nil }
