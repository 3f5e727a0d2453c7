package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
)

// LoggerAdapter routes watermill logs into zap
type LoggerAdapter struct {
	logger *zap.SugaredLogger
}

func NewLoggerAdapter(logger *zap.SugaredLogger) watermill.LoggerAdapter {
	return &LoggerAdapter{logger: logger}
}

func (l *LoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.logger.Errorw(msg, append(flatten(fields), "error", err)...)
}

func (l *LoggerAdapter) Info(msg string, fields watermill.LogFields) {
	l.logger.Infow(msg, flatten(fields)...)
}

func (l *LoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	l.logger.Debugw(msg, flatten(fields)...)
}

// Trace is noisy; it goes to debug
func (l *LoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	l.logger.Debugw(msg, flatten(fields)...)
}

func (l *LoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &LoggerAdapter{logger: l.logger.With(flatten(fields)...)}
}

func flatten(fields watermill.LogFields) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return kv
}
