package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger implements the Logger interface using uber-go/zap.
type zapLogger struct {
	logger *zap.Logger
	level  zap.AtomicLevel
	fields []Field
}

// NewLogger creates the default Logger backed by zap. Output is JSON on
// stdout with ISO8601 timestamps. Falls back to the text logger if the zap
// logger cannot be built.
func NewLogger(options ...Option) Logger {
	opts := &loggerOptions{level: zapcore.InfoLevel}
	for _, opt := range options {
		opt(opts)
	}

	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stdout"}
	if opts.development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	level := zap.NewAtomicLevelAt(opts.level)
	config.Level = level

	logger, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return NewTextLogger()
	}

	return &zapLogger{logger: logger, level: level}
}

// Option configures the zap-backed logger.
type Option func(*loggerOptions)

type loggerOptions struct {
	development bool
	level       zapcore.Level
}

// WithDevelopmentMode switches to zap's human-readable development encoder.
func WithDevelopmentMode() Option {
	return func(o *loggerOptions) { o.development = true }
}

// WithLevel sets the initial minimum level.
func WithLevel(level Level) Option {
	return func(o *loggerOptions) { o.level = toZapLevel(level) }
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *zapLogger) Debug(msg string, fields ...Field) {
	l.logger.Debug(msg, l.convert(fields)...)
}

func (l *zapLogger) Info(msg string, fields ...Field) {
	l.logger.Info(msg, l.convert(fields)...)
}

func (l *zapLogger) Warn(msg string, fields ...Field) {
	l.logger.Warn(msg, l.convert(fields)...)
}

func (l *zapLogger) Error(msg string, fields ...Field) {
	l.logger.Error(msg, l.convert(fields)...)
}

func (l *zapLogger) WithFields(fields ...Field) Logger {
	clone := *l
	clone.fields = make([]Field, 0, len(l.fields)+len(fields))
	clone.fields = append(clone.fields, l.fields...)
	clone.fields = append(clone.fields, fields...)
	return &clone
}

func (l *zapLogger) SetLevel(level Level) {
	l.level.SetLevel(toZapLevel(level))
}

func (l *zapLogger) convert(fields []Field) []zap.Field {
	zapFields := make([]zap.Field, 0, len(l.fields)+len(fields))
	for _, f := range l.fields {
		zapFields = append(zapFields, zap.Any(f.Key, f.Value))
	}
	for _, f := range fields {
		zapFields = append(zapFields, zap.Any(f.Key, f.Value))
	}
	return zapFields
}
