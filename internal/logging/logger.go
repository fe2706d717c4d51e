package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging surface shared by the client, the HTTP console and the CLI.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Fatal(msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
	Sync() error
}

// zapLogger gets its level methods and Sync from the embedded logger.
type zapLogger struct {
	*zap.Logger
}

func (l zapLogger) With(fields ...zap.Field) Logger {
	return zapLogger{l.Logger.With(fields...)}
}

// NewLogger builds a zap-backed logger. environment "development" selects
// coloured console output; anything else a sampled JSON stream. encoding
// ("json" or "console") overrides the environment's default, and an
// unparsable level becomes info.
func NewLogger(environment, level, encoding string) (Logger, error) {
	cfg := baseConfig(environment)

	switch encoding {
	case "json":
		cfg.Encoding = "json"
		cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	case "console":
		cfg.Encoding = "console"
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	zl, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, err
	}
	return zapLogger{zl}, nil
}

func baseConfig(environment string) zap.Config {
	if environment == "development" {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg
	}

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	return cfg
}

// NewNoOpLogger returns a logger that discards everything; the client uses it
// when no logger is supplied.
func NewNoOpLogger() Logger {
	return zapLogger{zap.NewNop()}
}

// Unwrap returns the *zap.Logger behind l for gin-contrib/zap, or a no-op one
// when l is some other implementation.
func Unwrap(l Logger) *zap.Logger {
	if zl, ok := l.(zapLogger); ok {
		return zl.Logger
	}
	return zap.NewNop()
}
