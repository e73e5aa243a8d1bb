package zaplog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/core-tools/hsu-healthmon-go/pkg/logging/sprintf"
)

// Options controls the zap backend construction
type Options struct {
	Level       string // debug, info, warn, error (default: info)
	Development bool   // console encoding with colored levels
}

// NewZapSprintfLogger creates a zap-backed SprintfLogger. It is the
// production backend; the sprintf std backend remains available for tools
// that must not pull in structured output
func NewZapSprintfLogger(options Options) (sprintf.SprintfLogger, func(), error) {
	level := zapcore.InfoLevel
	if options.Level != "" {
		parsed, err := zapcore.ParseLevel(options.Level)
		if err != nil {
			return nil, nil, err
		}
		level = parsed
	}

	var config zap.Config
	if options.Development {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	config.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := config.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, nil, err
	}

	sugar := zapLogger.Sugar()
	cleanup := func() {
		_ = zapLogger.Sync()
	}

	return &zapSprintfLogger{sugar: sugar}, cleanup, nil
}

type zapSprintfLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapSprintfLogger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

func (l *zapSprintfLogger) Infof(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

func (l *zapSprintfLogger) Warnf(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

func (l *zapSprintfLogger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}
