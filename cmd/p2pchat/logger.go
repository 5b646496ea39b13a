package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger implements p2pchat.Logger over a zap sugared logger. Output
// goes to stderr so chat lines on stdout stay readable.
type zapLogger struct {
	s     *zap.SugaredLogger
	level zap.AtomicLevel
}

// newZapLogger builds a production logger. Without verbose only warnings
// and errors are emitted.
func newZapLogger(verbose bool) (*zapLogger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.Level = zap.NewAtomicLevelAt(levelFor(verbose))

	l, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return &zapLogger{s: l.Sugar(), level: zcfg.Level}, nil
}

func levelFor(verbose bool) zapcore.Level {
	if verbose {
		return zapcore.DebugLevel
	}
	return zapcore.WarnLevel
}

func (l *zapLogger) Debugf(format string, args ...interface{}) { l.s.Debugf(format, args...) }
func (l *zapLogger) Infof(format string, args ...interface{})  { l.s.Infof(format, args...) }
func (l *zapLogger) Warnf(format string, args ...interface{})  { l.s.Warnf(format, args...) }
func (l *zapLogger) Errorf(format string, args ...interface{}) { l.s.Errorf(format, args...) }
func (l *zapLogger) Info(message string)                       { l.s.Info(message) }

// ToggleVerbose switches between debug and warning output. The level is
// shared with the built core, so the change applies immediately.
func (l *zapLogger) ToggleVerbose() bool {
	verbose := l.level.Level() != zapcore.DebugLevel
	l.level.SetLevel(levelFor(verbose))
	return verbose
}

func (l *zapLogger) Sync() {
	_ = l.s.Sync()
}
