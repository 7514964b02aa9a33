package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// callerSkip drops the package-level helper and the ZapLogger method from
// reported callers.
const callerSkip = 2

type ZapLogger struct {
	log   *zap.SugaredLogger
	level zap.AtomicLevel
}

var zapLogger *ZapLogger

// NewLogger builds a logger from config and installs it as the process logger.
func NewLogger(config zap.Config) (*ZapLogger, error) {
	base, err := config.Build(zap.AddCallerSkip(callerSkip))
	if err != nil {
		return nil, err
	}
	zapLogger = &ZapLogger{log: base.Sugar(), level: config.Level}
	return zapLogger, nil
}

func GetLogger() *ZapLogger {
	if zapLogger == nil {
		panic("logger not initialized")
	}
	return zapLogger
}

func (l *ZapLogger) Enabled(lvl zapcore.Level) bool {
	return l.level.Enabled(lvl)
}

// SetLevel changes the level of a running logger in place.
func (l *ZapLogger) SetLevel(lvl zapcore.Level) {
	l.level.SetLevel(lvl)
}

func (l *ZapLogger) Sync() error {
	return l.log.Sync()
}

func (l *ZapLogger) Panic(message string, values ...any) {
	l.log.Panicw(message, values...)
}

func (l *ZapLogger) Fatal(error error, values ...any) {
	l.log.Fatalw(error.Error(), values...)
}

func (l *ZapLogger) Info(message string, values ...any) {
	l.log.Infow(message, values...)
}

func (l *ZapLogger) Warn(message string, values ...any) {
	l.log.Warnw(message, values...)
}

func (l *ZapLogger) Error(message string, values ...any) {
	l.log.Errorw(message, values...)
}

func (l *ZapLogger) Debug(message string, values ...any) {
	l.log.Debugw(message, values...)
}

// Printf lets fasthttp write its server errors through the same logger.
func (l *ZapLogger) Printf(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}
