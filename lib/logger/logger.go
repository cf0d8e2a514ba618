package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// LogLevel controls which messages a logger emits.
type LogLevel int32

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
)

// ILogger is the logging interface used by all rKV packages.
type ILogger interface {
	// SetLevel changes the minimum level this logger emits.
	SetLevel(level LogLevel)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// --------------------------------------------------------------------------
// Zap-backed implementation
// --------------------------------------------------------------------------

// rkvLogger implements ILogger on top of a named zap sugared logger.
type rkvLogger struct {
	level zap.AtomicLevel
	sugar *zap.SugaredLogger
}

func (l *rkvLogger) SetLevel(level LogLevel) {
	l.level.SetLevel(toZapLevel(level))
}

func (l *rkvLogger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

func (l *rkvLogger) Infof(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

func (l *rkvLogger) Warningf(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

func (l *rkvLogger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

var loggers = xsync.NewMapOf[string, ILogger]()

// GetLogger returns the logger registered under the given name, creating it
// with level INFO on first use. Subsequent calls with the same name return
// the same instance, so SetLevel takes effect process-wide.
func GetLogger(name string) ILogger {
	l, _ := loggers.LoadOrCompute(name, func() ILogger {
		return newZapLogger(name, INFO)
	})
	return l
}

// SetLevelAll applies the given level to every registered logger.
func SetLevelAll(level LogLevel) {
	loggers.Range(func(_ string, l ILogger) bool {
		l.SetLevel(level)
		return true
	})
}

func newZapLogger(name string, level LogLevel) ILogger {
	atomicLevel := zap.NewAtomicLevelAt(toZapLevel(level))

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		atomicLevel,
	)

	return &rkvLogger{
		level: atomicLevel,
		sugar: zap.New(core).Named(name).Sugar(),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLevel converts a string level to a LogLevel.
func ParseLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warning", "warn":
		return WARNING, nil
	case "error":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

func toZapLevel(level LogLevel) zapcore.Level {
	switch level {
	case DEBUG:
		return zapcore.DebugLevel
	case WARNING:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
