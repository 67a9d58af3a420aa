package bgp

import (
	"fmt"
	"sync/atomic"

	bgpLog "github.com/osrg/gobgp/v3/pkg/log"
	"github.com/rs/zerolog"
)

// zeroLogger forwards gobgp server logs to zerolog
type zeroLogger struct {
	logger *zerolog.Logger
	level  atomic.Uint32
}

func newLogger(logger *zerolog.Logger) *zeroLogger {
	l := &zeroLogger{logger: logger}
	l.level.Store(uint32(fromZerolog(logger.GetLevel())))
	return l
}

func toZerolog(level bgpLog.LogLevel) zerolog.Level {
	switch level {
	case bgpLog.PanicLevel:
		return zerolog.PanicLevel
	case bgpLog.FatalLevel:
		return zerolog.FatalLevel
	case bgpLog.ErrorLevel:
		return zerolog.ErrorLevel
	case bgpLog.WarnLevel:
		return zerolog.WarnLevel
	case bgpLog.InfoLevel:
		return zerolog.InfoLevel
	case bgpLog.DebugLevel:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

func fromZerolog(level zerolog.Level) bgpLog.LogLevel {
	switch level {
	case zerolog.PanicLevel:
		return bgpLog.PanicLevel
	case zerolog.FatalLevel:
		return bgpLog.FatalLevel
	case zerolog.ErrorLevel:
		return bgpLog.ErrorLevel
	case zerolog.WarnLevel:
		return bgpLog.WarnLevel
	case zerolog.InfoLevel:
		return bgpLog.InfoLevel
	case zerolog.DebugLevel:
		return bgpLog.DebugLevel
	default:
		return bgpLog.TraceLevel
	}
}

func (l *zeroLogger) log(level bgpLog.LogLevel, msg string, fields bgpLog.Fields) {
	// PanicLevel is the most severe, higher values are more verbose
	if level > l.GetLevel() {
		return
	}
	// WithLevel keeps panic and fatal from exiting the process; gobgp
	// handles those itself
	event := l.logger.WithLevel(toZerolog(level)).Str("src", "gobgp.server")
	for key, value := range fields {
		event = event.Str(key, fmt.Sprint(value))
	}
	event.Msg(msg)
}

func (l *zeroLogger) Panic(msg string, fields bgpLog.Fields) {
	l.log(bgpLog.PanicLevel, msg, fields)
}

func (l *zeroLogger) Fatal(msg string, fields bgpLog.Fields) {
	l.log(bgpLog.FatalLevel, msg, fields)
}

func (l *zeroLogger) Error(msg string, fields bgpLog.Fields) {
	l.log(bgpLog.ErrorLevel, msg, fields)
}

func (l *zeroLogger) Warn(msg string, fields bgpLog.Fields) {
	l.log(bgpLog.WarnLevel, msg, fields)
}

func (l *zeroLogger) Info(msg string, fields bgpLog.Fields) {
	l.log(bgpLog.InfoLevel, msg, fields)
}

func (l *zeroLogger) Debug(msg string, fields bgpLog.Fields) {
	l.log(bgpLog.DebugLevel, msg, fields)
}

func (l *zeroLogger) SetLevel(level bgpLog.LogLevel) {
	l.level.Store(uint32(level))
}

func (l *zeroLogger) GetLevel() bgpLog.LogLevel {
	return bgpLog.LogLevel(l.level.Load())
}
