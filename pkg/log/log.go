// Package log provides structured logging for oddvibe on top of zerolog.
//
// Components obtain a named Logger and attach well-known keys:
//
//	logger := log.GetLoggerWithName("boost").With(log.ComponentKey, "boost")
//	logger.Info("Boosting started", log.SamplesKey, n, log.FeaturesKey, d)
//
// Command-line tools configure the global level once with SetupLogger.
package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the structured logger used by library code. Fields are passed as
// alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

// LoggerProvider creates named loggers that share one sink and level.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
}

// zerologLogger adapts zerolog.Logger to Logger.
type zerologLogger struct {
	zl zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...interface{}) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...interface{}) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...interface{}) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...interface{}) {
	l.emit(l.zl.Error(), msg, fields)
}

func (l *zerologLogger) With(fields ...interface{}) Logger {
	return &zerologLogger{zl: l.zl.With().Fields(pairs(fields)).Logger()}
}

func (l *zerologLogger) emit(e *zerolog.Event, msg string, fields []interface{}) {
	if e == nil {
		return
	}
	e.Fields(pairs(fields)).Msg(msg)
}

// pairs turns a key/value list into a map. An error value under any key is
// stored with its message; a trailing key without value is dropped.
func pairs(fields []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		if err, isErr := fields[i+1].(error); isErr {
			m[key] = err.Error()
			continue
		}
		m[key] = fields[i+1]
	}
	return m
}

// ZerologProvider is a LoggerProvider writing JSON lines through zerolog.
type ZerologProvider struct {
	base zerolog.Logger
}

// NewZerologProvider creates a provider writing to stderr at level.
func NewZerologProvider(level zerolog.Level) *ZerologProvider {
	return NewZerologProviderWithWriter(os.Stderr, level)
}

// NewZerologProviderWithWriter creates a provider writing to w at level.
func NewZerologProviderWithWriter(w io.Writer, level zerolog.Level) *ZerologProvider {
	return &ZerologProvider{
		base: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

// GetLogger returns the provider's root logger.
func (p *ZerologProvider) GetLogger() Logger {
	return &zerologLogger{zl: p.base}
}

// GetLoggerWithName returns a logger tagged with name.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{zl: p.base.With().Str(LoggerNameKey, name).Logger()}
}

// ToLogLevel parses a level name; unknown names map to info.
func ToLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

var (
	mu       sync.RWMutex
	output   io.Writer = os.Stderr
	level              = zerolog.WarnLevel
	provider           = NewZerologProviderWithWriter(output, level)
	root               = zerolog.New(output).Level(level).With().Timestamp().Logger()
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond
}

// SetupLogger sets the global level by name ("debug", "info", ...).
func SetupLogger(levelName string) {
	mu.Lock()
	defer mu.Unlock()
	level = ToLogLevel(levelName)
	rebuild()
}

// SetOutput redirects the global sink, mainly for tests and CLIs.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

func rebuild() {
	provider = NewZerologProviderWithWriter(output, level)
	root = zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// GetLogger returns the global zerolog logger for event-style logging:
//
//	log.GetLogger().Warn().Err(err).Msg("refit skipped")
func GetLogger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := root
	return &l
}

// GetLoggerWithName returns a named Logger from the global provider.
func GetLoggerWithName(name string) Logger {
	mu.RLock()
	defer mu.RUnlock()
	return provider.GetLoggerWithName(name)
}

// LogError logs err at error level with msg.
func LogError(err error, msg string) {
	if err == nil {
		return
	}
	l := GetLogger()
	l.Error().Err(err).Msg(msg)
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &zerologLogger{zl: zerolog.Nop()}
}
