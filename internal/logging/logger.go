// Package logging provides structured logging using bolt.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/felixgeelhaar/bolt/v3"
)

var (
	defaultLogger *bolt.Logger
	once          sync.Once
)

// Config configures the logger.
type Config struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `yaml:"level"`

	// Format is the output format (json or console).
	Format string `yaml:"format"`

	Output io.Writer `yaml:"-"`
}

func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
		Output: os.Stderr,
	}
}

func parseLevel(s string) bolt.Level {
	switch s {
	case "trace":
		return bolt.TRACE
	case "debug":
		return bolt.DEBUG
	case "info":
		return bolt.INFO
	case "warn":
		return bolt.WARN
	case "error":
		return bolt.ERROR
	default:
		return bolt.INFO
	}
}

// New creates a logger independent of the default one.
func New(config Config) *bolt.Logger {
	output := config.Output
	if output == nil {
		output = os.Stderr
	}
	var handler bolt.Handler
	if config.Format == "json" {
		handler = bolt.NewJSONHandler(output)
	} else {
		handler = bolt.NewConsoleHandler(output)
	}
	return bolt.New(handler).SetLevel(parseLevel(config.Level))
}

// Init initializes the default logger. Only the first call has an effect.
func Init(config Config) {
	once.Do(func() {
		defaultLogger = New(config)
	})
}

func Get() *bolt.Logger {
	Init(DefaultConfig())
	return defaultLogger
}

// LogEvent allows adding Fields to a bolt.Event.
type LogEvent struct {
	event *bolt.Event
}

func NewEvent(e *bolt.Event) *LogEvent {
	return &LogEvent{event: e}
}

func (l *LogEvent) Add(f Field) *LogEvent {
	l.event = f(l.event)
	return l
}

func (l *LogEvent) Msg(msg string) {
	l.event.Msg(msg)
}

func (l *LogEvent) Send() {
	l.event.Send()
}

func Debug() *LogEvent {
	return &LogEvent{event: Get().Debug()}
}

func Info() *LogEvent {
	return &LogEvent{event: Get().Info()}
}

func Warn() *LogEvent {
	return &LogEvent{event: Get().Warn()}
}

func Error() *LogEvent {
	return &LogEvent{event: Get().Error()}
}
