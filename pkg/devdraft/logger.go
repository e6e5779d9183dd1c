package devdraft

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger writes log lines through zerolog.
type ZerologLogger struct {
	zlog zerolog.Logger
}

// Ensure ZerologLogger implements the interface
var _ Logger = (*ZerologLogger)(nil)

// NewZerologLogger creates a human-readable, timestamped logger at debug level.
func NewZerologLogger(out io.Writer) *ZerologLogger {
	l := zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}).With().Timestamp().Str("component", "DevDraft").Logger().Level(zerolog.DebugLevel)

	return &ZerologLogger{zlog: l}
}

// NewZerologLoggerFrom wraps an existing zerolog.Logger.
func NewZerologLoggerFrom(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{zlog: l}
}

func (l *ZerologLogger) Debug(msg string, fields map[string]interface{}) {
	l.zlog.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Info(msg string, fields map[string]interface{}) {
	l.zlog.Info().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Warn(msg string, fields map[string]interface{}) {
	l.zlog.Warn().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Error(msg string, fields map[string]interface{}) {
	l.zlog.Error().Fields(fields).Msg(msg)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}
