package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Zerolog implements Logger using rs/zerolog.
type Zerolog struct {
	log zerolog.Logger
}

// NewZerolog creates a structured logger for the component. PF_ENV=dev
// switches to a human-readable console writer; anything else emits JSON.
func NewZerolog(component string) Logger {
	env := strings.ToLower(os.Getenv("PF_ENV"))
	var z zerolog.Logger
	if env == "dev" {
		writer := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		z = zerolog.New(writer).With().Timestamp().Str("component", component).Logger()
	} else {
		z = zerolog.New(os.Stdout).With().Timestamp().Str("component", component).Logger()
	}
	return &Zerolog{log: z}
}

func (l *Zerolog) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *Zerolog) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *Zerolog) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *Zerolog) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *Zerolog) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
