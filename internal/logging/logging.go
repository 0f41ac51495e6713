// Package logging builds the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/kkkkikiki/punchcard/internal/config"
)

// New returns a logger writing to w. Development uses the console writer;
// every other environment logs JSON.
func New(w io.Writer, app config.AppConfig, service string) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(app.LogLevel))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", app.LogLevel, err)
	}
	if app.Debug {
		level = zerolog.DebugLevel
	}

	if app.IsDevelopment() {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Str("env", app.Environment).
		Logger(), nil
}

// Setup builds the logger on stderr and installs it as the global default,
// including for zerolog.Ctx on contexts without a logger.
func Setup(app config.AppConfig, service string) (zerolog.Logger, error) {
	logger, err := New(os.Stderr, app, service)
	if err != nil {
		return logger, err
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zlog.Logger = logger
	zerolog.DefaultContextLogger = &zlog.Logger
	return logger, nil
}
