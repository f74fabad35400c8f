// Package logger configures zerolog for the service and adapts it for gorm.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Development gets a console writer, every
// other environment gets JSON on stdout. The logger is also installed as
// zerolog's context default so zerolog.Ctx never returns a disabled logger.
func New(level, env string) zerolog.Logger {
	logLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
		if level != "" {
			fmt.Fprintf(os.Stderr, "invalid log level %q, defaulting to info\n", level)
		}
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var w io.Writer = os.Stdout
	if env == "development" || env == "dev" || env == "local" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	l := zerolog.New(w).
		Level(logLevel).
		With().
		Timestamp().
		Caller().
		Str("service", "novabyte-blog").
		Logger()

	zerolog.DefaultContextLogger = &l
	return l
}
