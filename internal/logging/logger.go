package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger with configuration from environment variables.
//
// GENAI_LOG_LEVEL controls the log level: debug, info, warn, error (default: info).
// GENAI_LOG_FORMAT selects "json" or "console". When unset, Lambda processes
// (AWS_LAMBDA_FUNCTION_NAME present) log JSON so CloudWatch Logs Insights can
// query fields; everything else gets the console writer.
func Init() {
	zerolog.SetGlobalLevel(ParseLevel(os.Getenv("GENAI_LOG_LEVEL")))
	log.Logger = zerolog.New(writer(os.Stderr)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level. Unknown names fall back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func writer(out io.Writer) io.Writer {
	format := os.Getenv("GENAI_LOG_FORMAT")
	if format == "" && os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		format = "json"
	}
	if format == "json" {
		return out
	}
	return zerolog.ConsoleWriter{Out: out}
}
