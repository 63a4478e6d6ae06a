package mm

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Runtime logging is controlled by the SEGALLOC_LOG env var: "debug" or
// "trace" select that level, any other non-empty value selects info, and an
// empty value disables logging.
var logLevel = os.Getenv("SEGALLOC_LOG")

func defaultLogger() zerolog.Logger {
	if logLevel == "" {
		return zerolog.Nop()
	}
	lvl := zerolog.InfoLevel
	switch strings.ToLower(logLevel) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "trace":
		lvl = zerolog.TraceLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Str("component", "mm").Logger()
}
