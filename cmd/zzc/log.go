package main

import (
	"fmt"
	"os"
	"strings"
)

// logLevel is the driver-internal operational log level, distinct from
// diag.Severity which governs compiler diagnostics. Gated by ZZC_LOG
// (default info), a logging-level environment variable that controls
// verbosity.
type logLevel int

const (
	logDebug logLevel = iota
	logInfo
	logWarn
	logError
	logSilent
)

func parseLogLevel(s string) logLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return logDebug
	case "warn", "warning":
		return logWarn
	case "error":
		return logError
	case "silent", "off", "none":
		return logSilent
	default:
		return logInfo
	}
}

var currentLogLevel = parseLogLevel(os.Getenv("ZZC_LOG"))

func logf(level logLevel, format string, args ...any) {
	if level < currentLogLevel {
		return
	}
	var tag string
	switch level {
	case logDebug:
		tag = "debug"
	case logInfo:
		tag = "info"
	case logWarn:
		tag = "warn"
	case logError:
		tag = "error"
	default:
		tag = "info"
	}
	fmt.Fprintf(os.Stderr, "zzc: %s: %s\n", tag, fmt.Sprintf(format, args...))
}
