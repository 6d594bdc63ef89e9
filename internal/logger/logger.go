// Package logger is a thin leveled wrapper around the standard logger.
package logger

import (
	"log"
	"os"
)

var (
	debugEnabled bool
	infoLogger   = log.New(os.Stderr, "", log.LstdFlags)
	warnLogger   = log.New(os.Stderr, "[WARN] ", log.LstdFlags)
	errorLogger  = log.New(os.Stderr, "[ERROR] ", log.LstdFlags)
	debugLogger  = log.New(os.Stderr, "[DEBUG] ", log.LstdFlags)
)

// SetDebug enables or disables debug logging.
func SetDebug(enabled bool) {
	debugEnabled = enabled
}

// Info logs an informational message.
func Info(format string, args ...any) {
	infoLogger.Printf(format, args...)
}

// Warn logs a recoverable problem.
func Warn(format string, args ...any) {
	warnLogger.Printf(format, args...)
}

// Error logs an error message.
func Error(format string, args ...any) {
	errorLogger.Printf(format, args...)
}

// Debug logs a debug message if debug logging is enabled.
func Debug(format string, args ...any) {
	if debugEnabled {
		debugLogger.Printf(format, args...)
	}
}
