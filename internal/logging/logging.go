// Package logging is a thin subsystem-tagged wrapper over the standard
// library logger, matching the teacher's own internal/logging package:
// Info always prints, Debug only prints when DEBUG=true is set in the
// environment.
package logging

import (
	"log"
	"os"
)

var debugEnabled = os.Getenv("DEBUG") == "true"

// Info logs an informational message (always shown).
func Info(subsystem, format string, args ...any) {
	log.Printf("[%s] "+format, append([]any{subsystem}, args...)...)
}

// Debug logs a debug message (only shown if DEBUG=true).
func Debug(subsystem, format string, args ...any) {
	if debugEnabled {
		log.Printf("[%s] "+format, append([]any{subsystem}, args...)...)
	}
}

// Warn logs a one-line warning (spec.md §4.4/§4.8 "one-line warning
// channel"). Always shown, same as Info, but tagged distinctly so grep can
// separate operational noise from actionable warnings.
func Warn(subsystem, format string, args ...any) {
	log.Printf("[%s] WARN: "+format, append([]any{subsystem}, args...)...)
}
