package utils

import (
	"fmt"
	"io"
	"os"
)

// VerboseLogger writes progress messages to stderr when verbose mode is enabled
type VerboseLogger struct {
	verbose bool
	out     io.Writer
}

// NewVerboseLogger creates a new verbose logger writing to stderr
func NewVerboseLogger(verbose bool) *VerboseLogger {
	return &VerboseLogger{verbose: verbose, out: os.Stderr}
}

// Logf logs a formatted message if verbose mode is enabled
func (v *VerboseLogger) Logf(format string, args ...interface{}) {
	if v.verbose {
		fmt.Fprintf(v.out, format, args...)
	}
}

// Log logs a message if verbose mode is enabled
func (v *VerboseLogger) Log(message string) {
	if v.verbose {
		fmt.Fprint(v.out, message)
	}
}

// IsVerbose returns whether verbose mode is enabled
func (v *VerboseLogger) IsVerbose() bool {
	return v.verbose
}

// DebugLogf logs a debug message if verbose mode is enabled (with [DEBUG] prefix)
func (v *VerboseLogger) DebugLogf(format string, args ...interface{}) {
	if v.verbose {
		fmt.Fprintf(v.out, "[DEBUG] "+format, args...)
	}
}
