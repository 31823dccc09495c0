// Package debug provides env-gated diagnostic output for quilt.
//
// Output goes to stderr and is off unless QUILT_DEBUG is set or verbose
// mode was enabled explicitly. Nothing here ever writes secrets: callers
// must not log passphrases, keys, or decrypted payloads.
package debug

import (
	"fmt"
	"os"
)

var (
	enabled     = os.Getenv("QUILT_DEBUG") != ""
	verboseMode = false
	quietMode   = false
)

// Enabled reports whether diagnostic output is on.
func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output.
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet enables quiet mode (suppress non-essential output).
func SetQuiet(quiet bool) {
	quietMode = quiet
}

// IsQuiet returns true if quiet mode is enabled.
func IsQuiet() bool {
	return quietMode
}

// Logf writes diagnostic output to stderr when enabled.
func Logf(format string, args ...interface{}) {
	if enabled || verboseMode {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// PrintNormal prints output unless quiet mode is enabled.
func PrintNormal(format string, args ...interface{}) {
	if !quietMode {
		fmt.Printf(format, args...)
	}
}

// PrintlnNormal prints a line unless quiet mode is enabled.
func PrintlnNormal(args ...interface{}) {
	if !quietMode {
		fmt.Println(args...)
	}
}
