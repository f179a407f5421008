// Package logger prints command diagnostics with a common prefix and a
// quiet switch.
package logger

import (
	"io"
	"log"
	"os"
)

// Quiet suppresses Info messages. Errors are always printed.
var Quiet bool

var std = log.New(os.Stderr, "csinfo: ", 0)

// SetOutput redirects all messages to w.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// Info prints a message unless Quiet is set.
func Info(format string, args ...any) {
	if Quiet {
		return
	}
	std.Printf(format, args...)
}

// Error prints a message unconditionally.
func Error(format string, args ...any) {
	std.Printf(format, args...)
}
