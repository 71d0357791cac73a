// Package logger writes pagechat's diagnostic output to stderr.
//
// Debug, Info, Warn and Section print only with --verbose: backend
// requests, status events and channel failures. Error always prints.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose logging is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects all log output. Tests pass a buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func Debug(format string, args ...any) { emit(false, "[DEBUG] "+format+"\n", args...) }

func Info(format string, args ...any) { emit(false, "[INFO] "+format+"\n", args...) }

// Warn is used for failures that are recovered from, like a dropped push
// connection or a failed status poll.
func Warn(format string, args ...any) { emit(false, "[WARN] "+format+"\n", args...) }

func Error(format string, args ...any) { emit(true, "[ERROR] "+format+"\n", args...) }

// Section prints a header that groups the debug lines after it.
func Section(name string) { emit(false, "\n=== %s ===\n", name) }

func emit(always bool, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if always || verbose {
		fmt.Fprintf(output, format, args...)
	}
}
