package dataset

import (
	"io"
	"log"
	"sync"
)

var (
	logMu      sync.RWMutex
	diagLogger *log.Logger
)

// SetDiagWriter configures the diagnostics stream. Pass nil to disable.
func SetDiagWriter(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	if w == nil {
		diagLogger = nil
		return
	}
	diagLogger = log.New(w, "[dataset] ", log.LstdFlags|log.Lmicroseconds)
}

// diagf logs to the diag stream (per-batch assembly telemetry).
func diagf(format string, args ...interface{}) {
	logMu.RLock()
	l := diagLogger
	logMu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}
