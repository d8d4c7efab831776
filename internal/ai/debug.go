package ai

import "sync/atomic"

// debugLoggingEnabled guards per-decision debug logs, which run for every car on every tick.
// Set via EnableDebugLogging() from main after the log level is known.
var debugLoggingEnabled atomic.Bool

// EnableDebugLogging enables or disables per-decision debug logging.
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled returns true if per-decision debug logging is enabled.
// Use this to guard debug log calls on the decision path:
//
//	if ai.IsDebugEnabled() {
//	    slog.Debug("open directions", "carID", id, "open", open)
//	}
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}
