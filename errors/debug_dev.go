//go:build debug

package errors

// DebugLoggingEnabled is true when built with -tags=debug.
const DebugLoggingEnabled = true
