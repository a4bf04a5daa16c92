//go:build !debug

package errors

// DebugLoggingEnabled gates LogDebug. Build with -tags=debug to enable it.
const DebugLoggingEnabled = false
