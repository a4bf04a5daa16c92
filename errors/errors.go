// Package errors provides severity-tagged errors and the leveled log used by
// tlshello. Hello parsing reports plain sentinel errors from the root
// package; this package serves the layers above it: negotiation tracing and
// the hellotool command.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
)

const modulePrefix = "github.com/mar1xlatino/"

// Severity orders log messages and errors. A lower value is more severe.
type Severity int32

const (
	SeverityUnknown Severity = 0
	SeverityError   Severity = 1
	SeverityWarning Severity = 2
	SeverityInfo    Severity = 3
	SeverityDebug   Severity = 4
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "Error"
	case SeverityWarning:
		return "Warning"
	case SeverityInfo:
		return "Info"
	case SeverityDebug:
		return "Debug"
	default:
		return "Unknown"
	}
}

// ParseSeverity maps a level name ("debug", "info", "warn", "warning",
// "error") to a Severity. Unknown names report false.
func ParseSeverity(name string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return SeverityDebug, true
	case "info":
		return SeverityInfo, true
	case "warn", "warning":
		return SeverityWarning, true
	case "error":
		return SeverityError, true
	}
	return SeverityUnknown, false
}

// writerBox gives logWriter a single dynamic type whatever writer is set.
type writerBox struct{ w io.Writer }

// callbackBox does the same for logCallback; a nil fn means writer output.
type callbackBox struct{ fn func(Severity, string) }

var (
	logLevel    atomic.Int32
	logWriter   atomic.Value // writerBox
	logCallback atomic.Value // callbackBox
)

func init() {
	logLevel.Store(int32(SeverityWarning))
	logWriter.Store(writerBox{os.Stderr})
	logCallback.Store(callbackBox{})
}

// SetLogLevel sets the least severe level that is still logged.
func SetLogLevel(s Severity) {
	logLevel.Store(int32(s))
}

// GetLogLevel returns the current log level.
func GetLogLevel() Severity {
	return Severity(logLevel.Load())
}

// ShouldLog reports whether a message of the given severity passes the
// current level.
func ShouldLog(s Severity) bool {
	return s <= Severity(logLevel.Load())
}

// SetLogWriter sets where messages go while no callback is set. A nil
// writer restores stderr.
func SetLogWriter(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logWriter.Store(writerBox{w})
}

// SetLogCallback routes every message to cb instead of the log writer.
// The callback gets the severity and the formatted line and owns the final
// output. Pass nil to go back to the writer.
func SetLogCallback(cb func(Severity, string)) {
	logCallback.Store(callbackBox{cb})
}

// Error is an error tagged with a severity and the function that created it.
type Error struct {
	message  []interface{}
	caller   string
	inner    error
	severity Severity
	id       ID
}

// New returns an Error at info severity whose message is fmt.Sprint(msg...).
func New(msg ...interface{}) *Error {
	return &Error{
		message:  msg,
		caller:   callerName(2),
		severity: SeverityInfo,
	}
}

func (err *Error) Error() string {
	var b strings.Builder
	if err.id != 0 {
		fmt.Fprintf(&b, "[%d] ", uint32(err.id))
	}
	if err.caller != "" {
		b.WriteString(err.caller)
		b.WriteString(": ")
	}
	b.WriteString(fmt.Sprint(err.message...))
	if err.inner != nil {
		b.WriteString(" > ")
		b.WriteString(err.inner.Error())
	}
	return b.String()
}

// Unwrap returns the error set with Base.
func (err *Error) Unwrap() error {
	return err.inner
}

// Base sets the wrapped error.
func (err *Error) Base(inner error) *Error {
	err.inner = inner
	return err
}

// AtWarning sets the severity to warning.
func (err *Error) AtWarning() *Error {
	err.severity = SeverityWarning
	return err
}

// AtError sets the severity to error.
func (err *Error) AtError() *Error {
	err.severity = SeverityError
	return err
}

// Severity returns the more severe of the error's own severity and that
// of the error it wraps.
func (err *Error) Severity() Severity {
	var inner interface{ Severity() Severity }
	if err.inner != nil && stderrors.As(err.inner, &inner) {
		if s := inner.Severity(); s != SeverityUnknown && s < err.severity {
			return s
		}
	}
	return err.severity
}

// GetSeverity returns the severity of err, or SeverityInfo when nothing in
// its chain carries one.
func GetSeverity(err error) Severity {
	var s interface{ Severity() Severity }
	if stderrors.As(err, &s) {
		return s.Severity()
	}
	return SeverityInfo
}

// LogDebug logs a debug message. It is a no-op unless built with -tags=debug.
func LogDebug(ctx context.Context, msg ...interface{}) {
	if !DebugLoggingEnabled || !ShouldLog(SeverityDebug) {
		return
	}
	logAt(ctx, SeverityDebug, msg)
}

// LogInfo logs an info message.
func LogInfo(ctx context.Context, msg ...interface{}) {
	if !ShouldLog(SeverityInfo) {
		return
	}
	logAt(ctx, SeverityInfo, msg)
}

// LogWarning logs a warning message.
func LogWarning(ctx context.Context, msg ...interface{}) {
	if !ShouldLog(SeverityWarning) {
		return
	}
	logAt(ctx, SeverityWarning, msg)
}

func logAt(ctx context.Context, severity Severity, msg []interface{}) {
	line := (&Error{
		message:  msg,
		caller:   callerName(3),
		severity: severity,
		id:       idFrom(ctx),
	}).Error()

	if cb := logCallback.Load().(callbackBox); cb.fn != nil {
		cb.fn(severity, line)
		return
	}
	fmt.Fprintf(logWriter.Load().(writerBox).w, "[%s] %s\n", severity, line)
}

// callerName returns the function skip frames up, without the module path.
func callerName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}
	return strings.TrimPrefix(fn.Name(), modulePrefix)
}

// ID identifies one exchange (a parsed hello and its negotiated answer) in
// log output.
type ID uint32

type idKey struct{}

// ContextWithID returns a context with the exchange ID attached.
func ContextWithID(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, idKey{}, id)
}

func idFrom(ctx context.Context) ID {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(idKey{}).(ID)
	return id
}
