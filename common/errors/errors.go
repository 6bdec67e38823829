// Package errors is a drop-in replacement for Golang's lib 'errors',
// adapted from the teacher's common/errors package: every error carries
// a caller tag (via runtime.Caller), an optional inner error, a log
// severity, and — new for this domain — a Kind drawn from the DDP
// error taxonomy (spec §7), so callers can compare errors.GetKind(err)
// instead of string-matching messages.
package errors

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/appletalk/ddpcore/common/log"
	"github.com/appletalk/ddpcore/common/traceid"
)

const trim = len("github.com/appletalk/ddpcore/")

type hasInnerError interface {
	Unwrap() error
}

type hasSeverity interface {
	Severity() log.Severity
}

type hasKind interface {
	Kind() Kind
}

// Kind is the DDP error taxonomy from spec.md §7.
type Kind int

const (
	KindNone Kind = iota
	KindBadFamily
	KindInvalid
	KindAddressInUse
	KindAddressUnavailable
	KindNetUnreachable
	KindNotConnected
	KindNoPort
	KindNoBufs
	KindMsgTooBig
	KindWouldBlock
	KindInterrupted
	KindPermissionDenied
	KindShutdown
)

func (k Kind) String() string {
	switch k {
	case KindBadFamily:
		return "BadFamily"
	case KindInvalid:
		return "Invalid"
	case KindAddressInUse:
		return "AddressInUse"
	case KindAddressUnavailable:
		return "AddressUnavailable"
	case KindNetUnreachable:
		return "NetUnreachable"
	case KindNotConnected:
		return "NotConnected"
	case KindNoPort:
		return "NoPort"
	case KindNoBufs:
		return "NoBufs"
	case KindMsgTooBig:
		return "MsgTooBig"
	case KindWouldBlock:
		return "WouldBlock"
	case KindInterrupted:
		return "Interrupted"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindShutdown:
		return "Shutdown"
	default:
		return "None"
	}
}

// Error is an error object with an underlying error.
type Error struct {
	prefix   []interface{}
	message  []interface{}
	caller   string
	inner    error
	severity log.Severity
	kind     Kind
}

// Error implements error.Error().
func (err *Error) Error() string {
	builder := strings.Builder{}
	for _, prefix := range err.prefix {
		builder.WriteByte('[')
		builder.WriteString(fmt.Sprint(prefix))
		builder.WriteString("] ")
	}

	if len(err.caller) > 0 {
		builder.WriteString(err.caller)
		builder.WriteString(": ")
	}

	builder.WriteString(concat(err.message...))

	if err.inner != nil {
		builder.WriteString(" > ")
		builder.WriteString(err.inner.Error())
	}

	return builder.String()
}

func concat(msg ...interface{}) string {
	parts := make([]string, 0, len(msg))
	for _, m := range msg {
		parts = append(parts, fmt.Sprint(m))
	}
	return strings.Join(parts, "")
}

// Unwrap implements hasInnerError.Unwrap().
func (err *Error) Unwrap() error {
	return err.inner
}

// Base sets the underlying cause of this error.
func (err *Error) Base(e error) *Error {
	err.inner = e
	return err
}

// OfKind tags this error with a DDP error Kind (spec §7).
func (err *Error) OfKind(k Kind) *Error {
	err.kind = k
	return err
}

func (err *Error) atSeverity(s log.Severity) *Error {
	err.severity = s
	return err
}

// Severity returns the severity of this error, preferring the most
// urgent of this error and its inner error.
func (err *Error) Severity() log.Severity {
	if err.inner == nil {
		return err.severity
	}
	if s, ok := err.inner.(hasSeverity); ok {
		if as := s.Severity(); as < err.severity {
			return as
		}
	}
	return err.severity
}

// AtDebug sets the severity to debug.
func (err *Error) AtDebug() *Error { return err.atSeverity(log.Severity_Debug) }

// AtInfo sets the severity to info.
func (err *Error) AtInfo() *Error { return err.atSeverity(log.Severity_Info) }

// AtWarning sets the severity to warning.
func (err *Error) AtWarning() *Error { return err.atSeverity(log.Severity_Warning) }

// AtError sets the severity to error.
func (err *Error) AtError() *Error { return err.atSeverity(log.Severity_Error) }

// String returns the string representation of this error.
func (err *Error) String() string { return err.Error() }

// New returns a new error object with message formed from given arguments.
func New(msg ...interface{}) *Error {
	return &Error{
		message:  msg,
		severity: log.Severity_Info,
		caller:   callerName(1),
	}
}

func callerName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	details := runtime.FuncForPC(pc).Name()
	if len(details) >= trim {
		details = details[trim:]
	}
	if i := strings.Index(details, "."); i > 0 {
		details = details[:i]
	}
	return details
}

func LogDebug(ctx context.Context, msg ...interface{})   { doLog(ctx, nil, log.Severity_Debug, msg...) }
func LogInfo(ctx context.Context, msg ...interface{})    { doLog(ctx, nil, log.Severity_Info, msg...) }
func LogWarning(ctx context.Context, msg ...interface{}) { doLog(ctx, nil, log.Severity_Warning, msg...) }
func LogError(ctx context.Context, msg ...interface{})   { doLog(ctx, nil, log.Severity_Error, msg...) }

func LogInfoInner(ctx context.Context, inner error, msg ...interface{}) {
	doLog(ctx, inner, log.Severity_Info, msg...)
}

func LogWarningInner(ctx context.Context, inner error, msg ...interface{}) {
	doLog(ctx, inner, log.Severity_Warning, msg...)
}

func LogErrorInner(ctx context.Context, inner error, msg ...interface{}) {
	doLog(ctx, inner, log.Severity_Error, msg...)
}

func doLog(ctx context.Context, inner error, severity log.Severity, msg ...interface{}) {
	err := &Error{
		message:  msg,
		severity: severity,
		caller:   callerName(2),
		inner:    inner,
	}
	if id, ok := traceid.FromContext(ctx); ok {
		err.prefix = append(err.prefix, id)
	}
	log.Record(&log.GeneralMessage{
		Severity: GetSeverity(err),
		Content:  err,
	})
}

// Cause returns the root cause of this error, walking Unwrap() chains.
func Cause(err error) error {
	if err == nil {
		return nil
	}
L:
	for {
		switch inner := err.(type) {
		case hasInnerError:
			u := inner.Unwrap()
			if u == nil {
				break L
			}
			err = u
		default:
			break L
		}
	}
	return err
}

// GetSeverity returns the effective severity of err.
func GetSeverity(err error) log.Severity {
	if s, ok := err.(hasSeverity); ok {
		return s.Severity()
	}
	return log.Severity_Info
}

// GetKind returns the DDP error Kind carried by err, walking the
// Unwrap() chain until one is found, or KindNone if none is tagged.
func GetKind(err error) Kind {
	for err != nil {
		if k, ok := err.(hasKind); ok {
			if kind := k.Kind(); kind != KindNone {
				return kind
			}
		}
		u, ok := err.(hasInnerError)
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return KindNone
}

func (err *Error) Kind() Kind { return err.kind }
