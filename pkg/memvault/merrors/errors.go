// Package merrors implements the engine's closed error taxonomy: a fixed
// set of error kinds that every fallible operation returns, wrapped in a
// CoreError carrying diagnostic detail: callers branch on Kind via
// errors.Is against the sentinel values below, never on the detail string.
package merrors

import (
	"errors"
	"fmt"
)

// Kind is the closed set of error kinds the engine ever returns.
type Kind int

const (
	KindNotFound Kind = iota
	KindUnauthorized
	KindInvalidArgument
	KindConflict
	KindResourceExhausted
	KindIntegrityMismatch
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindUnauthorized:
		return "Unauthorized"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindConflict:
		return "Conflict"
	case KindResourceExhausted:
		return "ResourceExhausted"
	case KindIntegrityMismatch:
		return "IntegrityMismatch"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Sentinel values for errors.Is matching.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrConflict          = errors.New("conflict")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrIntegrityMismatch = errors.New("integrity mismatch")
	ErrInternal          = errors.New("internal error")
)

func sentinelFor(k Kind) error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindUnauthorized:
		return ErrUnauthorized
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindConflict:
		return ErrConflict
	case KindResourceExhausted:
		return ErrResourceExhausted
	case KindIntegrityMismatch:
		return ErrIntegrityMismatch
	default:
		return ErrInternal
	}
}

// CoreError wraps a Kind with operation context and a diagnostic detail
// string. Detail is for logs only; callers must branch on Kind.
type CoreError struct {
	Kind   Kind
	Op     string
	Detail string

	// Expected/Got carry the two digests for IntegrityMismatch so callers
	// can surface both without parsing Detail.
	Expected string
	Got      string

	// Limit names which back-pressure limit was hit for ResourceExhausted.
	Limit string

	Err error
}

func (e *CoreError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *CoreError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return sentinelFor(e.Kind)
}

// Is reports whether err's Kind matches kind, via errors.Is against the
// kind's sentinel.
func Is(err error, kind Kind) bool {
	return errors.Is(err, sentinelFor(kind))
}

// KindOf extracts the Kind from err, defaulting to KindInternal if err is
// not a *CoreError.
func KindOf(err error) Kind {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

func NotFound(detail string) error {
	return &CoreError{Kind: KindNotFound, Detail: detail}
}

func Unauthorized() error {
	return &CoreError{Kind: KindUnauthorized, Detail: "access denied"}
}

func InvalidArgument(detail string) error {
	return &CoreError{Kind: KindInvalidArgument, Detail: detail}
}

func InvalidArgumentf(format string, args ...any) error {
	return &CoreError{Kind: KindInvalidArgument, Detail: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &CoreError{Kind: KindConflict, Detail: fmt.Sprintf(format, args...)}
}

func ResourceExhausted(detail, limit string) error {
	return &CoreError{Kind: KindResourceExhausted, Detail: detail, Limit: limit}
}

func IntegrityMismatch(expected, got string) error {
	return &CoreError{
		Kind:     KindIntegrityMismatch,
		Detail:   "checksum mismatch",
		Expected: expected,
		Got:      got,
	}
}

func Internal(detail string) error {
	return &CoreError{Kind: KindInternal, Detail: detail}
}

func Internalf(format string, args ...any) error {
	return &CoreError{Kind: KindInternal, Detail: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with an operation name, preserving its Kind when err
// is already a *CoreError, otherwise classifying it Internal.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CoreError
	if errors.As(err, &ce) {
		wrapped := *ce
		wrapped.Op = op
		return &wrapped
	}
	return &CoreError{Kind: KindInternal, Op: op, Detail: err.Error(), Err: err}
}
