package errorsx

import (
	"errors"
	"fmt"
	"log/slog"
)

// ReasonedError carries a reason code alongside the underlying error.
type ReasonedError struct {
	Err    error
	Reason ReasonCode
}

func (e *ReasonedError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return e.Err.Error()
}

func (e *ReasonedError) Unwrap() error { return e.Err }

// Is reports a match against a bare ReasonCode, so
// errors.Is(err, errorsx.ReasonDrainTimeout) works through wrapping.
func (e *ReasonedError) Is(target error) bool {
	code, ok := target.(ReasonCode)
	return ok && code == e.Reason
}

// LogValue groups the reason with the message in structured logs.
func (e *ReasonedError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("reason", string(e.Reason)),
		slog.String("msg", e.Error()),
	)
}

// Wrap attaches reason to err. The innermost reason wins: an error that
// already carries one is returned unchanged.
func Wrap(err error, reason ReasonCode) error {
	if err == nil {
		return nil
	}
	var re *ReasonedError
	if errors.As(err, &re) {
		return err
	}
	return &ReasonedError{Err: err, Reason: reason}
}

func New(reason ReasonCode, msg string) error {
	return &ReasonedError{Err: errors.New(msg), Reason: reason}
}

// Errorf formats with fmt.Errorf (so %w works) and attaches reason.
func Errorf(reason ReasonCode, format string, args ...any) error {
	return Wrap(fmt.Errorf(format, args...), reason)
}

// Reason returns the innermost reason code in err's chain, or ReasonUnknown.
func Reason(err error) ReasonCode {
	var re *ReasonedError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ReasonUnknown
}

func HasReason(err error, reason ReasonCode) bool {
	return err != nil && Reason(err) == reason
}
