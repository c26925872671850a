// Package erruser provides errors whose Error() returns only a user-facing
// message. The technical cause stays behind Unwrap() so the primary line the
// hook prints never contains command names, URLs, or exit codes.
package erruser

import "errors"

// Err pairs a user-facing message with an optional cause.
type Err struct {
	Msg string
	Err error
}

// Error returns the user-facing message only.
func (e *Err) Error() string {
	if e == nil {
		return ""
	}
	return e.Msg
}

// Unwrap returns the underlying cause for "Details:" output or errors.Is.
func (e *Err) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New returns an error with the given user-facing message. A non-nil err is
// wrapped and reachable via Unwrap(); a nil err yields a plain error.
func New(msg string, err error) error {
	if err == nil {
		return errors.New(msg)
	}
	return &Err{Msg: msg, Err: err}
}
