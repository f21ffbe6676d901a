package audit

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind is the coarse error category recorded at page or site granularity.
type ErrorKind string

// Error kinds kept for the audit trail.
const (
	ErrKindNone       ErrorKind = ""
	ErrKindNetwork    ErrorKind = "NETWORK"
	ErrKindHTTP       ErrorKind = "HTTP"
	ErrKindRender     ErrorKind = "RENDER"
	ErrKindParse      ErrorKind = "PARSE"
	ErrKindBudget     ErrorKind = "BUDGET_EXCEEDED"
	ErrKindCheckpoint ErrorKind = "CHECKPOINT_CORRUPTION"
)

// KindError attaches an ErrorKind to an underlying error so callers can make
// retry and fatality decisions with errors.As.
type KindError struct {
	Kind ErrorKind
	Err  error
}

// Error implements the error interface.
func (e *KindError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes the wrapped error for errors.Is/As.
func (e *KindError) Unwrap() error {
	return e.Err
}

// WrapKind wraps err with an ErrorKind. A nil err yields nil.
func WrapKind(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from err, classifying untagged network and
// timeout errors as NETWORK. Unknown errors report as RENDER since every
// other failure inside a fetch originates in the rendering engine.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrKindNone
	}
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrKindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrKindNetwork
	}
	return ErrKindRender
}

// StatusErrorKind maps a non-success HTTP status to an error kind.
func StatusErrorKind(status int) ErrorKind {
	if status >= 400 {
		return ErrKindHTTP
	}
	return ErrKindNone
}
