package simclient

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies a failed call to the simulation service.
type ErrorKind int

const (
	// KindNetworkFailure covers connection and protocol-level failures.
	KindNetworkFailure ErrorKind = iota
	// KindTimedOut is a request that exceeded the configured timeout.
	// Distinguished from KindNetworkFailure so callers can report a hung
	// remote service instead of a generic network error.
	KindTimedOut
	// KindRemoteStatus is a non-2xx HTTP response from the service.
	KindRemoteStatus
)

// Error is a classified simulation-service call failure.
type Error struct {
	Kind       ErrorKind
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTimedOut:
		return fmt.Sprintf("%s: simulation service request timed out: %v", e.Op, e.Err)
	case KindRemoteStatus:
		return fmt.Sprintf("%s: simulation service returned status %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("%s: simulation service unreachable: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTimedOut reports whether err is a timed-out simulation service call.
func IsTimedOut(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == KindTimedOut
}

// classify wraps a transport error, separating timeouts from other failures.
func classify(op string, err error) *Error {
	kind := KindNetworkFailure
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimedOut
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
