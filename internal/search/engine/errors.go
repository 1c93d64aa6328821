package engine

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/kailas-cloud/appsearch/internal/domain"
)

// Kind classifies a transport failure.
type Kind string

// Transport failure kinds.
const (
	KindTimeout    Kind = "timeout"
	KindConnection Kind = "connection"
	KindRejected   Kind = "rejected"
	KindMalformed  Kind = "malformed"
)

// TransportError is a failed round trip to the search engine.
type TransportError struct {
	Op    string
	Index string
	Kind  Kind
	// Status is the engine HTTP status when one was received.
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("engine: %s %s: %s", e.Op, e.Index, e.Kind)
	if e.Status > 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the client error.
func (e *TransportError) Unwrap() error { return e.Err }

// Is reports domain.ErrSearchUnavailable so callers can degrade.
func (e *TransportError) Is(target error) bool {
	return target == domain.ErrSearchUnavailable
}

// Classify wraps err into a *TransportError unless it already is one.
// status is the engine HTTP status, or 0 when none was received.
func Classify(op, index string, status int, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Index: index, Kind: kindOf(status, err), Status: status, Err: err}
}

func kindOf(status int, err error) Kind {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return KindTimeout
	case status == 400:
		return KindMalformed
	case status >= 400:
		return KindRejected
	default:
		return KindConnection
	}
}
