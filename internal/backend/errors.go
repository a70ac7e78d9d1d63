package backend

import "fmt"

// Kind classifies a generation failure.
type Kind int

const (
	// KindUnavailable means no usable transport exists for the request.
	KindUnavailable Kind = iota
	// KindAuth means credentials are missing or were rejected.
	KindAuth
	// KindTransient covers network failures and timeouts; the gateway retries
	// these a bounded number of times before surfacing them.
	KindTransient
	// KindRejected means the backend responded but declined to generate.
	// Never retried.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "backend_unavailable"
	case KindAuth:
		return "authentication_error"
	case KindTransient:
		return "transient_error"
	case KindRejected:
		return "generation_rejected"
	}
	return "unknown"
}

// Error is a classified generation failure from a transport.
type Error struct {
	Kind      Kind
	Transport string
	Err       error
}

func (e *Error) Error() string {
	if e.Transport == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Kind, e.Transport, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, transport string, err error) *Error {
	return &Error{Kind: kind, Transport: transport, Err: err}
}
